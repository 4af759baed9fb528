package features

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	ipRe       = regexp.MustCompile(`\b(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})\b`)
	hexEncRe   = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	tokenSepRe = regexp.MustCompile(`[./?=&_-]`)
)

// specialChars is the fixed set counted by count_special_chars.
const specialChars = "!@#$%^&*()_+-=[]{}|;',?~`"

// Extractor turns a raw URL string into a schema-complete feature vector.
// It holds only immutable word lists, so a single instance is safe for
// concurrent use.
type Extractor struct {
	lists Wordlists
}

// NewExtractor builds an extractor over the given lexical configuration.
func NewExtractor(lists Wordlists) *Extractor {
	return &Extractor{lists: lists}
}

// Extract never fails: when the URL cannot be decomposed it falls back to the
// reduced minimal vector and reports OutcomeMinimal. Every schema slot is
// populated on both paths.
func (e *Extractor) Extract(raw string) (Vector, Outcome) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	var v Vector
	v[URLLength] = float64(len(raw))
	if strings.HasPrefix(raw, "https") {
		v[HasHTTPS] = 1
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return e.minimal(raw, v), OutcomeMinimal
	}

	netloc := u.Host
	hostname := u.Hostname()
	// Path metrics are defined over the path as written, so percent-encoded
	// separators ("%2F") must not count as real slashes or depth.
	path := u.EscapedPath()
	lower := strings.ToLower(raw)

	v[NetlocLength] = float64(len(netloc))
	v[DomainLength] = float64(domainLength(hostname))
	v[HasIP] = boolFeature(containsIP(netloc))
	v[CountSubdomains] = float64(countSubdomains(hostname))
	v[HasAtSymbol] = boolFeature(strings.Contains(raw, "@"))
	v[HasPort] = boolFeature(hasNonStandardPort(u))
	v[DomainAge] = estimateDomainAge(hostname)

	v[SuspiciousHosting] = boolFeature(containsAny(strings.ToLower(netloc), e.lists.SuspiciousHosting))
	v[IsURLShortener] = boolFeature(containsAny(strings.ToLower(netloc), e.lists.URLShorteners))
	v[IsSuspiciousTLD] = boolFeature(inList(lastLabel(hostname), e.lists.SuspiciousTLDs))

	v[PathLength] = float64(len(path))
	v[HasDoubleSlashInPath] = boolFeature(strings.Contains(path, "//"))
	v[HasEncodedChars] = boolFeature(strings.Contains(raw, "%"))
	v[PathDepth] = float64(pathDepth(path))

	v[CountDigits] = float64(countDigits(raw))
	v[DigitRatio] = float64(countDigits(netloc)) / math.Max(float64(len(netloc)), 1)
	v[CountSpecialChars] = float64(countSpecial(raw))
	v[CountDashes] = float64(strings.Count(raw, "-"))
	v[CountDashesInDomain] = float64(strings.Count(netloc, "-"))
	v[CountDots] = float64(strings.Count(raw, "."))
	v[CountUnderscores] = float64(strings.Count(raw, "_"))
	v[CountAtSymbols] = float64(strings.Count(raw, "@"))
	v[HasHexEncoding] = boolFeature(hexEncRe.MatchString(raw))

	v[DomainEntropy] = shannonEntropy(netloc)
	v[URLEntropy] = shannonEntropy(raw)
	v[PathEntropy] = shannonEntropy(path)

	v[SuspiciousKeywordCount] = float64(countListHits(lower, e.lists.SuspiciousKeywords))
	v[BrandImpersonationCount] = float64(countListHits(lower, e.lists.BrandImpersonation))
	v[PhishingTermsCount] = float64(countListHits(lower, e.lists.PhishingTerms))
	v[TyposquattingScore] = float64(e.typosquattingScore(hostname))
	v[CharRepetitionRatio] = charRepetitionRatio(netloc)

	v[QueryParamCount] = float64(countQueryParams(u.RawQuery))
	v[SuspiciousParamsCount] = float64(e.countSuspiciousParams(u.RawQuery))

	tokens := splitTokens(raw)
	v[AverageTokenLength] = averageTokenLength(tokens)
	v[MaxTokenLength] = float64(maxTokenLength(tokens))
	v[TokenCount] = float64(len(tokens))

	v[TLD] = boolFeature(hasCommonTLDSuffix(hostname))
	v[TLDLength] = float64(tldLength(hostname))
	v[IsKnownTLD] = boolFeature(isKnownTLD(hostname, e.lists.KnownTLDs))

	return v, OutcomeFull
}

// minimal emits the documented fallback vector: raw-string features stay
// live, everything host/path-derived goes to its neutral default.
func (e *Extractor) minimal(raw string, v Vector) Vector {
	lower := strings.ToLower(raw)

	v[CountDigits] = float64(countDigits(raw))
	v[CountSpecialChars] = float64(countSpecial(raw))
	v[CountDashes] = float64(strings.Count(raw, "-"))
	v[CountDots] = float64(strings.Count(raw, "."))
	v[CountUnderscores] = float64(strings.Count(raw, "_"))
	v[CountAtSymbols] = float64(strings.Count(raw, "@"))
	v[HasAtSymbol] = boolFeature(strings.Contains(raw, "@"))
	v[HasDoubleSlashInPath] = boolFeature(strings.Contains(raw, "//"))
	v[HasEncodedChars] = boolFeature(strings.Contains(raw, "%"))
	v[URLEntropy] = shannonEntropy(raw)

	v[SuspiciousKeywordCount] = float64(countListHits(lower, e.lists.SuspiciousKeywords))
	v[BrandImpersonationCount] = float64(countListHits(lower, e.lists.BrandImpersonation))
	v[PhishingTermsCount] = float64(countListHits(lower, e.lists.PhishingTerms))

	tokens := splitTokens(raw)
	v[AverageTokenLength] = averageTokenLength(tokens)
	v[MaxTokenLength] = float64(len(raw))
	v[TokenCount] = 1
	v[TLD] = 1
	v[TLDLength] = 3
	v[IsKnownTLD] = 1
	return v
}

// typosquattingScore compares the second-level domain label against popular
// brands: containment without equality, or edit distance <= 2 for brand names
// longer than 4 characters. Capped at 3.
func (e *Extractor) typosquattingScore(hostname string) int {
	label := secondLevelLabel(strings.ToLower(hostname))
	score := 0
	for _, brand := range e.lists.PopularBrands {
		switch {
		case strings.Contains(label, brand) && brand != label:
			score++
		case len(brand) > 4 && levenshtein(brand, label) <= 2:
			score++
		}
	}
	if score > 3 {
		score = 3
	}
	return score
}

func (e *Extractor) countSuspiciousParams(query string) int {
	if query == "" {
		return 0
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return 0
	}
	count := 0
	for name := range values {
		if inList(strings.ToLower(name), e.lists.SensitiveParams) {
			count++
		}
	}
	return count
}

func countQueryParams(query string) int {
	if query == "" {
		return 0
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return 0
	}
	return len(values)
}

// shannonEntropy is -sum(p*log2(p)) over rune frequency; strings of length
// <= 1 have entropy 0 by definition. The summation runs in first-occurrence
// order, never map order: float addition is not associative, so a randomized
// order would make repeated extractions differ in the last ULP.
func shannonEntropy(s string) float64 {
	runes := []rune(s)
	if len(runes) <= 1 {
		return 0
	}
	freq := make(map[rune]int, len(runes))
	order := make([]rune, 0, len(runes))
	for _, r := range runes {
		if freq[r] == 0 {
			order = append(order, r)
		}
		freq[r]++
	}
	total := float64(len(runes))
	entropy := 0.0
	for _, r := range order {
		p := float64(freq[r]) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// levenshtein is the classic DP edit distance with unit costs.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 0; i < len(a); i++ {
		curr[0] = i + 1
		for j := 0; j < len(b); j++ {
			cost := 0
			if a[i] != b[j] {
				cost = 1
			}
			curr[j+1] = min3(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func charRepetitionRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) <= 1 {
		return 0
	}
	repeats := 0
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == runes[i+1] {
			repeats++
		}
	}
	return float64(repeats) / math.Max(float64(len(runes)-1), 1)
}

func containsIP(netloc string) bool {
	m := ipRe.FindStringSubmatch(netloc)
	if m == nil {
		return false
	}
	for _, octet := range m[1:] {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

func countSubdomains(hostname string) int {
	parts := strings.Split(hostname, ".")
	if len(parts) > 2 {
		return len(parts) - 2
	}
	return 0
}

func domainLength(hostname string) int {
	parts := strings.Split(hostname, ".")
	if len(parts) >= 2 {
		// second-level label + '.' + TLD
		return len(parts[len(parts)-2]) + len(parts[len(parts)-1]) + 1
	}
	return len(hostname)
}

func secondLevelLabel(hostname string) string {
	parts := strings.Split(hostname, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return hostname
}

func lastLabel(hostname string) string {
	parts := strings.Split(hostname, ".")
	if len(parts) > 1 {
		return strings.ToLower(parts[len(parts)-1])
	}
	return ""
}

func hasNonStandardPort(u *url.URL) bool {
	port := u.Port()
	if port == "" {
		return false
	}
	return port != "80" && port != "443"
}

func pathDepth(path string) int {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func countSpecial(s string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			n++
		}
	}
	return n
}

// countListHits counts distinct list entries present as substrings; each
// entry contributes at most once regardless of how often it occurs.
func countListHits(lower string, list []string) int {
	count := 0
	for _, entry := range list {
		if strings.Contains(lower, entry) {
			count++
		}
	}
	return count
}

func containsAny(lower string, list []string) bool {
	for _, entry := range list {
		if strings.Contains(lower, entry) {
			return true
		}
	}
	return false
}

func inList(s string, list []string) bool {
	for _, entry := range list {
		if s == entry {
			return true
		}
	}
	return false
}

func splitTokens(raw string) []string {
	parts := tokenSepRe.Split(raw, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func averageTokenLength(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	for _, t := range tokens {
		total += len(t)
	}
	return float64(total) / float64(len(tokens))
}

func maxTokenLength(tokens []string) int {
	longest := 0
	for _, t := range tokens {
		if len(t) > longest {
			longest = len(t)
		}
	}
	return longest
}

var commonTLDSuffixes = []string{".com", ".org", ".net", ".edu", ".gov"}

func hasCommonTLDSuffix(hostname string) bool {
	lower := strings.ToLower(hostname)
	for _, suffix := range commonTLDSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func tldLength(hostname string) int {
	parts := strings.Split(hostname, ".")
	if len(parts) > 1 {
		return len(parts[len(parts)-1])
	}
	return 3
}

func isKnownTLD(hostname string, known []string) bool {
	parts := strings.Split(hostname, ".")
	if len(parts) > 1 {
		return inList(strings.ToLower(parts[len(parts)-1]), known)
	}
	// Single-label hosts have no public suffix to judge; default to known.
	return true
}

// estimateDomainAge is a fixed neutral placeholder. Wiring a real registry
// lookup would silently shift scoring, so it stays constant by policy.
func estimateDomainAge(string) float64 {
	return 0.5
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
