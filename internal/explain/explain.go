// Package explain turns a feature vector and final score into the
// human-readable half of a scan result: ordered reasons and ranked
// per-feature impact records.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/linklens-ai/linklens/internal/features"
)

const (
	maxReasons = 5
	maxImpacts = 10

	defaultBaseline   = 0.5
	defaultImportance = 1.0
)

// Impact attributes part of the verdict to one feature: how far its value
// sits from the benign baseline, weighted by the model's importance.
type Impact struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	Baseline    float64 `json:"baseline"`
	Importance  float64 `json:"importance"`
	Deviation   float64 `json:"deviation"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// Generator holds the read-only baseline/importance maps supplied by the
// model bundle. Safe for concurrent use.
type Generator struct {
	baselines  map[string]float64
	importance map[string]float64
}

// NewGenerator builds a generator; nil maps fall back to defaults per lookup.
func NewGenerator(baselines, importance map[string]float64) *Generator {
	return &Generator{baselines: baselines, importance: importance}
}

// Reasons builds the ordered reason list: a severity banner, then the fixed
// per-feature message sequence, then reassurances for low scores. Truncated
// to the first five entries; a generic caution is returned when nothing fires.
func (g *Generator) Reasons(v *features.Vector, score float64) []string {
	reasons := make([]string, 0, 16)

	if banner := severityBanner(score); banner != "" {
		reasons = append(reasons, banner)
	}

	keywords := int(v.Get(features.SuspiciousKeywordCount))
	switch {
	case keywords >= 5:
		reasons = append(reasons, fmt.Sprintf("Contains %d highly suspicious keywords (e.g. 'login', 'secure', 'verify')", keywords))
	case keywords >= 3:
		reasons = append(reasons, fmt.Sprintf("Contains %d suspicious keywords that mimic legitimate services", keywords))
	case keywords >= 1:
		reasons = append(reasons, fmt.Sprintf("Contains %d keyword commonly used in phishing attempts", keywords))
	}

	brands := int(v.Get(features.BrandImpersonationCount))
	switch {
	case brands >= 2:
		reasons = append(reasons, fmt.Sprintf("Impersonates %d well-known brands (e.g. PayPal, Google, Amazon)", brands))
	case brands >= 1:
		reasons = append(reasons, "Attempts to impersonate a well-known brand")
	}

	typo := int(v.Get(features.TyposquattingScore))
	switch {
	case typo >= 2:
		reasons = append(reasons, fmt.Sprintf("High typosquatting risk (score %d): domain is similar to popular brands", typo))
	case typo >= 1:
		reasons = append(reasons, "Possible typosquatting: domain name resembles a known brand")
	}

	if v.Get(features.HasIP) == 1 {
		reasons = append(reasons, "Uses an IP address instead of a domain name, a common phishing technique")
	}
	if v.Get(features.IsURLShortener) == 1 {
		reasons = append(reasons, "URL shortening service detected, often used to hide phishing URLs")
	}

	subdomains := int(v.Get(features.CountSubdomains))
	switch {
	case subdomains > 5:
		reasons = append(reasons, fmt.Sprintf("Excessive subdomains (%d), often used to appear legitimate", subdomains))
	case subdomains > 3:
		reasons = append(reasons, fmt.Sprintf("Many subdomains (%d) may indicate a phishing attempt", subdomains))
	case subdomains > 2:
		reasons = append(reasons, fmt.Sprintf("Multiple subdomains (%d) could be suspicious", subdomains))
	}

	if v.Get(features.HasHTTPS) == 0 {
		reasons = append(reasons, "No HTTPS encryption; legitimate sites typically use HTTPS")
	}
	if v.Get(features.HasPort) == 1 {
		reasons = append(reasons, "Uses a non-standard port, unusual for legitimate websites")
	}

	digitRatio := v.Get(features.DigitRatio)
	switch {
	case digitRatio > 0.3:
		reasons = append(reasons, fmt.Sprintf("High digit ratio (%.2f) in the domain, an unusual pattern", digitRatio))
	case digitRatio > 0.2:
		reasons = append(reasons, fmt.Sprintf("Moderate digit ratio (%.2f) in the domain, potentially suspicious", digitRatio))
	}

	dashes := int(v.Get(features.CountDashesInDomain))
	switch {
	case dashes > 3:
		reasons = append(reasons, fmt.Sprintf("Excessive dashes (%d) in the domain, a common phishing tactic", dashes))
	case dashes > 1:
		reasons = append(reasons, fmt.Sprintf("Multiple dashes (%d) in the domain, potentially suspicious", dashes))
	}

	entropy := v.Get(features.URLEntropy)
	switch {
	case entropy > 5.5:
		reasons = append(reasons, fmt.Sprintf("Very high URL randomness (%.1f) may indicate obfuscation", entropy))
	case entropy > 5.0:
		reasons = append(reasons, fmt.Sprintf("High URL randomness (%.1f) may indicate obfuscation", entropy))
	case entropy > 4.5:
		reasons = append(reasons, fmt.Sprintf("Elevated URL randomness (%.1f), somewhat unusual", entropy))
	}

	if v.Get(features.HasAtSymbol) == 1 {
		reasons = append(reasons, "Contains an '@' symbol, often used to disguise the real destination")
	}

	switch {
	case v.Get(features.HasHexEncoding) == 1:
		reasons = append(reasons, "Contains hexadecimal encoding, often used to obfuscate malicious URLs")
	case v.Get(features.HasEncodedChars) == 1:
		reasons = append(reasons, "Contains encoded characters, often used to obfuscate malicious URLs")
	}

	urlLen := int(v.Get(features.URLLength))
	switch {
	case urlLen > 150:
		reasons = append(reasons, fmt.Sprintf("Very long URL (%d characters), often used in phishing to obfuscate", urlLen))
	case urlLen > 100:
		reasons = append(reasons, fmt.Sprintf("Long URL (%d characters) may indicate obfuscation", urlLen))
	case urlLen > 80:
		reasons = append(reasons, fmt.Sprintf("Moderately long URL (%d characters), somewhat unusual", urlLen))
	}

	queryParams := int(v.Get(features.QueryParamCount))
	suspiciousParams := int(v.Get(features.SuspiciousParamsCount))
	switch {
	case suspiciousParams >= 3:
		reasons = append(reasons, fmt.Sprintf("Multiple suspicious query parameters (%d) may carry stolen data", suspiciousParams))
	case suspiciousParams >= 1:
		reasons = append(reasons, "Suspicious query parameter detected, could be used for credential theft")
	case queryParams > 10:
		reasons = append(reasons, fmt.Sprintf("Excessive query parameters (%d), often used to carry malicious data", queryParams))
	case queryParams > 5:
		reasons = append(reasons, fmt.Sprintf("Many query parameters (%d), potentially suspicious", queryParams))
	}

	if v.Get(features.SuspiciousHosting) == 1 {
		reasons = append(reasons, "Hosted on a free hosting service commonly used for phishing")
	}

	repetition := v.Get(features.CharRepetitionRatio)
	if repetition > 0.3 {
		reasons = append(reasons, fmt.Sprintf("High character repetition (%.2f), an unusual pattern", repetition))
	}

	phishingTerms := int(v.Get(features.PhishingTermsCount))
	switch {
	case phishingTerms >= 2:
		reasons = append(reasons, fmt.Sprintf("Contains %d phishing-specific terms", phishingTerms))
	case phishingTerms >= 1:
		reasons = append(reasons, "Contains phishing-related terminology")
	}

	depth := int(v.Get(features.PathDepth))
	switch {
	case depth > 7:
		reasons = append(reasons, fmt.Sprintf("Deep URL path (%d levels), sometimes used to mimic legitimate sites", depth))
	case depth > 5:
		reasons = append(reasons, fmt.Sprintf("Moderately deep path (%d levels), somewhat unusual", depth))
	}

	if v.Get(features.IsKnownTLD) == 0 {
		reasons = append(reasons, "Uses an uncommon top-level domain, less common for legitimate sites")
	}

	switch {
	case score < 0.15:
		if v.Get(features.HasHTTPS) == 1 {
			reasons = append(reasons, "Uses HTTPS encryption, indicating good security practices")
		}
		if keywords == 0 {
			reasons = append(reasons, "No suspicious keywords detected in the URL")
		}
		if subdomains <= 2 {
			reasons = append(reasons, "Normal domain structure with few subdomains")
		}
		if v.Get(features.HasHexEncoding) == 0 {
			reasons = append(reasons, "No encoded characters detected")
		}
		if urlLen < 70 {
			reasons = append(reasons, "Reasonable URL length for a legitimate website")
		}
		if queryParams < 3 {
			reasons = append(reasons, "Minimal query parameters reduce the attack surface")
		}
		if typo == 0 {
			reasons = append(reasons, "No typosquatting patterns detected")
		}
	case score < 0.25:
		reasons = append(reasons, "Overall URL characteristics align with legitimate websites")
	case score < 0.35:
		reasons = append(reasons, "URL has some minor anomalies but may be legitimate")
	}

	if len(reasons) == 0 {
		return []string{"URL shows some suspicious characteristics based on analysis"}
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

// Impacts computes one record per schema feature and returns the ten with the
// largest absolute impact, largest first. Ties keep schema order (stable sort).
func (g *Generator) Impacts(v *features.Vector) []Impact {
	impacts := make([]Impact, 0, features.Count)
	for i := 0; i < features.Count; i++ {
		f := features.Feature(i)
		value := v.Get(f)
		baseline := lookup(g.baselines, f.String(), defaultBaseline)
		importance := lookup(g.importance, f.String(), defaultImportance)
		deviation := value - baseline

		impacts = append(impacts, Impact{
			Feature:     f.String(),
			Value:       round3(value),
			Baseline:    round3(baseline),
			Importance:  round3(importance),
			Deviation:   round3(deviation),
			Impact:      round3(deviation * importance),
			Description: describe(f, value),
		})
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].Impact) > math.Abs(impacts[j].Impact)
	})
	if len(impacts) > maxImpacts {
		impacts = impacts[:maxImpacts]
	}
	return impacts
}

func severityBanner(score float64) string {
	switch {
	case score > 0.9:
		return "CRITICAL RISK: URL exhibits multiple strong phishing indicators"
	case score > 0.75:
		return "VERY HIGH RISK: URL shows several concerning characteristics"
	case score > 0.6:
		return "HIGH RISK: URL shows several concerning characteristics"
	case score > 0.45:
		return "MODERATE-HIGH RISK: URL has suspicious features"
	case score > 0.35:
		return "MODERATE RISK: URL has some suspicious features"
	case score > 0.25:
		return "LOW-MODERATE RISK: URL has minor suspicious indicators"
	}
	return ""
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if m == nil {
		return fallback
	}
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func describe(f features.Feature, value float64) string {
	switch f {
	case features.URLLength:
		return fmt.Sprintf("URL length is %d characters", int(value))
	case features.NetlocLength:
		return fmt.Sprintf("Domain name length is %d characters", int(value))
	case features.DomainLength:
		return fmt.Sprintf("Main domain length is %d characters", int(value))
	case features.PathLength:
		return fmt.Sprintf("Path length is %d characters", int(value))
	case features.CountDigits:
		return fmt.Sprintf("Contains %d digits", int(value))
	case features.DigitRatio:
		return fmt.Sprintf("Digit ratio is %.2f", value)
	case features.CountSpecialChars:
		return fmt.Sprintf("Contains %d special characters", int(value))
	case features.CountDashes:
		return fmt.Sprintf("Contains %d dashes", int(value))
	case features.CountDashesInDomain:
		return fmt.Sprintf("Domain contains %d dashes", int(value))
	case features.CountDots:
		return fmt.Sprintf("Contains %d dots", int(value))
	case features.CountUnderscores:
		return fmt.Sprintf("Contains %d underscores", int(value))
	case features.CountAtSymbols:
		return fmt.Sprintf("Contains %d @ symbols", int(value))
	case features.HasIP:
		return pick(value, "Uses IP address instead of domain", "Uses domain name")
	case features.CountSubdomains:
		return fmt.Sprintf("Has %d subdomains", int(value))
	case features.HasAtSymbol:
		return pick(value, "Contains '@' symbol", "No '@' symbol")
	case features.HasPort:
		return pick(value, "Uses non-standard port", "Uses standard port")
	case features.HasDoubleSlashInPath:
		return pick(value, "Double slash in path", "No double slash in path")
	case features.HasEncodedChars:
		return pick(value, "Contains encoded characters", "No encoded characters")
	case features.HasHexEncoding:
		return pick(value, "Contains hexadecimal encoding", "No hexadecimal encoding")
	case features.DomainEntropy:
		return fmt.Sprintf("Domain randomness is %.2f", value)
	case features.URLEntropy:
		return fmt.Sprintf("URL randomness is %.2f", value)
	case features.PathEntropy:
		return fmt.Sprintf("Path randomness is %.2f", value)
	case features.HasHTTPS:
		return pick(value, "Uses HTTPS encryption", "No HTTPS encryption")
	case features.SuspiciousKeywordCount:
		return fmt.Sprintf("Contains %d suspicious keywords", int(value))
	case features.BrandImpersonationCount:
		return fmt.Sprintf("Impersonates %d brands", int(value))
	case features.PhishingTermsCount:
		return fmt.Sprintf("Contains %d phishing terms", int(value))
	case features.TyposquattingScore:
		return fmt.Sprintf("Typosquatting score: %d", int(value))
	case features.CharRepetitionRatio:
		return fmt.Sprintf("Character repetition ratio: %.2f", value)
	case features.QueryParamCount:
		return fmt.Sprintf("Has %d query parameters", int(value))
	case features.SuspiciousParamsCount:
		return fmt.Sprintf("Has %d suspicious parameters", int(value))
	case features.AverageTokenLength:
		return fmt.Sprintf("Average token length is %.2f", value)
	case features.MaxTokenLength:
		return fmt.Sprintf("Longest token is %d characters", int(value))
	case features.TokenCount:
		return fmt.Sprintf("Has %d tokens", int(value))
	case features.TLD:
		return pick(value, "Uses common TLD", "Uses uncommon TLD")
	case features.TLDLength:
		return fmt.Sprintf("TLD length is %d characters", int(value))
	case features.IsKnownTLD:
		return pick(value, "Uses known TLD", "Uses unknown TLD")
	case features.PathDepth:
		return fmt.Sprintf("Path depth is %d levels", int(value))
	case features.DomainAge:
		return fmt.Sprintf("Domain age score is %.2f", value)
	case features.SuspiciousHosting:
		return pick(value, "Hosted on suspicious free service", "Not hosted on suspicious free service")
	case features.IsURLShortener:
		return pick(value, "URL shortening service", "Not a URL shortener")
	case features.IsSuspiciousTLD:
		return pick(value, "Uses TLD frequently abused by phishing", "TLD not on the abuse list")
	}
	return fmt.Sprintf("Feature %q has value %v", f.String(), value)
}

func pick(value float64, yes, no string) string {
	if value == 1 {
		return yes
	}
	return no
}
