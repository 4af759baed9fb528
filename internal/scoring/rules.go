package scoring

import "github.com/linklens-ai/linklens/internal/features"

// tier is one threshold/increment pair of a boost rule.
type tier struct {
	when  func(v *features.Vector) bool
	boost float64
}

// boostRule is one entry of the ordered heuristic table. Tiers are checked in
// order and only the first matching tier contributes, so a rule with a high
// and a low threshold never double-counts.
type boostRule struct {
	name  string
	tiers []tier
}

func eq(f features.Feature, want float64) func(*features.Vector) bool {
	return func(v *features.Vector) bool { return v.Get(f) == want }
}

func atLeast(f features.Feature, min float64) func(*features.Vector) bool {
	return func(v *features.Vector) bool { return v.Get(f) >= min }
}

func above(f features.Feature, min float64) func(*features.Vector) bool {
	return func(v *features.Vector) bool { return v.Get(f) > min }
}

// defaultBoostRules is the hand-authored rule table layered on top of the
// classifier probability. Order and increments are part of the scoring
// contract; keep them auditable as data, not scattered conditionals.
func defaultBoostRules() []boostRule {
	return []boostRule{
		{name: "ip_host", tiers: []tier{
			{when: eq(features.HasIP, 1), boost: 0.30},
		}},
		{name: "typosquatting", tiers: []tier{
			{when: atLeast(features.TyposquattingScore, 3), boost: 0.35},
			{when: atLeast(features.TyposquattingScore, 2), boost: 0.25},
		}},
		{name: "brand_impersonation", tiers: []tier{
			{when: atLeast(features.BrandImpersonationCount, 3), boost: 0.35},
			{when: atLeast(features.BrandImpersonationCount, 2), boost: 0.25},
		}},
		{name: "suspicious_hosting", tiers: []tier{
			{when: eq(features.SuspiciousHosting, 1), boost: 0.25},
		}},
		{name: "url_shortener", tiers: []tier{
			{when: eq(features.IsURLShortener, 1), boost: 0.20},
		}},
		{name: "suspicious_keywords", tiers: []tier{
			{when: atLeast(features.SuspiciousKeywordCount, 5), boost: 0.25},
			{when: atLeast(features.SuspiciousKeywordCount, 3), boost: 0.15},
		}},
		{name: "no_https", tiers: []tier{
			{when: eq(features.HasHTTPS, 0), boost: 0.15},
		}},
		{name: "domain_dashes", tiers: []tier{
			{when: atLeast(features.CountDashesInDomain, 5), boost: 0.20},
			{when: atLeast(features.CountDashesInDomain, 3), boost: 0.10},
		}},
		{name: "non_standard_port", tiers: []tier{
			{when: eq(features.HasPort, 1), boost: 0.15},
		}},
		{name: "hex_encoding", tiers: []tier{
			{when: eq(features.HasHexEncoding, 1), boost: 0.20},
		}},
		{name: "suspicious_params", tiers: []tier{
			{when: atLeast(features.SuspiciousParamsCount, 4), boost: 0.20},
			{when: atLeast(features.SuspiciousParamsCount, 2), boost: 0.10},
		}},
		{name: "subdomains", tiers: []tier{
			{when: above(features.CountSubdomains, 6), boost: 0.15},
			{when: above(features.CountSubdomains, 4), boost: 0.10},
		}},
		{name: "url_entropy", tiers: []tier{
			{when: above(features.URLEntropy, 6.5), boost: 0.15},
			{when: above(features.URLEntropy, 5.5), boost: 0.10},
		}},
		{name: "digit_ratio", tiers: []tier{
			{when: above(features.DigitRatio, 0.5), boost: 0.12},
			{when: above(features.DigitRatio, 0.3), boost: 0.08},
		}},
		{name: "char_repetition", tiers: []tier{
			{when: above(features.CharRepetitionRatio, 0.5), boost: 0.12},
			{when: above(features.CharRepetitionRatio, 0.3), boost: 0.08},
		}},
		{name: "at_symbol", tiers: []tier{
			{when: eq(features.HasAtSymbol, 1), boost: 0.15},
		}},
		{name: "url_length", tiers: []tier{
			{when: above(features.URLLength, 200), boost: 0.12},
			{when: above(features.URLLength, 100), boost: 0.08},
		}},
		{name: "phishing_terms", tiers: []tier{
			{when: atLeast(features.PhishingTermsCount, 4), boost: 0.15},
			{when: atLeast(features.PhishingTermsCount, 2), boost: 0.10},
		}},
		{name: "unknown_tld", tiers: []tier{
			{when: eq(features.IsKnownTLD, 0), boost: 0.10},
		}},
		{name: "suspicious_tld", tiers: []tier{
			{when: eq(features.IsSuspiciousTLD, 1), boost: 0.15},
		}},
	}
}

// applyBoosts folds the rule table over one vector.
func applyBoosts(rules []boostRule, v *features.Vector) float64 {
	total := 0.0
	for _, rule := range rules {
		for _, t := range rule.tiers {
			if t.when(v) {
				total += t.boost
				break
			}
		}
	}
	return total
}
