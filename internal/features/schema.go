package features

// Feature indexes one slot of the fixed feature schema. The declaration order
// below IS the wire order the classifier was trained against; never reorder
// without retraining and re-exporting the model bundle.
type Feature int

const (
	URLLength Feature = iota
	NetlocLength
	DomainLength
	PathLength
	CountDigits
	DigitRatio
	CountSpecialChars
	CountDashes
	CountDashesInDomain
	CountDots
	CountUnderscores
	CountAtSymbols
	HasIP
	CountSubdomains
	HasAtSymbol
	HasPort
	HasDoubleSlashInPath
	HasEncodedChars
	HasHexEncoding
	DomainEntropy
	URLEntropy
	PathEntropy
	HasHTTPS
	SuspiciousKeywordCount
	BrandImpersonationCount
	PhishingTermsCount
	TyposquattingScore
	CharRepetitionRatio
	QueryParamCount
	SuspiciousParamsCount
	AverageTokenLength
	MaxTokenLength
	TokenCount
	TLD
	TLDLength
	IsKnownTLD
	PathDepth
	DomainAge
	SuspiciousHosting
	IsURLShortener
	IsSuspiciousTLD

	featureEnd
)

// Count is the number of schema slots.
const Count = int(featureEnd)

var names = [Count]string{
	URLLength:               "url_length",
	NetlocLength:            "netloc_length",
	DomainLength:            "domain_length",
	PathLength:              "path_length",
	CountDigits:             "count_digits",
	DigitRatio:              "digit_ratio",
	CountSpecialChars:       "count_special_chars",
	CountDashes:             "count_dashes",
	CountDashesInDomain:     "count_dashes_in_domain",
	CountDots:               "count_dots",
	CountUnderscores:        "count_underscores",
	CountAtSymbols:          "count_at_symbols",
	HasIP:                   "has_ip",
	CountSubdomains:         "count_subdomains",
	HasAtSymbol:             "has_at_symbol",
	HasPort:                 "has_port",
	HasDoubleSlashInPath:    "has_double_slash_in_path",
	HasEncodedChars:         "has_encoded_chars",
	HasHexEncoding:          "has_hex_encoding",
	DomainEntropy:           "domain_entropy",
	URLEntropy:              "url_entropy",
	PathEntropy:             "path_entropy",
	HasHTTPS:                "has_https",
	SuspiciousKeywordCount:  "suspicious_keyword_count",
	BrandImpersonationCount: "brand_impersonation_count",
	PhishingTermsCount:      "phishing_terms_count",
	TyposquattingScore:      "typosquatting_score",
	CharRepetitionRatio:     "char_repetition_ratio",
	QueryParamCount:         "query_param_count",
	SuspiciousParamsCount:   "suspicious_params_count",
	AverageTokenLength:      "average_token_length",
	MaxTokenLength:          "max_token_length",
	TokenCount:              "token_count",
	TLD:                     "tld",
	TLDLength:               "tld_length",
	IsKnownTLD:              "is_known_tld",
	PathDepth:               "path_depth",
	DomainAge:               "domain_age",
	SuspiciousHosting:       "suspicious_hosting",
	IsURLShortener:          "is_url_shortener",
	IsSuspiciousTLD:         "is_suspicious_tld",
}

// String returns the schema name of the feature, or "" for out-of-range values.
func (f Feature) String() string {
	if f < 0 || int(f) >= Count {
		return ""
	}
	return names[f]
}

// Names returns a fresh copy of the ordered schema names.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Vector is one extracted feature record. Indexing by Feature constant makes
// name/order mismatches with the classifier input a compile-time error
// instead of a silent default-to-zero.
type Vector [Count]float64

// Get returns the value of a single slot.
func (v *Vector) Get(f Feature) float64 {
	return v[f]
}

// Floats32 converts the vector to the ordered float32 array the classifier
// consumes.
func (v *Vector) Floats32() []float32 {
	out := make([]float32, Count)
	for i, val := range v {
		out[i] = float32(val)
	}
	return out
}

// Outcome tags how a vector was produced.
type Outcome string

const (
	// OutcomeFull means the URL decomposed cleanly and every feature group ran.
	OutcomeFull Outcome = "full"
	// OutcomeMinimal means URL decomposition failed and the reduced,
	// schema-complete fallback vector was emitted instead.
	OutcomeMinimal Outcome = "minimal"
)
