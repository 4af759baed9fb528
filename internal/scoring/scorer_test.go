package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/linklens-ai/linklens/internal/explain"
	"github.com/linklens-ai/linklens/internal/features"
	"github.com/linklens-ai/linklens/internal/phishguard"
)

// fixedClassifier returns a constant phish probability.
type fixedClassifier struct {
	phish float32
}

func (c fixedClassifier) PredictProba([]float32) ([2]float32, error) {
	return [2]float32{1 - c.phish, c.phish}, nil
}

// brokenClassifier always fails, with no hard-predict fallback.
type brokenClassifier struct{}

func (brokenClassifier) PredictProba([]float32) ([2]float32, error) {
	return [2]float32{}, errors.New("model unavailable")
}

// hardOnlyClassifier fails PredictProba but supports Predict.
type hardOnlyClassifier struct {
	class int
}

func (hardOnlyClassifier) PredictProba([]float32) ([2]float32, error) {
	return [2]float32{}, errors.New("probabilities unsupported")
}

func (c hardOnlyClassifier) Predict([]float32) (int, error) {
	return c.class, nil
}

func newEngine(c phishguard.Classifier) *Engine {
	bundle := phishguard.StubBundle()
	return NewEngine(
		features.NewExtractor(features.DefaultWordlists()),
		c,
		explain.NewGenerator(bundle.Baselines, bundle.Importance),
	)
}

func TestAnalyzeIPHostURL(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	result := engine.Analyze("http://192.168.1.100/login/verify.php")

	// Stub base 0.5 plus boosts: ip_host 0.30, no_https 0.15,
	// digit_ratio 0.12, unknown_tld 0.10 = 1.17, capped at 0.98.
	if math.Abs(result.Score-0.98) > 1e-9 {
		t.Fatalf("score = %v, want 0.98", result.Score)
	}
	if result.Label != LabelPhish {
		t.Fatalf("label = %s", result.Label)
	}
	if result.Status != StatusScored {
		t.Fatalf("status = %s", result.Status)
	}
	if math.Abs(result.Confidence-0.96) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.96", result.Confidence)
	}
	if len(result.Reasons) == 0 || len(result.Reasons) > 5 {
		t.Fatalf("reasons = %v", result.Reasons)
	}
}

func TestAnalyzeBrandImpersonationURL(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	result := engine.Analyze("https://paypal-secure-login-verify.com/signin/?session=12345")

	// Stub base 0.5 plus boosts: suspicious_keywords (4 hits) 0.15,
	// domain_dashes (3) 0.10 = 0.75.
	if math.Abs(result.Score-0.75) > 1e-9 {
		t.Fatalf("score = %v, want 0.75", result.Score)
	}
	if result.Label != LabelPhish {
		t.Fatalf("label = %s", result.Label)
	}
}

func TestAnalyzeBenignURL(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	result := engine.Analyze("https://github.com/user/repo")

	if math.Abs(result.Score-0.5) > 1e-9 {
		t.Fatalf("score = %v, want 0.5 (no boosts over the stub base)", result.Score)
	}
	if result.Label != LabelSafe {
		t.Fatalf("label = %s", result.Label)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0 at the decision midpoint", result.Confidence)
	}
}

func TestLabelBoundary(t *testing.T) {
	// Phish requires score strictly above 0.60. The probe values are exactly
	// representable in float32 so no rounding crosses the boundary.
	below := newEngine(fixedClassifier{phish: 0.59375}).Analyze("https://github.com/user/repo")
	if below.Label != LabelSafe {
		t.Fatalf("score %v labeled %s, want safe below the boundary", below.Score, below.Label)
	}

	above := newEngine(fixedClassifier{phish: 0.625}).Analyze("https://github.com/user/repo")
	if above.Label != LabelPhish {
		t.Fatalf("score %v labeled %s, want phish above the boundary", above.Score, above.Label)
	}
}

func TestScoreCapped(t *testing.T) {
	engine := newEngine(fixedClassifier{phish: 0.99})
	result := engine.Analyze("http://192.168.1.100/login/verify.php?token=x&password=y")
	if result.Score > 0.98 {
		t.Fatalf("score %v exceeds cap", result.Score)
	}
}

func TestBoostsAreMonotonic(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	plain := engine.Analyze("https://example.com/")
	risky := engine.Analyze("http://example.com/")
	if risky.Score <= plain.Score {
		t.Fatalf("dropping HTTPS should not lower the score: %v -> %v", plain.Score, risky.Score)
	}
}

func TestClassifierFailureReturnsSafeDefault(t *testing.T) {
	engine := newEngine(brokenClassifier{})
	result := engine.Analyze("http://192.168.1.100/login/verify.php")

	if result.Label != LabelSafe || result.Score != 0 {
		t.Fatalf("expected safe default, got %+v", result)
	}
	if result.Status != StatusError {
		t.Fatalf("status = %s, want error", result.Status)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != "Error in analysis - assuming safe" {
		t.Fatalf("reasons = %v", result.Reasons)
	}
	if result.Explainability == nil || len(result.Explainability) != 0 {
		t.Fatalf("safe default carries an empty explainability slice, got %v", result.Explainability)
	}
}

func TestHardPredictFallback(t *testing.T) {
	phishy := newEngine(hardOnlyClassifier{class: 1}).Analyze("https://github.com/user/repo")
	if math.Abs(phishy.Score-0.9) > 1e-9 {
		t.Fatalf("hard class 1 base = %v, want 0.9", phishy.Score)
	}
	benign := newEngine(hardOnlyClassifier{class: 0}).Analyze("https://github.com/user/repo")
	if math.Abs(benign.Score-0.1) > 1e-9 {
		t.Fatalf("hard class 0 base = %v, want 0.1", benign.Score)
	}
}

func TestAnalyzeRecordsStageTimings(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	result := engine.Analyze("https://paypal-secure-login-verify.com/signin/?session=12345")

	if result.ExtractDuration <= 0 {
		t.Fatalf("extract duration not recorded: %v", result.ExtractDuration)
	}
	if result.InferenceDuration <= 0 {
		t.Fatalf("inference duration not recorded: %v", result.InferenceDuration)
	}
}

func TestMinimalFeaturesStatus(t *testing.T) {
	engine := newEngine(phishguard.NewStub())
	result := engine.Analyze("http://")
	if result.Status != StatusMinimalFeatures {
		t.Fatalf("status = %s, want minimal_features", result.Status)
	}
	if result.Label != LabelSafe && result.Label != LabelPhish {
		t.Fatalf("minimal path must still produce a verdict, got %+v", result)
	}
}

func TestBoostTiersDoNotStack(t *testing.T) {
	rules := defaultBoostRules()

	var v features.Vector
	v[features.SuspiciousKeywordCount] = 7 // matches both >=5 and >=3 tiers
	v[features.HasHTTPS] = 1               // suppress the no-https rule
	v[features.IsKnownTLD] = 1             // suppress the unknown-tld rule

	total := applyBoosts(rules, &v)
	if math.Abs(total-0.25) > 1e-9 {
		t.Fatalf("boost = %v, want 0.25 from the top tier only", total)
	}
}

func TestBoostTableSpotChecks(t *testing.T) {
	rules := defaultBoostRules()

	cases := []struct {
		name string
		set  func(*features.Vector)
		want float64
	}{
		{"ip host", func(v *features.Vector) { v[features.HasIP] = 1; v[features.HasHTTPS] = 1 }, 0.30},
		{"typosquatting high", func(v *features.Vector) { v[features.TyposquattingScore] = 3; v[features.HasHTTPS] = 1 }, 0.35},
		{"typosquatting low", func(v *features.Vector) { v[features.TyposquattingScore] = 2; v[features.HasHTTPS] = 1 }, 0.25},
		{"shortener", func(v *features.Vector) { v[features.IsURLShortener] = 1; v[features.HasHTTPS] = 1 }, 0.20},
		{"suspicious tld", func(v *features.Vector) { v[features.IsSuspiciousTLD] = 1; v[features.IsKnownTLD] = 1; v[features.HasHTTPS] = 1 }, 0.15},
		{"unknown tld", func(v *features.Vector) { v[features.IsKnownTLD] = 0; v[features.HasHTTPS] = 1 }, 0.10},
		{"entropy mid tier", func(v *features.Vector) { v[features.URLEntropy] = 6.0; v[features.HasHTTPS] = 1 }, 0.10},
		{"nothing", func(v *features.Vector) { v[features.HasHTTPS] = 1; v[features.IsKnownTLD] = 1 }, 0},
	}

	for _, tc := range cases {
		var v features.Vector
		v[features.IsKnownTLD] = 1
		tc.set(&v)
		if got := applyBoosts(rules, &v); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: boost = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestConfidenceRounding(t *testing.T) {
	cases := []struct {
		score float64
		want  float64
	}{
		{0.5, 0},
		{0.75, 0.5},
		{0.98, 0.96},
		{0.0, 1.0},
		{1.0, 1.0},
	}
	for _, tc := range cases {
		if got := confidence(tc.score); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("confidence(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}
