// Package scoring combines the lexical feature extractor, the trained
// classifier, and the heuristic boost table into one verdict per URL.
package scoring

import (
	"math"
	"time"

	"github.com/linklens-ai/linklens/internal/explain"
	"github.com/linklens-ai/linklens/internal/features"
	"github.com/linklens-ai/linklens/internal/phishguard"
	"github.com/linklens-ai/linklens/internal/redact"
)

const (
	// scoreCap keeps the final score strictly below certainty.
	scoreCap = 0.98
	// phishThreshold is the label decision boundary: phish iff score > 0.60.
	phishThreshold = 0.60

	LabelPhish = "phish"
	LabelSafe  = "safe"
)

// Status tags how a result was produced, so fallback paths are visible to
// callers instead of silently blending into normal results.
type Status string

const (
	// StatusScored: full extraction and classifier inference succeeded.
	StatusScored Status = "scored"
	// StatusMinimalFeatures: URL decomposition failed; scored over the
	// reduced fallback vector.
	StatusMinimalFeatures Status = "minimal_features"
	// StatusError: scoring itself failed; this is the safe default result.
	StatusError Status = "error"
)

// Result is the complete scan verdict returned to callers and serialized on
// the wire.
type Result struct {
	Label          string           `json:"label"`
	Score          float64          `json:"score"`
	Reasons        []string         `json:"reasons"`
	Explainability []explain.Impact `json:"explainability"`
	Confidence     float64          `json:"confidence"`
	Status         Status           `json:"status"`

	// Stage timings feed the duration histograms; they are not part of the
	// wire contract.
	ExtractDuration   time.Duration `json:"-"`
	InferenceDuration time.Duration `json:"-"`
}

// Engine wires the pipeline together. All fields are read-only after New, so
// one engine serves arbitrarily many concurrent requests.
type Engine struct {
	extractor  *features.Extractor
	classifier phishguard.Classifier
	explainer  *explain.Generator
	rules      []boostRule
}

// NewEngine builds an engine over an extractor, a classifier, and an
// explanation generator.
func NewEngine(extractor *features.Extractor, classifier phishguard.Classifier, explainer *explain.Generator) *Engine {
	return &Engine{
		extractor:  extractor,
		classifier: classifier,
		explainer:  explainer,
		rules:      defaultBoostRules(),
	}
}

// Analyze scores one URL. It never returns an error and never panics across
// this boundary: any failure inside the pipeline degrades to the safe
// default result.
func (e *Engine) Analyze(url string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			redact.Logf("scoring: recovered from panic: %v", r)
			result = safeDefault()
		}
	}()

	extractStart := time.Now()
	vec, outcome := e.extractor.Extract(url)
	extractDur := time.Since(extractStart)

	inferStart := time.Now()
	base, err := e.baseProbability(&vec)
	inferDur := time.Since(inferStart)
	if err != nil {
		redact.Logf("scoring: classifier unavailable: %v", err)
		return safeDefault()
	}

	score := math.Min(base+applyBoosts(e.rules, &vec), scoreCap)

	label := LabelSafe
	if score > phishThreshold {
		label = LabelPhish
	}

	status := StatusScored
	if outcome == features.OutcomeMinimal {
		status = StatusMinimalFeatures
	}

	return Result{
		Label:             label,
		Score:             score,
		Reasons:           e.explainer.Reasons(&vec, score),
		Explainability:    e.explainer.Impacts(&vec),
		Confidence:        confidence(score),
		Status:            status,
		ExtractDuration:   extractDur,
		InferenceDuration: inferDur,
	}
}

// Extract exposes the engine's extractor, mainly for diagnostics endpoints
// and benchmarks.
func (e *Engine) Extract(url string) (features.Vector, features.Outcome) {
	return e.extractor.Extract(url)
}

// baseProbability asks the classifier for the phish-class probability,
// falling back to a hard prediction (0.9 phish / 0.1 benign) for models that
// only expose predict.
func (e *Engine) baseProbability(v *features.Vector) (float64, error) {
	vec := v.Floats32()

	proba, err := e.classifier.PredictProba(vec)
	if err == nil {
		return float64(proba[1]), nil
	}

	hard, ok := e.classifier.(phishguard.HardClassifier)
	if !ok {
		return 0, err
	}
	class, hardErr := hard.Predict(vec)
	if hardErr != nil {
		return 0, err
	}
	if class == 1 {
		return 0.9, nil
	}
	return 0.1, nil
}

// confidence is the distance from the decision boundary scaled to [0, 1] and
// rounded to three decimals; it is not a statistical confidence interval.
func confidence(score float64) float64 {
	c := math.Min(math.Abs(score-0.5)*2, 1.0)
	return math.Round(c*1000) / 1000
}

func safeDefault() Result {
	return Result{
		Label:          LabelSafe,
		Score:          0.0,
		Reasons:        []string{"Error in analysis - assuming safe"},
		Explainability: []explain.Impact{},
		Confidence:     0.0,
		Status:         StatusError,
	}
}
