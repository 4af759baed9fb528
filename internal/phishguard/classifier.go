// Package phishguard loads and runs the trained URL classifier bundle. The
// scoring engine only sees the Classifier interface; whether the probabilities
// come from the ONNX model or the stub is decided once at startup.
package phishguard

import (
	"fmt"

	"github.com/linklens-ai/linklens/internal/features"
)

// Classifier produces [p_benign, p_phish] for one ordered feature vector.
type Classifier interface {
	PredictProba(vec []float32) ([2]float32, error)
}

// HardClassifier is the fallback capability for models that only expose a
// hard class prediction (0 = benign, 1 = phish).
type HardClassifier interface {
	Predict(vec []float32) (int, error)
}

// Stub is the documented no-model fallback: uniform probabilities so the
// heuristic boost layer stays fully exercisable without a trained bundle.
type Stub struct{}

// NewStub returns the stub classifier.
func NewStub() Stub { return Stub{} }

// PredictProba returns exactly [0.5, 0.5] for any well-shaped vector.
func (Stub) PredictProba(vec []float32) ([2]float32, error) {
	if len(vec) != features.Count {
		return [2]float32{}, fmt.Errorf("feature vector has %d slots, schema requires %d", len(vec), features.Count)
	}
	return [2]float32{0.5, 0.5}, nil
}

// Predict reports the argmax of PredictProba, which for the stub is always
// the benign class.
func (s Stub) Predict(vec []float32) (int, error) {
	if _, err := s.PredictProba(vec); err != nil {
		return 0, err
	}
	return 0, nil
}
