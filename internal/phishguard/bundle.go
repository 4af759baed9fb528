package phishguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/linklens-ai/linklens/internal/features"
)

// ErrBundleNotFound is returned when the bundle directory is missing or lacks
// the required files. Callers fall back to the stub bundle on this error.
var ErrBundleNotFound = errors.New("model bundle not found")

// Bundle is the loaded model artifact set: classifier plus the metadata the
// explanation layer consumes. Read-only after Load.
type Bundle struct {
	Version    string
	Model      Classifier
	Baselines  map[string]float64
	Importance map[string]float64

	onnx *ONNXModel
}

// Load reads a bundle directory exported by the training pipeline:
//
//	manifest.json            version + ordered feature_names
//	phish_model.onnx         skl2onnx classifier export
//	baseline_means.yaml      per-feature benign-population means
//	feature_importance.yaml  per-feature model importances
//
// The manifest's feature_names must match the compiled schema exactly,
// including order; a mismatch is a load error, not a silent default.
func Load(dir string) (*Bundle, error) {
	if !dirLooksValid(dir) {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, dir)
	}

	manifestBytes, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	// The manifest is written by the Python side and carries extra fields
	// that vary between pipeline versions, so it is read tolerantly.
	manifest := gjson.ParseBytes(manifestBytes)
	version := manifest.Get("version").String()

	wantNames := features.Names()
	gotNames := manifest.Get("feature_names").Array()
	if len(gotNames) != len(wantNames) {
		return nil, fmt.Errorf("manifest lists %d features, schema has %d", len(gotNames), len(wantNames))
	}
	for i, name := range gotNames {
		if name.String() != wantNames[i] {
			return nil, fmt.Errorf("feature order mismatch at slot %d: manifest %q, schema %q", i, name.String(), wantNames[i])
		}
	}

	baselines, err := loadFeatureMap(filepath.Join(dir, "baseline_means.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load baseline means: %w", err)
	}
	importance, err := loadFeatureMap(filepath.Join(dir, "feature_importance.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load feature importance: %w", err)
	}

	model, err := LoadONNXModel(dir)
	if err != nil {
		return nil, fmt.Errorf("load onnx model: %w", err)
	}

	return &Bundle{
		Version:    version,
		Model:      model,
		Baselines:  baselines,
		Importance: importance,
		onnx:       model,
	}, nil
}

// StubBundle is the documented no-model configuration: uniform probabilities,
// 0.5 baselines, and uniform importance, so every downstream component keeps
// working without a trained artifact.
func StubBundle() *Bundle {
	baselines := make(map[string]float64, features.Count)
	importance := make(map[string]float64, features.Count)
	for _, name := range features.Names() {
		baselines[name] = 0.5
		importance[name] = 1.0
	}
	return &Bundle{
		Version:    "stub",
		Model:      NewStub(),
		Baselines:  baselines,
		Importance: importance,
	}
}

// Loaded reports whether a real (non-stub) model backs this bundle.
func (b *Bundle) Loaded() bool {
	return b != nil && b.onnx != nil
}

// Close releases the ONNX session, if any.
func (b *Bundle) Close() {
	if b == nil {
		return
	}
	b.onnx.Destroy()
	b.onnx = nil
}

func dirLooksValid(dir string) bool {
	if dir == "" {
		return false
	}
	required := []string{
		"manifest.json",
		"phish_model.onnx",
		"baseline_means.yaml",
		"feature_importance.yaml",
	}
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func loadFeatureMap(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
