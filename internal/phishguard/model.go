package phishguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/linklens-ai/linklens/internal/features"
)

// ONNXModel wraps an onnxruntime session around the exported classifier.
// The bundle is produced by the training pipeline with skl2onnx, which names
// the input "float_input" and emits a "probabilities" output when ZipMap is
// disabled.
type ONNXModel struct {
	session *ort.AdvancedSession

	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadONNXModel initializes the runtime environment (once per process) and a
// session over bundleDir/phish_model.onnx.
func LoadONNXModel(bundleDir string) (*ONNXModel, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "phish_model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(features.Count)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"float_input"},
		[]string{"probabilities"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXModel{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// PredictProba runs one inference. The session tensors are reused, so calls
// are serialized with a mutex; the model itself is stateless between runs.
func (m *ONNXModel) PredictProba(vec []float32) ([2]float32, error) {
	if m == nil || m.session == nil {
		return [2]float32{}, errors.New("onnx model not initialized")
	}
	if len(vec) != features.Count {
		return [2]float32{}, fmt.Errorf("feature vector has %d slots, schema requires %d", len(vec), features.Count)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.input.GetData(), vec)
	if err := m.session.Run(); err != nil {
		return [2]float32{}, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.output.GetData()
	if len(raw) < 2 {
		return [2]float32{}, fmt.Errorf("probabilities output has %d values, want 2", len(raw))
	}
	return [2]float32{raw[0], raw[1]}, nil
}

// Predict returns the argmax class of PredictProba.
func (m *ONNXModel) Predict(vec []float32) (int, error) {
	proba, err := m.PredictProba(vec)
	if err != nil {
		return 0, err
	}
	if proba[1] > proba[0] {
		return 1, nil
	}
	return 0, nil
}

// Destroy releases the session and tensors.
func (m *ONNXModel) Destroy() {
	if m == nil {
		return
	}
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. An explicit ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common
// names and locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
