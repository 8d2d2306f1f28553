package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/layoutkit/internal/monitoring"
	"github.com/dudu/layoutkit/internal/tensor"
)

var (
	refs   int
	owned  bool
	initMu sync.Mutex
)

// Acquire sets up the process-wide ONNX Runtime environment on first use and
// counts the caller as a user of it. Every successful Acquire must be paired
// with a Release.
func Acquire(libPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if refs == 0 && !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime from %s: %w", libPath, err)
		}
		owned = true
		monitoring.Logf("onnxruntime: environment initialized from %s", libPath)
	}

	refs++
	return nil
}

// Release drops one reference and tears the environment down when the last
// user goes away. An environment initialised by someone else is left alone.
func Release() error {
	initMu.Lock()
	defer initMu.Unlock()

	if refs == 0 {
		return nil
	}
	refs--
	if refs > 0 || !owned {
		return nil
	}

	owned = false
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy ONNX Runtime environment: %w", err)
	}
	return nil
}

// ModelFormat distinguishes plain ONNX graphs from pre-optimised ORT files
type ModelFormat int

const (
	FormatONNX ModelFormat = iota
	FormatORT
)

func (f ModelFormat) String() string {
	if f == FormatORT {
		return "ort"
	}
	return "onnx"
}

// Session wraps an ONNX Runtime inference session with its resolved I/O names
type Session struct {
	session     *ort.DynamicAdvancedSession
	modelPath   string
	inputName   string
	outputNames []string
}

// NewSession loads a model, resolves its first declared input and all of its
// outputs, and creates a session. ORT-format models are loaded with graph
// optimisation disabled since they were optimised offline.
func NewSession(modelPath string, format ModelFormat) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info for %s: %w", modelPath, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs", modelPath)
	}

	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}

	options, err := newSessionOptions(format)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	monitoring.Logf("onnxruntime: loaded %s (%s, input %q, %d outputs)", modelPath, format, inputs[0].Name, len(outputNames))

	return &Session{
		session:     session,
		modelPath:   modelPath,
		inputName:   inputs[0].Name,
		outputNames: outputNames,
	}, nil
}

func newSessionOptions(format ModelFormat) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	steps := []error{
		options.SetGraphOptimizationLevel(optimizationLevel(format)),
		options.SetExecutionMode(ort.ExecutionModeSequential),
		options.SetIntraOpNumThreads(0),
		options.SetInterOpNumThreads(1),
	}
	for _, err := range steps {
		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to configure session options: %w", err)
		}
	}
	return options, nil
}

// optimizationLevel disables graph rewrites for ORT files, which were
// optimised when they were converted.
func optimizationLevel(format ModelFormat) ort.GraphOptimizationLevel {
	if format == FormatORT {
		return ort.GraphOptimizationLevelDisableAll
	}
	return ort.GraphOptimizationLevelEnableAll
}

// InputName returns the model input the tensor is bound to
func (s *Session) InputName() string {
	return s.inputName
}

// OutputNames returns the model outputs in declaration order
func (s *Session) OutputNames() []string {
	return s.outputNames
}

// Run wraps data (no copy) in a tensor of the given shape, runs the session,
// and copies every float32 output back into Go memory. Outputs of other
// element types are skipped.
func (s *Session) Run(data []float32, shape []int64) ([]tensor.Output, error) {
	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	// nil entries are allocated by onnxruntime and must be destroyed here
	outputs := make([]ort.Value, len(s.outputNames))
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	result := make([]tensor.Output, 0, len(outputs))
	for i, v := range outputs {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			continue
		}
		result = append(result, tensor.Output{
			Name:  s.outputNames[i],
			Shape: append([]int64(nil), t.GetShape()...),
			Data:  append([]float32(nil), t.GetData()...),
		})
	}
	return result, nil
}

// Destroy releases session resources
func (s *Session) Destroy() error {
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		return err
	}
	return nil
}
