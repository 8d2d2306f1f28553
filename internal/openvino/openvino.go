//go:build openvino

package openvino

/*
#cgo LDFLAGS: -lopenvino_c
#include <openvino/c/openvino.h>
#include <stdlib.h>

// ov_core_compile_model is variadic over property pairs, which cgo cannot call.
static ov_status_e lk_compile_model(const ov_core_t* core, const ov_model_t* model,
		const char* device, ov_compiled_model_t** compiled) {
	return ov_core_compile_model(core, model, device, 0, compiled);
}
*/
import "C"
import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/dudu/layoutkit/internal/monitoring"
	"github.com/dudu/layoutkit/internal/tensor"
)

// Available reports whether the binary was built with OpenVINO support
const Available = true

func statusError(op string, status C.ov_status_e) error {
	return fmt.Errorf("%s failed: %s (status %d)", op, C.GoString(C.ov_get_error_info(status)), int(status))
}

// Session is a compiled OpenVINO IR model with one infer request. It is not
// safe for concurrent Infer calls.
type Session struct {
	mu       sync.Mutex
	core     *C.ov_core_t
	model    *C.ov_model_t
	compiled *C.ov_compiled_model_t
	request  *C.ov_infer_request_t

	inputName   string
	outputNames []string
}

// NewSession reads the IR pair (xml graph, bin weights) and compiles it for device
func NewSession(xmlPath, binPath, device string) (*Session, error) {
	s := &Session{}
	ok := false
	defer func() {
		if !ok {
			s.Destroy()
		}
	}()

	if status := C.ov_core_create(&s.core); status != C.OK {
		return nil, statusError("ov_core_create", status)
	}

	cXML := C.CString(xmlPath)
	defer C.free(unsafe.Pointer(cXML))
	cBin := C.CString(binPath)
	defer C.free(unsafe.Pointer(cBin))

	if status := C.ov_core_read_model(s.core, cXML, cBin, &s.model); status != C.OK {
		return nil, fmt.Errorf("failed to read model %s: %w", xmlPath, statusError("ov_core_read_model", status))
	}

	name, err := portName(s.model, true, 0)
	if err != nil {
		return nil, err
	}
	s.inputName = name

	var outputs C.size_t
	if status := C.ov_model_outputs_size(s.model, &outputs); status != C.OK {
		return nil, statusError("ov_model_outputs_size", status)
	}
	for i := 0; i < int(outputs); i++ {
		name, err := portName(s.model, false, i)
		if err != nil {
			return nil, err
		}
		s.outputNames = append(s.outputNames, name)
	}

	cDevice := C.CString(device)
	defer C.free(unsafe.Pointer(cDevice))
	if status := C.lk_compile_model(s.core, s.model, cDevice, &s.compiled); status != C.OK {
		return nil, statusError("ov_core_compile_model", status)
	}
	if status := C.ov_compiled_model_create_infer_request(s.compiled, &s.request); status != C.OK {
		return nil, statusError("ov_compiled_model_create_infer_request", status)
	}

	monitoring.Logf("openvino: compiled %s for %s (input %q, %d outputs)", xmlPath, device, s.inputName, len(s.outputNames))
	ok = true
	return s, nil
}

func portName(model *C.ov_model_t, input bool, index int) (string, error) {
	var port *C.ov_output_const_port_t
	var status C.ov_status_e
	if input {
		status = C.ov_model_const_input_by_index(model, C.size_t(index), &port)
	} else {
		status = C.ov_model_const_output_by_index(model, C.size_t(index), &port)
	}
	if status != C.OK {
		return "", statusError("port lookup", status)
	}
	defer C.ov_output_const_port_free(port)

	var cName *C.char
	if status := C.ov_port_get_any_name(port, &cName); status != C.OK {
		return "", statusError("ov_port_get_any_name", status)
	}
	defer C.ov_free(cName)
	return C.GoString(cName), nil
}

// InputName returns the name of the bound model input
func (s *Session) InputName() string { return s.inputName }

// OutputNames returns the model outputs in declaration order
func (s *Session) OutputNames() []string { return s.outputNames }

// Infer binds data to the model's first input by name with the given shape,
// runs the request synchronously and copies every f32 output into Go memory.
func (s *Session) Infer(data []float32, shape []int64) ([]tensor.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.request == nil {
		return nil, fmt.Errorf("session destroyed")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	// The tensor wraps Go memory for the duration of the request
	var pinner runtime.Pinner
	defer pinner.Unpin()
	pinner.Pin(&data[0])

	dims := make([]C.int64_t, len(shape))
	for i, d := range shape {
		dims[i] = C.int64_t(d)
	}
	var cShape C.ov_shape_t
	if status := C.ov_shape_create(C.int64_t(len(dims)), &dims[0], &cShape); status != C.OK {
		return nil, statusError("ov_shape_create", status)
	}
	defer C.ov_shape_free(&cShape)

	var input *C.ov_tensor_t
	if status := C.ov_tensor_create_from_host_ptr(C.F32, cShape, unsafe.Pointer(&data[0]), &input); status != C.OK {
		return nil, statusError("ov_tensor_create_from_host_ptr", status)
	}
	defer C.ov_tensor_free(input)

	cName := C.CString(s.inputName)
	defer C.free(unsafe.Pointer(cName))
	if status := C.ov_infer_request_set_tensor(s.request, cName, input); status != C.OK {
		return nil, statusError("ov_infer_request_set_tensor", status)
	}
	if status := C.ov_infer_request_infer(s.request); status != C.OK {
		return nil, statusError("ov_infer_request_infer", status)
	}

	result := make([]tensor.Output, 0, len(s.outputNames))
	for i, name := range s.outputNames {
		out, err := s.output(i, name)
		if err != nil {
			return nil, err
		}
		if out != nil {
			result = append(result, *out)
		}
	}
	return result, nil
}

func (s *Session) output(index int, name string) (*tensor.Output, error) {
	var t *C.ov_tensor_t
	if status := C.ov_infer_request_get_output_tensor_by_index(s.request, C.size_t(index), &t); status != C.OK {
		return nil, statusError("ov_infer_request_get_output_tensor", status)
	}
	defer C.ov_tensor_free(t)

	var elemType C.ov_element_type_e
	if status := C.ov_tensor_get_element_type(t, &elemType); status != C.OK {
		return nil, statusError("ov_tensor_get_element_type", status)
	}
	if elemType != C.F32 {
		return nil, nil
	}

	var cShape C.ov_shape_t
	if status := C.ov_tensor_get_shape(t, &cShape); status != C.OK {
		return nil, statusError("ov_tensor_get_shape", status)
	}
	defer C.ov_shape_free(&cShape)

	rank := int(cShape.rank)
	cDims := unsafe.Slice((*C.int64_t)(unsafe.Pointer(cShape.dims)), rank)
	shape := make([]int64, rank)
	for i, d := range cDims {
		shape[i] = int64(d)
	}

	var size C.size_t
	if status := C.ov_tensor_get_size(t, &size); status != C.OK {
		return nil, statusError("ov_tensor_get_size", status)
	}
	var ptr unsafe.Pointer
	if status := C.ov_tensor_data(t, &ptr); status != C.OK {
		return nil, statusError("ov_tensor_data", status)
	}

	data := make([]float32, int(size))
	if size > 0 {
		copy(data, unsafe.Slice((*float32)(ptr), int(size)))
	}
	return &tensor.Output{Name: name, Shape: shape, Data: data}, nil
}

// Destroy frees native objects in reverse order of creation
func (s *Session) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.request != nil {
		C.ov_infer_request_free(s.request)
		s.request = nil
	}
	if s.compiled != nil {
		C.ov_compiled_model_free(s.compiled)
		s.compiled = nil
	}
	if s.model != nil {
		C.ov_model_free(s.model)
		s.model = nil
	}
	if s.core != nil {
		C.ov_core_free(s.core)
		s.core = nil
	}
	return nil
}
