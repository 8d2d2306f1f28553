// Package openvino binds the OpenVINO C API for running IR models. The native
// binding is compiled only with the openvino build tag; without it every
// constructor returns ErrUnavailable.
package openvino

import "errors"

// DefaultDevice is the OpenVINO device layout models are compiled for
const DefaultDevice = "CPU"

var ErrUnavailable = errors.New("openvino: not compiled in (build with -tags openvino)")
