package layout

import (
	"fmt"
	"strings"
)

// Runtime selects the inference engine backing a Process call
type Runtime string

const (
	// RuntimeONNX runs the ONNX model through ONNX Runtime with full graph optimisation.
	RuntimeONNX Runtime = "onnx"
	// RuntimeORT runs a pre-optimised ORT-format model through ONNX Runtime.
	RuntimeORT Runtime = "ort"
	// RuntimeOpenVINO runs the OpenVINO IR (xml + bin) model.
	RuntimeOpenVINO Runtime = "openvino"
)

// Runtimes lists every supported runtime in a stable order.
var Runtimes = []Runtime{RuntimeONNX, RuntimeORT, RuntimeOpenVINO}

// Valid reports whether r is one of the known runtimes.
func (r Runtime) Valid() bool {
	switch r {
	case RuntimeONNX, RuntimeORT, RuntimeOpenVINO:
		return true
	}
	return false
}

func (r Runtime) String() string {
	return string(r)
}

// ParseRuntime maps a user supplied name to a Runtime. "onnxruntime" is
// accepted as an older spelling of "onnx".
func ParseRuntime(s string) (Runtime, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "onnxruntime" {
		return RuntimeONNX, nil
	}
	r := Runtime(name)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRuntime, s)
	}
	return r, nil
}

// Language is the document language a result is tagged with
type Language int

const (
	English Language = iota
	French
	German
	Italian
	Spanish
	Portuguese
)

var languageNames = map[Language]string{
	English:    "english",
	French:     "french",
	German:     "german",
	Italian:    "italian",
	Spanish:    "spanish",
	Portuguese: "portuguese",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("language(%d)", int(l))
}

// ParseLanguage accepts a language name or its two letter ISO 639-1 code.
func ParseLanguage(s string) (Language, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "en":
		return English, nil
	case "fr":
		return French, nil
	case "de":
		return German, nil
	case "it":
		return Italian, nil
	case "es":
		return Spanish, nil
	case "pt":
		return Portuguese, nil
	}
	for l, n := range languageNames {
		if n == name {
			return l, nil
		}
	}
	return English, fmt.Errorf("unknown document language %q", s)
}

// MarshalText encodes the language by name.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a language name or code.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := ParseLanguage(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
