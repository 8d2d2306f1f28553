package config

import "github.com/dudu/layoutkit/internal/layout"

// Overrides are command line settings layered over Options loaded from a
// file or the bundled models. Blank paths and nil pointers leave the
// corresponding field alone.
type Overrides struct {
	ONNXModel      string
	ORTModel       string
	OpenVINOXML    string
	OpenVINOBin    string
	RuntimeLibrary string

	Language       *layout.Language
	ScoreThreshold *float32
	ValidateModels *bool
}

// Empty reports whether no model path is overridden
func (ov Overrides) Empty() bool {
	return ov.ONNXModel == "" && ov.ORTModel == "" && ov.OpenVINOXML == "" && ov.OpenVINOBin == ""
}

// Apply writes the overrides into o. A weights path without an xml path is
// paired with the xml already configured; an xml path alone gets its weights
// path inferred.
func (ov Overrides) Apply(o *Options) error {
	if ov.ONNXModel != "" {
		o.ONNXModelPath = ov.ONNXModel
	}
	if ov.ORTModel != "" {
		o.ORTModelPath = ov.ORTModel
	}
	if ov.OpenVINOXML != "" || ov.OpenVINOBin != "" {
		xml := ov.OpenVINOXML
		if xml == "" {
			xml = o.OpenVINO.ModelXMLPath
		}
		ir, err := NewOpenVINOOptions(xml, ov.OpenVINOBin)
		if err != nil {
			return err
		}
		o.OpenVINO = ir
	}
	if ov.RuntimeLibrary != "" {
		o.RuntimeLibraryPath = ov.RuntimeLibrary
	}
	if ov.Language != nil {
		o.DefaultLanguage = *ov.Language
	}
	if ov.ScoreThreshold != nil {
		o.ScoreThreshold = *ov.ScoreThreshold
	}
	if ov.ValidateModels != nil {
		o.ValidateModelPaths = *ov.ValidateModels
	}
	return nil
}
