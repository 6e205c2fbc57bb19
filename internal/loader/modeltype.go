package loader

import "strings"

// ModelType identifies a loading strategy. The set is closed; parsing is the
// single place an unrecognized value can be observed.
type ModelType string

const (
	// TypeHuggingFace loads full-precision weights via the generic causal-LM loader.
	TypeHuggingFace ModelType = "huggingface"
	// TypeHuggingFaceLlama loads via the Llama-specific loader classes.
	TypeHuggingFaceLlama ModelType = "huggingface-llama"
	// TypeGPTQ loads GPTQ-quantized weights.
	TypeGPTQ ModelType = "gptq"
	// TypeGGML is recognized but not implemented yet.
	TypeGGML ModelType = "ggml"
)

// supportedModelTypes is the enumeration used in error messages, in the order
// callers see it documented.
const supportedModelTypes = "huggingface, huggingface-llama, gptq, ggml"

// ParseModelType parses a model-type tag case-insensitively.
func ParseModelType(s string) (ModelType, error) {
	switch t := ModelType(strings.ToLower(s)); t {
	case TypeHuggingFace, TypeHuggingFaceLlama, TypeGPTQ, TypeGGML:
		return t, nil
	default:
		return "", errUnsupportedConfiguration(s)
	}
}
