package runtime

import "context"

// ModelHandle is an opaque reference to loaded model weights. The handle is
// owned by the runtime; the loader only passes it through to pipeline
// assembly and never manages its lifecycle.
type ModelHandle interface {
	ModelID() string
}

// TokenizerHandle is an opaque reference to a resolved tokenizer.
type TokenizerHandle interface {
	TokenizerID() string
}

// ConfigHandle is an opaque reference to a resolved architecture config.
type ConfigHandle interface {
	ConfigID() string
}

// WeightTier is an optional capability on a ModelHandle. A bare single-part
// handle may support tying input/output embeddings; composite results do not
// implement it.
type WeightTier interface {
	TieWeights(ctx context.Context) error
}

// GenerationConfig carries the repository's generation hyperparameters as an
// opaque document. It is fetched once per load and passed into pipeline
// assembly unmodified.
type GenerationConfig map[string]any

// TokenizerOptions selects the tokenizer implementation.
type TokenizerOptions struct {
	UseFast bool `json:"use_fast,omitempty"`
}

// CausalLMOptions are passed to the generic causal-LM loader.
type CausalLMOptions struct {
	LowCPUMemUsage  bool   `json:"low_cpu_mem_usage,omitempty"`
	ResumeDownload  bool   `json:"resume_download,omitempty"`
	TrustRemoteCode bool   `json:"trust_remote_code"`
	DeviceMap       string `json:"device_map,omitempty"`
	HalfPrecision   bool   `json:"half_precision,omitempty"`
}

// QuantizedOptions are passed to the quantized (GPTQ) loader.
type QuantizedOptions struct {
	LowCPUMemUsage      bool   `json:"low_cpu_mem_usage,omitempty"`
	ResumeDownload      bool   `json:"resume_download,omitempty"`
	TrustRemoteCode     bool   `json:"trust_remote_code"`
	UseSafetensors      bool   `json:"use_safetensors,omitempty"`
	DeviceMap           string `json:"device_map,omitempty"`
	SafetensorsBasename string `json:"model_basename,omitempty"`
	UseCUDAFP16         bool   `json:"use_cuda_fp16,omitempty"`
	UseTriton           bool   `json:"use_triton,omitempty"`
	Device              string `json:"device,omitempty"`
}

// GenerationParams are the decoding parameters applied when building a
// text-generation pipeline on the runtime side.
type GenerationParams struct {
	MaxLength         int              `json:"max_length"`
	Temperature       float64          `json:"temperature"`
	TopP              float64          `json:"top_p"`
	RepetitionPenalty float64          `json:"repetition_penalty"`
	GenerationConfig  GenerationConfig `json:"generation_config,omitempty"`
}

// Generator is a runtime-side text-generation pipeline bound to a specific
// model/tokenizer pair.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Runtime is the boundary to the external ML runtime that owns tokenization,
// weight loading, quantized inference, and sampling. Every call blocks on the
// calling goroutine; repository resolution and artifact caching are the
// runtime's business.
type Runtime interface {
	// ResolveConfig resolves the architecture config for a repository.
	ResolveConfig(ctx context.Context, repository string) (ConfigHandle, error)
	// LoadTokenizer resolves a tokenizer for a repository.
	LoadTokenizer(ctx context.Context, repository string, opts TokenizerOptions) (TokenizerHandle, error)
	// LoadCausalLM loads full-precision causal-LM weights.
	LoadCausalLM(ctx context.Context, repository string, cfg ConfigHandle, opts CausalLMOptions) (ModelHandle, error)
	// LoadLlama loads model and tokenizer via the Llama-specific loader
	// classes. Device placement is managed by the runtime in this path.
	LoadLlama(ctx context.Context, repository string) (ModelHandle, TokenizerHandle, error)
	// LoadQuantized loads GPTQ-quantized weights.
	LoadQuantized(ctx context.Context, repository string, opts QuantizedOptions) (ModelHandle, error)
	// GenerationConfig fetches the repository's generation config. Not cached.
	GenerationConfig(ctx context.Context, repository string) (GenerationConfig, error)
	// TextGeneration builds a text-generation pipeline from a model/tokenizer
	// pair. The pair is trusted to match; no compatibility check happens here.
	TextGeneration(ctx context.Context, model ModelHandle, tok TokenizerHandle, params GenerationParams) (Generator, error)
}
