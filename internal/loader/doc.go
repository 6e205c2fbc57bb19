// Package loader selects and configures a model-loading strategy and
// assembles the resulting model/tokenizer pair into a text-generation
// pipeline. It is structured into small files by concern:
//
//   - loader.go: Loader type, construction/default resolution, LoadModel dispatch.
//   - modeltype.go: the closed ModelType set and case-insensitive parsing.
//   - full.go: full-precision causal-LM strategy ("huggingface").
//   - llama.go: Llama-specific strategy ("huggingface-llama").
//   - gptq.go: quantized strategy ("gptq"), safetensors basename normalization.
//   - ggml.go: declared-but-unimplemented strategy ("ggml").
//   - errors.go: error kinds and predicates (IsResourceExhausted, ...).
//
// All heavy lifting (tokenization, weight loading, quantized kernels,
// sampling) is delegated to the runtime.Runtime collaborator. The loader is
// synchronous and blocking; callers are expected to load once per process.
//
// Accelerator out-of-memory during the full-model strategy is returned as a
// distinguished ResourceExhausted error. The decision to terminate the
// process lives at the cmd boundary, not here, so the strategy stays
// testable.
package loader
