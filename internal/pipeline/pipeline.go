// Package pipeline assembles a loaded model/tokenizer pair into the callable
// LocalLLM artifact returned to callers, decoupling them from which concrete
// runtime produced it.
package pipeline

import (
	"context"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"localgptd/internal/runtime"
)

// Fixed decoding parameters applied to every assembled pipeline.
const (
	MaxLength         = 512
	Temperature       = 0.0
	TopP              = 0.95
	RepetitionPenalty = 1.15
)

// promptEncoding is the BPE used for best-effort prompt token accounting.
const promptEncoding = "cl100k_base"

// LocalLLM is the capability consumed by downstream collaborators: a prompt
// in, generated text out, honoring the fixed decoding parameters.
type LocalLLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline wraps a runtime-side text-generation pipeline. Create once per
// load; there is no teardown protocol, discarding it is enough.
type Pipeline struct {
	gen runtime.Generator
	enc *tiktoken.Tiktoken
	log zerolog.Logger
}

// Assemble builds the text-generation pipeline for a model/tokenizer pair.
// Pure glue: no retries, no handle compatibility validation; the upstream
// strategy is trusted to have produced a matching pair.
func Assemble(ctx context.Context, rt runtime.Runtime, model runtime.ModelHandle, tok runtime.TokenizerHandle, genCfg runtime.GenerationConfig, log zerolog.Logger) (*Pipeline, error) {
	gen, err := rt.TextGeneration(ctx, model, tok, runtime.GenerationParams{
		MaxLength:         MaxLength,
		Temperature:       Temperature,
		TopP:              TopP,
		RepetitionPenalty: RepetitionPenalty,
		GenerationConfig:  genCfg,
	})
	if err != nil {
		return nil, err
	}

	// Token accounting is best-effort: the encoding may be unavailable
	// offline, generation must not depend on it.
	enc, err := tiktoken.GetEncoding(promptEncoding)
	if err != nil {
		log.Debug().Err(err).Str("encoding", promptEncoding).Msg("prompt token accounting disabled")
		enc = nil
	}

	return &Pipeline{gen: gen, enc: enc, log: log}, nil
}

// Generate produces a completion for prompt through the underlying runtime
// pipeline.
func (p *Pipeline) Generate(ctx context.Context, prompt string) (string, error) {
	if n := p.PromptTokens(prompt); n > 0 {
		p.log.Debug().Int("prompt_tokens", n).Msg("generate")
	}
	return p.gen.Generate(ctx, prompt)
}

// PromptTokens returns the BPE token count of prompt, or 0 when accounting
// is disabled.
func (p *Pipeline) PromptTokens(prompt string) int {
	if p.enc == nil {
		return 0
	}
	return len(p.enc.Encode(prompt, nil, nil))
}

var _ LocalLLM = (*Pipeline)(nil)
