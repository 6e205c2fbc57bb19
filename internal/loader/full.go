package loader

import (
	"context"

	"localgptd/internal/runtime"
)

// loadHuggingFace loads full-precision weights via the generic causal-LM
// loader. Repository-supplied code is never executed (trust_remote_code
// stays false).
func (l *Loader) loadHuggingFace(ctx context.Context) (runtime.ModelHandle, runtime.TokenizerHandle, error) {
	l.log.Info().Msg("using generic causal-LM loader for full models")

	cfg, err := l.rt.ResolveConfig(ctx, l.cfg.ModelRepository)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("configuration resolved")

	tok, err := l.rt.LoadTokenizer(ctx, l.cfg.ModelRepository, runtime.TokenizerOptions{})
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("tokenizer loaded")

	opts := runtime.CausalLMOptions{
		LowCPUMemUsage:  true,
		ResumeDownload:  true,
		TrustRemoteCode: false,
	}
	if l.cfg.DeviceType != "cpu" {
		opts.DeviceMap = l.cfg.DeviceType
		opts.HalfPrecision = true
	}

	model, err := l.rt.LoadCausalLM(ctx, l.cfg.ModelRepository, cfg, opts)
	if err != nil {
		if runtime.IsOutOfMemory(err) {
			l.log.Error().Err(err).Msg("accelerator out of memory while loading the model")
			return nil, nil, resourceExhaustedError{cause: err}
		}
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("model loaded")

	// Single-part handles may support tying input/output embeddings.
	if tier, ok := model.(runtime.WeightTier); ok {
		if err := tier.TieWeights(ctx); err != nil {
			return nil, nil, err
		}
		l.log.Warn().Msg("model weights tied: effectiveness depends on the specific type of model")
	}

	return model, tok, nil
}
