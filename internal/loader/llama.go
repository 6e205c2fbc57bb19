package loader

import (
	"context"

	"localgptd/internal/runtime"
)

// loadHuggingFaceLlama loads tokenizer and model via the Llama-specific
// loader classes. No device or precision options apply here; the
// architecture-specific loader manages its own placement. Out-of-memory is
// not intercepted in this path (see the package doc for the asymmetry).
func (l *Loader) loadHuggingFaceLlama(ctx context.Context) (runtime.ModelHandle, runtime.TokenizerHandle, error) {
	l.log.Info().Msg("using Llama-specific loader")

	model, tok, err := l.rt.LoadLlama(ctx, l.cfg.ModelRepository)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("model and tokenizer loaded")
	return model, tok, nil
}
