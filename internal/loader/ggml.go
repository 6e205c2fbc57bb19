package loader

import (
	"context"

	"localgptd/internal/runtime"
)

// loadGGML is declared but unimplemented. It fails with a NotImplemented
// kind so callers can tell an unbuilt feature apart from an unrecognized
// configuration value. No loading is attempted.
func (l *Loader) loadGGML(ctx context.Context) (runtime.ModelHandle, runtime.TokenizerHandle, error) {
	// TODO: 4-, 5-, and 8-bit quant support; would supersede the gptq path.
	return nil, nil, notImplementedError{what: "GGML"}
}
