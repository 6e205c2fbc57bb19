package loader

import (
	"context"
	"strings"

	"localgptd/internal/runtime"
)

// loadGPTQ loads quantized weights. Supports repositories carrying GPTQ
// safetensors variants; callers may pass either the weights basename or the
// full filename.
func (l *Loader) loadGPTQ(ctx context.Context) (runtime.ModelHandle, runtime.TokenizerHandle, error) {
	l.log.Info().Msg("using quantized loader for GPTQ models")
	l.log.Warn().Msg("GGML models may supersede GPTQ models in future releases")

	// Tolerate a full filename: strip exactly one trailing ".safetensors".
	// This is the one documented in-place normalization of the config.
	if strings.HasSuffix(l.cfg.ModelSafetensors, ".safetensors") {
		parts := strings.Split(l.cfg.ModelSafetensors, ".")
		l.cfg.ModelSafetensors = strings.Join(parts[:len(parts)-1], ".")
		l.log.Info().Str("basename", l.cfg.ModelSafetensors).Msg("stripped safetensors suffix")
	}

	tok, err := l.rt.LoadTokenizer(ctx, l.cfg.ModelRepository, runtime.TokenizerOptions{UseFast: true})
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("tokenizer loaded")

	opts := runtime.QuantizedOptions{
		LowCPUMemUsage:      true,
		ResumeDownload:      true,
		TrustRemoteCode:     false,
		UseSafetensors:      true,
		DeviceMap:           "auto",
		SafetensorsBasename: l.cfg.ModelSafetensors,
	}
	if l.cfg.DeviceType != "cpu" {
		opts.UseCUDAFP16 = true
		opts.UseTriton = l.cfg.UseTriton
		// Single-device placement, index 0 hardcoded.
		opts.Device = l.cfg.DeviceType + ":0"
	}

	model, err := l.rt.LoadQuantized(ctx, l.cfg.ModelRepository, opts)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info().Str("repository", l.cfg.ModelRepository).Msg("model loaded")
	return model, tok, nil
}
