package loader

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"localgptd/internal/pipeline"
	"localgptd/internal/runtime"
)

// Config holds the five loader options as provided by the caller. Empty
// strings mean "unset" and are replaced from Defaults at construction.
type Config struct {
	DeviceType       string
	ModelType        string
	ModelRepository  string
	ModelSafetensors string
	UseTriton        bool
}

// Defaults are the process-wide fallbacks for unset Config fields. They are
// built once at startup and passed in explicitly; the loader keeps no hidden
// globals.
type Defaults struct {
	DeviceType       string
	ModelType        string
	ModelRepository  string
	ModelSafetensors string
}

// Loader resolves a declarative model specification into a callable
// text-generation pipeline. Construct with New; fields are read-only after
// that, except the documented safetensors-basename normalization inside the
// gptq strategy.
type Loader struct {
	cfg Config
	rt  runtime.Runtime
	log zerolog.Logger
}

// New applies defaults and case normalization and stores the runtime
// reference. No repository or basename validation happens here; invalid
// identifiers surface when a strategy tries to resolve them.
func New(cfg Config, d Defaults, rt runtime.Runtime, log zerolog.Logger) *Loader {
	resolved := Config{
		DeviceType:       strings.ToLower(orDefault(cfg.DeviceType, d.DeviceType)),
		ModelType:        strings.ToLower(orDefault(cfg.ModelType, d.ModelType)),
		ModelRepository:  orDefault(cfg.ModelRepository, d.ModelRepository),
		ModelSafetensors: orDefault(cfg.ModelSafetensors, d.ModelSafetensors),
		UseTriton:        cfg.UseTriton,
	}
	return &Loader{cfg: resolved, rt: rt, log: log}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Config returns the resolved configuration.
func (l *Loader) Config() Config { return l.cfg }

// LoadModel runs the strategy selected by the model type, fetches the
// repository's generation config, and assembles the pipeline. Blocking: it
// performs network I/O and heavy initialization on the calling goroutine.
func (l *Loader) LoadModel(ctx context.Context) (*pipeline.Pipeline, error) {
	mt, err := ParseModelType(l.cfg.ModelType)
	if err != nil {
		return nil, err
	}

	var (
		model runtime.ModelHandle
		tok   runtime.TokenizerHandle
	)
	switch mt {
	case TypeHuggingFace:
		model, tok, err = l.loadHuggingFace(ctx)
	case TypeHuggingFaceLlama:
		model, tok, err = l.loadHuggingFaceLlama(ctx)
	case TypeGPTQ:
		model, tok, err = l.loadGPTQ(ctx)
	case TypeGGML:
		model, tok, err = l.loadGGML(ctx)
	}
	if err != nil {
		return nil, err
	}

	// Fetched fresh on every load; the runtime owns any caching.
	genCfg, err := l.rt.GenerationConfig(ctx, l.cfg.ModelRepository)
	if err != nil {
		return nil, err
	}

	llm, err := pipeline.Assemble(ctx, l.rt, model, tok, genCfg, l.log)
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("model_type", string(mt)).Str("repository", l.cfg.ModelRepository).Msg("local LLM loaded")
	return llm, nil
}
