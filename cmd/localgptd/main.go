package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"localgptd/internal/config"
	"localgptd/internal/httpapi"
	"localgptd/internal/loader"
	"localgptd/internal/pipeline"
	"localgptd/internal/runtime"
	"localgptd/pkg/types"
)

// Process-wide defaults for unset loader options. Passed explicitly into the
// loader at startup; nothing reads them after that.
const (
	defaultDeviceType       = "cuda"
	defaultModelType        = "huggingface"
	defaultModelRepository  = "TheBloke/vicuna-7B-1.1-HF"
	defaultModelSafetensors = "model.safetensors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath     string
		addr        string
		runnerURL   string
		logLevel    string
		corsOrigins string
		fileCfg     config.Config
	)
	cfg := config.Config{}

	root := &cobra.Command{
		Use:           "localgptd",
		Short:         "Load a model per configuration and serve text generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(logLevel)

			if cfgPath != "" {
				var err error
				fileCfg, err = config.Load(cfgPath)
				if err != nil {
					log.Error().Err(err).Str("path", cfgPath).Msg("failed to load config file")
					return err
				}
			}
			// Flags override the file; the file overrides built-in defaults.
			merged := mergeConfig(cmd, cfg, fileCfg)
			if addr == "" {
				addr = orElse(fileCfg.Addr, ":8080")
			}
			if runnerURL == "" {
				runnerURL = orElse(fileCfg.RunnerURL, "http://127.0.0.1:8901")
			}

			return run(cmd.Context(), log, merged, addr, runnerURL, corsOrigins)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "Optional config file (.yaml/.json/.toml)")
	root.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults LOCALGPTD_ADDR or :8080)")
	root.Flags().StringVar(&runnerURL, "runner-url", "", "Base URL of the transformers runner sidecar")
	root.Flags().StringVar(&cfg.DeviceType, "device-type", "", "Device to load the model on (cpu, cuda, mps, ...)")
	root.Flags().StringVar(&cfg.ModelType, "model-type", "", "Loading strategy: huggingface, huggingface-llama, gptq, ggml")
	root.Flags().StringVar(&cfg.ModelRepository, "model-repository", "", "Model repository id or local path")
	root.Flags().StringVar(&cfg.ModelSafetensors, "model-safetensors", "", "Weights basename for the quantized loader")
	root.Flags().BoolVar(&cfg.UseTriton, "use-triton", false, "Use triton kernels for quantized inference (non-cpu only)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	root.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")

	if v := os.Getenv("LOCALGPTD_ADDR"); v != "" && addr == "" {
		addr = v
	}

	return root
}

// mergeConfig resolves flag-vs-file precedence for the loader options. A flag
// the user set wins; otherwise the file value is used. Built-in defaults are
// applied later by loader.New.
func mergeConfig(cmd *cobra.Command, flags, file config.Config) config.Config {
	out := file
	if cmd.Flags().Changed("device-type") {
		out.DeviceType = flags.DeviceType
	}
	if cmd.Flags().Changed("model-type") {
		out.ModelType = flags.ModelType
	}
	if cmd.Flags().Changed("model-repository") {
		out.ModelRepository = flags.ModelRepository
	}
	if cmd.Flags().Changed("model-safetensors") {
		out.ModelSafetensors = flags.ModelSafetensors
	}
	if cmd.Flags().Changed("use-triton") {
		out.UseTriton = flags.UseTriton
	}
	return out
}

func orElse(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func run(ctx context.Context, log zerolog.Logger, cfg config.Config, addr, runnerURL, corsOrigins string) error {
	rt := runtime.NewTransformersClient(runtime.TransformersClientConfig{BaseURL: runnerURL})

	ld := loader.New(loader.Config{
		DeviceType:       cfg.DeviceType,
		ModelType:        cfg.ModelType,
		ModelRepository:  cfg.ModelRepository,
		ModelSafetensors: cfg.ModelSafetensors,
		UseTriton:        cfg.UseTriton,
	}, loader.Defaults{
		DeviceType:       defaultDeviceType,
		ModelType:        defaultModelType,
		ModelRepository:  defaultModelRepository,
		ModelSafetensors: defaultModelSafetensors,
	}, rt, log)

	resolved := ld.Config()
	log.Info().
		Str("device_type", resolved.DeviceType).
		Str("model_type", resolved.ModelType).
		Str("repository", resolved.ModelRepository).
		Msg("loading model")

	loadStart := time.Now()
	llm, err := ld.LoadModel(ctx)
	if err != nil {
		// A partially loaded model is unsafe to serve from; this is the one
		// error converted into process termination.
		if loader.IsResourceExhausted(err) {
			log.Error().Err(err).Msg("fatal: accelerator out of memory during model load")
			os.Exit(1)
		}
		log.Error().Err(err).Msg("model load failed")
		return err
	}
	httpapi.ObserveModelLoad(resolved.ModelType, time.Since(loadStart))

	if corsOrigins != "" {
		httpapi.SetCORSOptions(true,
			splitCSV(corsOrigins),
			[]string{http.MethodGet, http.MethodPost},
			[]string{"Content-Type"},
		)
	}
	httpapi.SetLogger(log)

	svc := &service{llm: llm, model: types.ModelResponse{
		DeviceType:       resolved.DeviceType,
		ModelType:        resolved.ModelType,
		ModelRepository:  resolved.ModelRepository,
		ModelSafetensors: resolved.ModelSafetensors,
	}}
	srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(svc)}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("localgptd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return err
	case <-stop:
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// service adapts the assembled pipeline to the HTTP layer.
type service struct {
	llm   *pipeline.Pipeline
	model types.ModelResponse
}

func (s *service) Generate(ctx context.Context, prompt string) (string, error) {
	return s.llm.Generate(ctx, prompt)
}

func (s *service) PromptTokens(prompt string) int { return s.llm.PromptTokens(prompt) }

func (s *service) Model() types.ModelResponse { return s.model }

func (s *service) Ready() bool { return s.llm != nil }
