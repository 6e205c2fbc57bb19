package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localgptd/internal/httpapi"
	"localgptd/internal/loader"
	"localgptd/internal/pipeline"
	"localgptd/internal/runtime"
	"localgptd/pkg/types"
)

// fakeRunner emulates the transformers runner sidecar over HTTP, recording
// the pipeline parameters it receives.
type fakeRunner struct {
	mu       sync.Mutex
	params   map[string]any
	requests []string
}

func (f *fakeRunner) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path)
		f.mu.Unlock()
	}
	mux.HandleFunc("/v1/configs", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(map[string]string{"config_id": "c-1"})
	})
	mux.HandleFunc("/v1/tokenizers", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(map[string]string{"tokenizer_id": "t-1"})
	})
	mux.HandleFunc("/v1/models/causal", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(map[string]string{"model_id": "m-1"})
	})
	mux.HandleFunc("/v1/models/m-1/tie-weights", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/generation-config", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_ = json.NewEncoder(w).Encode(map[string]any{"eos_token_id": 2})
	})
	mux.HandleFunc("/v1/pipelines", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		f.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&f.params)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"pipeline_id": "p-1"})
	})
	mux.HandleFunc("/v1/pipelines/p-1/completions", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "completion for: " + in["prompt"]})
	})
	return mux
}

// service adapts the assembled pipeline to the HTTP layer, mirroring main.
type service struct {
	llm   *pipeline.Pipeline
	model types.ModelResponse
}

func (s *service) Generate(ctx context.Context, prompt string) (string, error) {
	return s.llm.Generate(ctx, prompt)
}
func (s *service) PromptTokens(prompt string) int { return s.llm.PromptTokens(prompt) }
func (s *service) Model() types.ModelResponse     { return s.model }
func (s *service) Ready() bool                    { return s.llm != nil }

func TestLoadAndGenerateThroughHTTP(t *testing.T) {
	runner := &fakeRunner{}
	runnerSrv := httptest.NewServer(runner.handler())
	defer runnerSrv.Close()

	rt := runtime.NewTransformersClient(runtime.TransformersClientConfig{BaseURL: runnerSrv.URL})
	ld := loader.New(loader.Config{
		ModelType:       "huggingface",
		DeviceType:      "cpu",
		ModelRepository: "org/test-model",
	}, loader.Defaults{
		DeviceType: "cpu",
		ModelType:  "huggingface",
	}, rt, zerolog.Nop())

	llm, err := ld.LoadModel(context.Background())
	require.NoError(t, err)

	// the pipeline was built with the fixed decoding parameters
	assert.Equal(t, float64(512), runner.params["max_length"])
	assert.Equal(t, float64(0), runner.params["temperature"])
	assert.Equal(t, 0.95, runner.params["top_p"])
	assert.Equal(t, 1.15, runner.params["repetition_penalty"])

	resolved := ld.Config()
	mux := httpapi.NewMux(&service{llm: llm, model: types.ModelResponse{
		DeviceType:      resolved.DeviceType,
		ModelType:       resolved.ModelType,
		ModelRepository: resolved.ModelRepository,
	}})
	api := httptest.NewServer(mux)
	defer api.Close()

	body, _ := json.Marshal(types.GenerateRequest{Prompt: "hello world"})
	resp, err := http.Post(api.URL+"/generate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out types.GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "completion for: hello world", out.Text)

	// full-model path on cpu resolved config, tokenizer, weights, tied
	// weights, fetched generation config, assembled the pipeline
	assert.Contains(t, runner.requests, "/v1/configs")
	assert.Contains(t, runner.requests, "/v1/tokenizers")
	assert.Contains(t, runner.requests, "/v1/models/causal")
	assert.Contains(t, runner.requests, "/v1/models/m-1/tie-weights")
	assert.Contains(t, runner.requests, "/v1/generation-config")

	// /model reflects the resolved configuration
	mresp, err := http.Get(api.URL + "/model")
	require.NoError(t, err)
	defer mresp.Body.Close()
	var m types.ModelResponse
	require.NoError(t, json.NewDecoder(mresp.Body).Decode(&m))
	assert.Equal(t, "org/test-model", m.ModelRepository)
	assert.Equal(t, "huggingface", m.ModelType)
}
