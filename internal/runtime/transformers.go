package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TransformersClient implements Runtime by talking HTTP to a transformers
// runner sidecar: the Python process that owns torch, transformers and
// auto-gptq. Handles returned by this client are ids of objects held by the
// runner; the runner's allocator keeps ownership of device memory.
type TransformersClient struct {
	baseURL        string
	reqTimeout     time.Duration
	connectTimeout time.Duration
	httpClient     *http.Client
}

// TransformersClientConfig tunes the runner client. Zero values get defaults.
type TransformersClientConfig struct {
	BaseURL        string
	ReqTimeout     time.Duration
	ConnectTimeout time.Duration
}

const (
	defaultReqTimeout     = 30 * time.Minute // weight download + load can be slow
	defaultConnectTimeout = 5 * time.Second
)

// NewTransformersClient constructs a runner-backed Runtime.
func NewTransformersClient(cfg TransformersClientConfig) *TransformersClient {
	if cfg.ReqTimeout <= 0 {
		cfg.ReqTimeout = defaultReqTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	// Client timeout stays 0: per-request deadlines come from contexts so a
	// long weight download is not cut off mid-transfer.
	return &TransformersClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		reqTimeout:     cfg.ReqTimeout,
		connectTimeout: cfg.ConnectTimeout,
		httpClient:     &http.Client{Transport: tr, Timeout: 0},
	}
}

// runnerError is the runner's JSON error payload. Kind is machine-readable.
type runnerError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

const (
	kindOutOfMemory = "out_of_memory"
	kindUnavailable = "unavailable"
)

func (c *TransformersClient) post(ctx context.Context, path string, in, out any) error {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *TransformersClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *TransformersClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrUnavailable(fmt.Sprintf("runner unreachable: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode runner response: %w", err)
	}
	return nil
}

func (c *TransformersClient) decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var re runnerError
	if err := json.Unmarshal(b, &re); err == nil && re.Error != "" {
		switch re.Kind {
		case kindOutOfMemory:
			return ErrOutOfMemory(re.Error)
		case kindUnavailable:
			return ErrUnavailable(re.Error)
		}
		return fmt.Errorf("runner: %s", re.Error)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return ErrUnavailable("runner unavailable")
	}
	return fmt.Errorf("runner: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

// Opaque handles returned by the runner.

type remoteConfig struct{ ID string }

func (h remoteConfig) ConfigID() string { return h.ID }

type remoteTokenizer struct{ ID string }

func (h remoteTokenizer) TokenizerID() string { return h.ID }

// remoteModel supports weight tying; the runner decides per architecture.
type remoteModel struct {
	ID string
	c  *TransformersClient
}

func (h remoteModel) ModelID() string { return h.ID }

func (h remoteModel) TieWeights(ctx context.Context) error {
	return h.c.post(ctx, "/v1/models/"+url.PathEscape(h.ID)+"/tie-weights", nil, nil)
}

// remoteCompositeModel is returned when the runner reports a multi-part load
// result (model plus loading info). It does not support weight tying.
type remoteCompositeModel struct{ ID string }

func (h remoteCompositeModel) ModelID() string { return h.ID }

func (c *TransformersClient) ResolveConfig(ctx context.Context, repository string) (ConfigHandle, error) {
	var out struct {
		ConfigID string `json:"config_id"`
	}
	in := map[string]string{"repository": repository}
	if err := c.post(ctx, "/v1/configs", in, &out); err != nil {
		return nil, err
	}
	return remoteConfig{ID: out.ConfigID}, nil
}

func (c *TransformersClient) LoadTokenizer(ctx context.Context, repository string, opts TokenizerOptions) (TokenizerHandle, error) {
	var out struct {
		TokenizerID string `json:"tokenizer_id"`
	}
	in := struct {
		Repository string `json:"repository"`
		TokenizerOptions
	}{Repository: repository, TokenizerOptions: opts}
	if err := c.post(ctx, "/v1/tokenizers", in, &out); err != nil {
		return nil, err
	}
	return remoteTokenizer{ID: out.TokenizerID}, nil
}

func (c *TransformersClient) LoadCausalLM(ctx context.Context, repository string, cfg ConfigHandle, opts CausalLMOptions) (ModelHandle, error) {
	var out struct {
		ModelID   string `json:"model_id"`
		MultiPart bool   `json:"multi_part,omitempty"`
	}
	in := struct {
		Repository string `json:"repository"`
		ConfigID   string `json:"config_id,omitempty"`
		CausalLMOptions
	}{Repository: repository, CausalLMOptions: opts}
	if cfg != nil {
		in.ConfigID = cfg.ConfigID()
	}
	if err := c.post(ctx, "/v1/models/causal", in, &out); err != nil {
		return nil, err
	}
	if out.MultiPart {
		return remoteCompositeModel{ID: out.ModelID}, nil
	}
	return remoteModel{ID: out.ModelID, c: c}, nil
}

func (c *TransformersClient) LoadLlama(ctx context.Context, repository string) (ModelHandle, TokenizerHandle, error) {
	var out struct {
		ModelID     string `json:"model_id"`
		TokenizerID string `json:"tokenizer_id"`
	}
	in := map[string]string{"repository": repository}
	if err := c.post(ctx, "/v1/models/llama", in, &out); err != nil {
		return nil, nil, err
	}
	return remoteModel{ID: out.ModelID, c: c}, remoteTokenizer{ID: out.TokenizerID}, nil
}

func (c *TransformersClient) LoadQuantized(ctx context.Context, repository string, opts QuantizedOptions) (ModelHandle, error) {
	var out struct {
		ModelID string `json:"model_id"`
	}
	in := struct {
		Repository string `json:"repository"`
		QuantizedOptions
	}{Repository: repository, QuantizedOptions: opts}
	if err := c.post(ctx, "/v1/models/quantized", in, &out); err != nil {
		return nil, err
	}
	return remoteModel{ID: out.ModelID, c: c}, nil
}

func (c *TransformersClient) GenerationConfig(ctx context.Context, repository string) (GenerationConfig, error) {
	var out GenerationConfig
	q := url.Values{"repository": {repository}}
	if err := c.get(ctx, "/v1/generation-config", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransformersClient) TextGeneration(ctx context.Context, model ModelHandle, tok TokenizerHandle, params GenerationParams) (Generator, error) {
	var out struct {
		PipelineID string `json:"pipeline_id"`
	}
	in := struct {
		Task        string `json:"task"`
		ModelID     string `json:"model_id"`
		TokenizerID string `json:"tokenizer_id"`
		GenerationParams
	}{Task: "text-generation", ModelID: model.ModelID(), TokenizerID: tok.TokenizerID(), GenerationParams: params}
	if err := c.post(ctx, "/v1/pipelines", in, &out); err != nil {
		return nil, err
	}
	return &remotePipeline{ID: out.PipelineID, c: c}, nil
}

// remotePipeline generates text through a runner-side pipeline object.
type remotePipeline struct {
	ID string
	c  *TransformersClient
}

func (p *remotePipeline) Generate(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	in := map[string]string{"prompt": prompt}
	path := "/v1/pipelines/" + url.PathEscape(p.ID) + "/completions"
	if err := p.c.post(ctx, path, in, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

var _ Runtime = (*TransformersClient)(nil)
