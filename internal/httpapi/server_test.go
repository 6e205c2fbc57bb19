package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"localgptd/internal/runtime"
	"localgptd/pkg/types"
)

type stubService struct {
	text   string
	err    error
	tokens int
	ready  bool
}

func (s *stubService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubService) PromptTokens(prompt string) int { return s.tokens }

func (s *stubService) Model() types.ModelResponse {
	return types.ModelResponse{DeviceType: "cpu", ModelType: "huggingface", ModelRepository: "org/model"}
}

func (s *stubService) Ready() bool { return s.ready }

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateOK(t *testing.T) {
	h := NewMux(&stubService{text: "a completion", tokens: 3, ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{"prompt":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp types.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "a completion" || resp.PromptTokens != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerateRequiresJSONContentType(t *testing.T) {
	h := NewMux(&stubService{ready: true})
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d", rec.Code)
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	h := NewMux(&stubService{ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{"prompt":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGenerateRejectsBadJSON(t *testing.T) {
	h := NewMux(&stubService{ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGenerateMapsUnavailableTo503(t *testing.T) {
	h := NewMux(&stubService{err: runtime.ErrUnavailable("runner unreachable"), ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{"prompt":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected payload: %+v", er)
	}
}

func TestGenerateMapsOtherErrorsTo500(t *testing.T) {
	h := NewMux(&stubService{err: errors.New("boom"), ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestModelEndpoint(t *testing.T) {
	h := NewMux(&stubService{ready: true})
	rec := doJSON(t, h, http.MethodGet, "/model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var m types.ModelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ModelType != "huggingface" || m.DeviceType != "cpu" {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	h := NewMux(&stubService{ready: false})
	if rec := doJSON(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200 got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503 got %d", rec.Code)
	}
	h = NewMux(&stubService{ready: true})
	if rec := doJSON(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200 got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&stubService{ready: true})
	rec := doJSON(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "localgptd_llm_generate_duration_seconds") {
		t.Fatalf("expected localgptd_llm_generate_duration_seconds in metrics output")
	}
}

func TestBodySizeLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	h := NewMux(&stubService{ready: true})
	rec := doJSON(t, h, http.MethodPost, "/generate", `{"prompt":"`+strings.Repeat("a", 64)+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
