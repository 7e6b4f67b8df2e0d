package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockProvider struct {
	response string
	err      error
	calls    int
	lastOpts Options
}

func (m *mockProvider) Generate(_ context.Context, _ string, opts Options) (string, error) {
	m.calls++
	m.lastOpts = opts
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }
func (m *mockProvider) Name() string       { return "mock" }

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	result := ParseJSONResponse("```json\n{\"key\": \"value\"}\n```")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithProse(t *testing.T) {
	result := ParseJSONResponse("Here is the story:\n{\"title\": \"Globex\"}\nLet me know!")
	if String(result, "title") != "Globex" {
		t.Errorf("expected title from embedded object, got %v", result)
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if ParseJSONResponse("not json at all") != nil {
		t.Error("expected nil for invalid JSON")
	}
	if ParseJSONResponse("") != nil {
		t.Error("expected nil for empty string")
	}
}

func TestJSONAccessors(t *testing.T) {
	m := ParseJSONResponse(`{"features": ["a", " ", 3, "b"], "quotes": [{"quote": "q"}, "x"], "n": 1}`)
	if got := Strings(m, "features"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Strings = %v", got)
	}
	if got := Objects(m, "quotes"); len(got) != 1 || String(got[0], "quote") != "q" {
		t.Errorf("Objects = %v", got)
	}
	if String(m, "n") != "" || String(m, "missing") != "" {
		t.Error("String should ignore non-strings and missing keys")
	}
}

func TestClientNotConfigured(t *testing.T) {
	_, err := NewClient(nil).Generate(context.Background(), "hi", Options{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Reason != ReasonNotConfigured {
		t.Errorf("Reason = %s, want %s", genErr.Reason, ReasonNotConfigured)
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Error("expected error to wrap ErrNotConfigured")
	}
}

func TestClientRequestFailed(t *testing.T) {
	boom := errors.New("connection refused")
	p := &mockProvider{err: boom}
	_, err := NewClient(p).Generate(context.Background(), "hi", Options{})

	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonRequestFailed {
		t.Fatalf("expected request_failed, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected provider error to be wrapped")
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want exactly 1", p.calls)
	}
}

func TestClientEmptyResponse(t *testing.T) {
	_, err := NewClient(&mockProvider{response: "  \n\t "}).Generate(context.Background(), "hi", Options{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonEmptyResponse {
		t.Fatalf("expected empty_response, got %v", err)
	}
}

func TestClientSuccessTrimsAndDefaults(t *testing.T) {
	p := &mockProvider{response: "\n  hello  \n"}
	got, err := NewClient(p).Generate(context.Background(), "hi", Options{MaxTokens: 300})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if p.lastOpts.MaxTokens != 300 || p.lastOpts.Temperature != DefaultTemperature {
		t.Errorf("opts = %+v", p.lastOpts)
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	var gotReq struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-test","choices":[{"index":0,"message":{"role":"assistant","content":"Title: Hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-test", "sk-test", srv.URL)
	got, err := p.Generate(context.Background(), "write", Options{MaxTokens: 50, Temperature: 0.5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Title: Hello" {
		t.Errorf("got %q", got)
	}
	if gotReq.Model != "gpt-test" || gotReq.MaxTokens != 50 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "write" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenAIProviderWithoutKey(t *testing.T) {
	p := NewOpenAIProvider("gpt-test", "", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured provider")
	}
	_, err := NewClient(p).Generate(context.Background(), "hi", Options{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonNotConfigured {
		t.Fatalf("expected not_configured, got %v", err)
	}
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(NewOpenAIProvider("gpt-test", "sk-test", srv.URL)).Generate(context.Background(), "hi", Options{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonRequestFailed {
		t.Fatalf("expected request_failed, got %v", err)
	}
}

func TestOllamaProvider(t *testing.T) {
	var gotOptions map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		case "/api/chat":
			var body struct {
				Options map[string]any `json:"options"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotOptions = body.Options
			w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL+"/")
	if !p.IsConfigured() {
		t.Fatal("expected Ollama to be configured")
	}
	got, err := p.Generate(context.Background(), "hi", Options{MaxTokens: 64})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q", got)
	}
	if gotOptions["num_predict"] != float64(64) || gotOptions["temperature"] != DefaultTemperature {
		t.Errorf("options = %v", gotOptions)
	}
}

func TestOllamaMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
	}))
	defer srv.Close()

	if NewOllamaProvider("qwen2.5:7b", srv.URL).IsConfigured() {
		t.Error("expected missing model to be reported unconfigured")
	}
}

func TestEstimateByChars(t *testing.T) {
	if got := estimateByChars(""); got != 0 {
		t.Errorf("empty = %d", got)
	}
	if got := estimateByChars("abcdefgh"); got != 2 {
		t.Errorf("8 chars = %d, want 2", got)
	}
	if got := estimateByChars("abcde"); got != 2 {
		t.Errorf("5 chars = %d, want 2", got)
	}
}
