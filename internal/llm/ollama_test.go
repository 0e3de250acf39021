package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeGenerate(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"plain", `{"response":"hi"}`, "hi"},
		{"missing field", `{}`, "No response generated"},
		{"empty field", `{"response":""}`, ""},
		{"concatenated objects", "{\"response\":\"a\"}\n{\"response\":\"b\"}", "a"},
		{"concatenated first lacks field", "{\"done\":true}\n{\"response\":\"b\"}", ""},
		{"garbage", `not json`, "Error parsing model response. Please try again."},
		{"garbage mentioning response", `response is broken`, "Error parsing model response. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeGenerate([]byte(tc.body)); got != tc.want {
				t.Fatalf("decodeGenerate(%q)=%q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestOllamaGenerateRequestShape(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"response":"pong"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "gemma3:4b"})
	history := []Message{
		{Role: RoleUser, Content: "earlier question"},
		{Role: RoleAssistant, Content: "earlier answer"},
	}
	text, err := c.Infer(context.Background(), "ping", history)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if text != "pong" {
		t.Fatalf("text=%q, want %q", text, "pong")
	}
	if got.Model != "gemma3:4b" {
		t.Fatalf("model=%q, want %q", got.Model, "gemma3:4b")
	}
	if got.Prompt != "ping" {
		t.Fatalf("prompt=%q, want %q", got.Prompt, "ping")
	}
	if got.Stream {
		t.Fatal("stream should be false")
	}
	if got.Options.NumPredict != DefaultNumPredict {
		t.Fatalf("num_predict=%d, want %d", got.Options.NumPredict, DefaultNumPredict)
	}
}

func TestOllamaSetModel(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "gemma3:4b"})
	c.SetModel("llama3:8b")
	if _, err := c.Infer(context.Background(), "hi", nil); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if got.Model != "llama3:8b" {
		t.Fatalf("model=%q, want %q", got.Model, "llama3:8b")
	}
}

func TestOllamaGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "gemma3:4b"})
	_, err := c.Infer(context.Background(), "ping", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ClientError, got %T", err)
	}
	if ce.Kind != ErrKindAPI {
		t.Fatalf("kind=%v, want %v", ce.Kind, ErrKindAPI)
	}
	if !strings.Contains(ce.Message, "500") {
		t.Fatalf("message %q should carry the status code", ce.Message)
	}
}

func TestOllamaGenerateConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "gemma3:4b"})
	_, err := c.Infer(context.Background(), "ping", nil)
	if KindOf(err) != ErrKindNetwork {
		t.Fatalf("kind=%v, want %v", KindOf(err), ErrKindNetwork)
	}
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tags" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"gemma3:4b"},{"name":"qwen3:0.6b"}]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	want := []string{"llama3:8b", "gemma3:4b", "qwen3:0.6b"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d]=%q, want %q", i, names[i], want[i])
		}
	}
}

func TestOllamaListModelsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Fatalf("names=%v, want empty slice", names)
	}
}

func TestOllamaListModelsDaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	_, err := c.ListModels(context.Background())
	if KindOf(err) != ErrKindNetwork {
		t.Fatalf("kind=%v, want %v", KindOf(err), ErrKindNetwork)
	}
	if !strings.Contains(err.Error(), "ollama serve") {
		t.Fatalf("error %q should hint at starting the daemon", err)
	}
}

func TestOllamaCheckModel(t *testing.T) {
	cases := []struct {
		name      string
		model     string
		installed []string
		exact     bool
		related   []string
	}{
		{"exact match", "gemma3:4b", []string{"llama3:8b", "gemma3:4b"}, true, nil},
		{"related tag", "gemma3:4b", []string{"gemma3:12b"}, false, []string{"gemma3:12b"}},
		{"base name installed", "gemma3:4b", []string{"gemma3"}, false, []string{"gemma3"}},
		{"unrelated models", "gemma3:4b", []string{"llama3:8b"}, false, nil},
		{"nothing installed", "gemma3:4b", nil, false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := make([]string, 0, len(tc.installed))
			for _, m := range tc.installed {
				entries = append(entries, fmt.Sprintf(`{"name":%q}`, m))
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"models":[%s]}`, strings.Join(entries, ","))
			}))
			defer srv.Close()

			c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: tc.model})
			warn := c.CheckModel(context.Background())
			if tc.exact {
				if warn != nil {
					t.Fatalf("expected no warning, got %q", warn.Message())
				}
				return
			}
			if warn == nil {
				t.Fatal("expected warning")
			}
			if len(warn.Related) != len(tc.related) {
				t.Fatalf("related=%v, want %v", warn.Related, tc.related)
			}
			for i := range tc.related {
				if warn.Related[i] != tc.related[i] {
					t.Fatalf("related=%v, want %v", warn.Related, tc.related)
				}
			}
			if !strings.Contains(warn.Message(), "not installed") {
				t.Fatalf("message %q should say the model is not installed", warn.Message())
			}
		})
	}
}

func TestOllamaCheckModelDaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "gemma3:4b"})
	warn := c.CheckModel(context.Background())
	if warn == nil {
		t.Fatal("expected warning")
	}
	if warn.Err == nil {
		t.Fatal("expected the check failure to be recorded")
	}
	if !strings.Contains(warn.Message(), "could not verify") {
		t.Fatalf("message=%q", warn.Message())
	}
}
