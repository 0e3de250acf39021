package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAnthropicClient("claude-sonnet-4-5", 2000,
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
}

const messageReply = `{"id":"msg_01","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"Hello there"}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":25}}`

func TestAnthropicInfer(t *testing.T) {
	var reqBody struct {
		Model     string `json:"model"`
		MaxTokens int64  `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageReply))
	})

	history := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	text, err := c.Infer(context.Background(), "how are you?", history)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("text=%q, want %q", text, "Hello there")
	}
	if reqBody.Model != "claude-sonnet-4-5" {
		t.Fatalf("model=%q", reqBody.Model)
	}
	if reqBody.MaxTokens != 2000 {
		t.Fatalf("max_tokens=%d, want 2000", reqBody.MaxTokens)
	}
	if len(reqBody.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(reqBody.Messages))
	}
	roles := []string{reqBody.Messages[0].Role, reqBody.Messages[1].Role, reqBody.Messages[2].Role}
	if roles[0] != "user" || roles[1] != "assistant" || roles[2] != "user" {
		t.Fatalf("role order=%v", roles)
	}
	last := reqBody.Messages[2]
	if len(last.Content) != 1 || last.Content[0].Text != "how are you?" {
		t.Fatalf("pending prompt should be the final message, got %+v", last)
	}
}

func TestAnthropicInferAPIError(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := c.Infer(context.Background(), "hi", nil)
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
	if !strings.Contains(ce.Message, "401") {
		t.Fatalf("message %q should carry the status code", ce.Message)
	}
}

func TestAnthropicInferNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewAnthropicClient("claude-sonnet-4-5", 2000,
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	_, err := c.Infer(context.Background(), "hi", nil)
	if KindOf(err) != ErrKindNetwork {
		t.Fatalf("kind=%v, want %v", KindOf(err), ErrKindNetwork)
	}
}

func TestAnthropicInferNoTextBlock(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	})

	_, err := c.Infer(context.Background(), "hi", nil)
	if KindOf(err) != ErrKindParse {
		t.Fatalf("kind=%v, want %v", KindOf(err), ErrKindParse)
	}
}
