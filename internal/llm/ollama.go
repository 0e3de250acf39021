package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultOllamaURL  = "http://localhost:11434"
	DefaultNumPredict = 1024

	noResponseFallback = "No response generated"
	parseErrFallback   = "Error parsing model response. Please try again."
	serveHint          = "make sure Ollama is running (`ollama serve`)"
)

// OllamaConfig configures the local client. Zero values fall back to the
// package defaults.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	NumPredict int
	Timeout    time.Duration
}

// OllamaClient talks to a local Ollama daemon over its HTTP API. It is safe
// for concurrent use; the active model can be switched between requests.
type OllamaClient struct {
	baseURL    string
	numPredict int
	http       *http.Client

	mu    sync.Mutex
	model string
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = DefaultNumPredict
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		numPredict: cfg.NumPredict,
		http:       &http.Client{Timeout: cfg.Timeout},
		model:      cfg.Model,
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel switches the model used for subsequent requests. A request
// already in flight keeps the model it was sent with.
func (c *OllamaClient) SetModel(name string) {
	c.mu.Lock()
	c.model = name
	c.mu.Unlock()
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict int `json:"num_predict"`
}

// Response is a pointer so a present-but-empty field and a missing field
// can be told apart; the fallback only applies when the field is missing.
type generateResponse struct {
	Response *string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Infer sends the prompt alone; prior turns are not forwarded, so the
// daemon sees every request as a fresh conversation.
func (c *OllamaClient) Infer(ctx context.Context, prompt string, _ []Message) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   c.Model(),
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{NumPredict: c.numPredict},
	})
	if err != nil {
		return "", &ClientError{Kind: ErrKindParse, Message: "encode generate request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &ClientError{Kind: ErrKindNetwork, Message: "build generate request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ClientError{Kind: ErrKindNetwork, Message: "communicating with Ollama API", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ClientError{Kind: ErrKindNetwork, Message: "reading generate response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ClientError{
			Kind:    ErrKindAPI,
			Message: fmt.Sprintf("generate request failed (status %d)", resp.StatusCode),
		}
	}
	return decodeGenerate(data), nil
}

// decodeGenerate extracts the reply text from a generate response body.
// Some daemon builds concatenate two JSON objects separated by a newline;
// the first object carries the text. Parse trouble is reported in-band as
// text, never as an error.
func decodeGenerate(data []byte) string {
	var gen generateResponse
	if err := json.Unmarshal(data, &gen); err == nil {
		if gen.Response == nil {
			return noResponseFallback
		}
		return *gen.Response
	}

	if !bytes.Contains(data, []byte("response")) {
		return parseErrFallback
	}
	head, _, found := strings.Cut(string(data), "}\n{")
	if found {
		var first generateResponse
		if err := json.Unmarshal([]byte(head+"}"), &first); err == nil {
			if first.Response == nil {
				return ""
			}
			return *first.Response
		}
	}
	return parseErrFallback
}

// ListModels returns the installed model names in the order the daemon
// reports them. An empty list is not an error.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindNetwork, Message: "build tags request", Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindNetwork, Message: "cannot reach Ollama; " + serveHint, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Kind:    ErrKindNetwork,
			Message: fmt.Sprintf("tags request failed (status %d); %s", resp.StatusCode, serveHint),
		}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &ClientError{Kind: ErrKindParse, Message: "decode tags response", Cause: err}
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckModel verifies the configured model is installed. The result is
// advisory: nil means an exact match, anything else is a warning for the
// status line and the debug log. Requests proceed either way.
func (c *OllamaClient) CheckModel(ctx context.Context) *ModelWarning {
	model := c.Model()
	names, err := c.ListModels(ctx)
	if err != nil {
		return &ModelWarning{Model: model, Err: err}
	}
	for _, name := range names {
		if name == model {
			return nil
		}
	}

	// Relaxed pass: same base name, different tag still warns but lists
	// the near misses.
	base, _, _ := strings.Cut(model, ":")
	var related []string
	for _, name := range names {
		if strings.HasPrefix(name, base+":") || name == base {
			related = append(related, name)
		}
	}
	return &ModelWarning{Model: model, Related: related, Installed: names}
}
