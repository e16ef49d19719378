package genai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"talkgram/talkgram/utils/httputils"
	"talkgram/talkgram/utils/logging"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	// ErrMissingAPIKey short-circuits a request before any network call.
	ErrMissingAPIKey = errors.New("generation API key is not configured")
	// ErrNetwork wraps transport failures reaching the provider.
	ErrNetwork = errors.New("network error reaching generation provider")
)

// UpstreamError is a non-success answer from the generation provider,
// carrying its payload for server-side logging.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation provider returned %d: %s", e.StatusCode, e.Body)
}

// Wire shapes of the generateContent API.

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generateRequest struct {
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Contents          []Content `json:"contents"`
	Tools             []Tool    `json:"tools,omitempty"`
}

type GenerateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// ParseResponse concatenates all text parts of the first candidate. When the
// provider sends nothing usable it returns the persona's fallback string.
func ParseResponse(resp GenerateResponse, fallback string) string {
	if len(resp.Candidates) == 0 {
		return fallback
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return fallback
	}
	return sb.String()
}

// Request is one assembled generation call.
type Request struct {
	History      []Message
	Content      string
	EnableSearch bool
}

// Client talks to the hosted generation endpoint. Configure it once at
// startup and inject it where needed.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	persona Persona
}

func NewClient(apiKey, model string, persona Persona) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   model,
		persona: persona,
	}
}

func (c *Client) buildRequest(req Request) generateRequest {
	out := generateRequest{
		SystemInstruction: &Content{Parts: []Part{{Text: c.persona.Instruction()}}},
		Contents:          BuildContents(req.History, req.Content, MaxHistory),
	}
	if req.EnableSearch {
		out.Tools = []Tool{{GoogleSearch: &struct{}{}}}
	}
	return out
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-goog-api-key": c.apiKey}
}

// Run executes a single generation request and extracts the reply text.
func (c *Client) Run(ctx context.Context, req Request) (string, error) {
	defer logging.LogDuration(ctx, "genai_run")()

	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var resp GenerateResponse
	if err := httputils.PostJSON(ctx, url, c.headers(), c.buildRequest(req), &resp); err != nil {
		var statusErr *httputils.StatusError
		if errors.As(err, &statusErr) {
			return "", &UpstreamError{StatusCode: statusErr.StatusCode, Body: statusErr.Body}
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return ParseResponse(resp, c.persona.Fallback), nil
}

// RunStream issues the streaming variant and forwards decoded text chunks as
// they arrive. The channel closes when the provider signals completion or the
// context is cancelled; nothing is buffered ahead of the caller.
func (c *Client) RunStream(ctx context.Context, req Request) (<-chan string, error) {
	defer logging.LogDuration(ctx, "genai_run_stream")()

	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	body, err := httputils.PostStream(ctx, url, c.headers(), c.buildRequest(req))
	if err != nil {
		var statusErr *httputils.StatusError
		if errors.As(err, &statusErr) {
			return nil, &UpstreamError{StatusCode: statusErr.StatusCode, Body: statusErr.Body}
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	ch := make(chan string)

	go func() {
		defer func() {
			close(ch)
			body.Close()
		}()

		reader := bufio.NewReader(body)
		for {
			select {
			case <-ctx.Done():
				logging.AppLogger.Info("genai stream context cancelled")
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					logging.ErrorLogger.Error("genai stream read error", zap.Error(err))
				}
				return
			}

			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				if data == "[DONE]" {
					return
				}
				continue
			}

			var chunk GenerateResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logging.ErrorLogger.Error("genai stream decode error",
					zap.Error(err), zap.String("raw_line", data))
				continue
			}
			if len(chunk.Candidates) == 0 {
				continue
			}
			for _, p := range chunk.Candidates[0].Content.Parts {
				if p.Text == "" {
					continue
				}
				select {
				case ch <- p.Text:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// SetBaseURL points the client at a different endpoint, mainly for tests.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Persona exposes the configured persona so callers can reuse its UI strings.
func (c *Client) Persona() Persona {
	return c.persona
}
