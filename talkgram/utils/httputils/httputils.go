package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when the remote endpoint answers with a non-2xx
// status. The response body is kept so callers can log provider detail.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d - %s", e.StatusCode, e.Body)
}

// PostJSON posts body as JSON and decodes the response into resp (may be nil).
func PostJSON(ctx context.Context, url string, headers map[string]string, body, resp interface{}) error {
	r, err := do(ctx, url, headers, body)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

// PostStream posts body as JSON and hands the raw response body to the
// caller, who owns closing it.
func PostStream(ctx context.Context, url string, headers map[string]string, body interface{}) (io.ReadCloser, error) {
	r, err := do(ctx, url, headers, body)
	if err != nil {
		return nil, err
	}
	return r.Body, nil
}

func do(ctx context.Context, url string, headers map[string]string, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode < 200 || r.StatusCode > 299 {
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)
		return nil, &StatusError{StatusCode: r.StatusCode, Body: string(b)}
	}
	return r, nil
}
