package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/policyhub-api/internal/api/shared"
)

// apiClient talks to the scheduling endpoints of a running server.
type apiClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) (*apiClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, withCode(exitUsage, fmt.Errorf("invalid --server: %q", baseURL))
	}
	return &apiClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// doJSON sends reqBody (when non-nil) as JSON and decodes a 2xx response into
// out. Error responses become errors carrying the server's message and trace ID.
func (c *apiClient) doJSON(ctx context.Context, method, path string, query url.Values, reqBody, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("http request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return withCode(exitAPI, fmt.Errorf("http do: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return withCode(exitAPI, fmt.Errorf("http read: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return withCode(exitAPI, fmt.Errorf("json unmarshal response: %w", err))
	}
	return nil
}

// responseError turns a non-2xx response into an error. Client errors exit
// with the validation code.
func responseError(status int, body []byte) error {
	code := exitAPI
	if status >= 400 && status < 500 {
		code = exitValidation
	}

	var apiErr shared.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || strings.TrimSpace(apiErr.Error) == "" {
		return withCode(code, fmt.Errorf("http status=%d body=%s", status, strings.TrimSpace(string(body))))
	}
	if apiErr.TraceID != "" {
		return withCode(code, fmt.Errorf("server returned %d: %s (trace_id=%s)", status, apiErr.Error, apiErr.TraceID))
	}
	return withCode(code, fmt.Errorf("server returned %d: %s", status, apiErr.Error))
}
