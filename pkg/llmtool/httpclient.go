// Package llmtool provides the default "llm" Tool registered with the
// executor, calling out to an OpenAI-compatible chat completions
// endpoint over plain net/http. Grounded on the teacher's
// pkg/httpclient (retry-with-backoff wrapping *http.Client) and
// pkg/llms/openai.go (request/response shape), simplified to a single
// non-streaming call since the ReAct Driver only ever needs one reply
// per iteration. spec.md §1 explicitly leaves provider authentication
// and transport undictated, so this is one concrete, swappable
// implementation rather than the only possible one — callers needing a
// different provider register their own "llm" Tool instead.
package llmtool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// retryingClient wraps http.Client with exponential backoff on 429/5xx,
// the same shape as the teacher's httpclient.Client minus header-driven
// rate limit parsing (our caller already rate-limits before ever
// reaching here, per the Executor's pre-flight gate).
type retryingClient struct {
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func newRetryingClient(timeout time.Duration, maxRetries int) *retryingClient {
	return &retryingClient{
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
	}
}

func (c *retryingClient) do(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(c.delay(attempt)):
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("llm provider returned %d: %s", resp.StatusCode, string(body))
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *retryingClient) delay(attempt int) time.Duration {
	return c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
}

func encodeJSONBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func decodeJSONBody(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
