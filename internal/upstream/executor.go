// Package upstream implements the outbound client for the proxied
// chat-completions API. It performs the buffered call, the live streaming
// call, and the best-effort model capability probe. Request payloads arrive
// here already translated; this package only moves bytes.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

const userAgent = "thinkgate/1.0"

// streamReadSize is the read granularity for upstream stream bodies. Chunk
// boundaries carry no meaning; the stream session reassembles lines.
const streamReadSize = 4096

// StatusError carries a non-2xx upstream status together with the upstream
// error body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream status %d", e.Code)
}

// StatusCode returns the upstream HTTP status.
func (e *StatusError) StatusCode() int { return e.Code }

// StreamChunk is one delivery from the upstream stream body: either a slice
// of raw bytes or a terminal transport error.
type StreamChunk struct {
	Data []byte
	Err  error
}

// Executor issues requests against one upstream endpoint with a fixed bearer
// token. It is stateless across requests and safe for concurrent use.
type Executor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExecutor creates an executor for the given endpoint. The HTTP client
// carries no global timeout; per-request deadlines come from the caller's
// context.
func NewExecutor(baseURL, apiKey string) *Executor {
	return &Executor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (e *Executor) newRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// Execute sends a buffered chat completion request and returns the upstream
// body. Non-2xx responses become a *StatusError carrying the upstream status
// and body.
func (e *Executor) Execute(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := e.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debugf("upstream request failed, status: %d, body: %s", resp.StatusCode, string(body))
		return nil, &StatusError{Code: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

// ExecuteStream sends a streaming chat completion request and returns a
// channel of raw body chunks. The channel is closed when the upstream closes
// the stream; a transport error mid-stream is delivered as the final chunk.
// A non-2xx status is reported synchronously so the caller can still send a
// structured error response.
func (e *Executor) ExecuteStream(ctx context.Context, payload []byte) (<-chan StreamChunk, error) {
	req, err := e.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		log.Debugf("upstream stream request failed, status: %d, body: %s", resp.StatusCode, string(body))
		return nil, &StatusError{Code: resp.StatusCode, Message: string(body)}
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, streamReadSize)
		for {
			n, errRead := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case out <- StreamChunk{Data: chunk}:
				case <-ctx.Done():
					return
				}
			}
			if errRead != nil {
				if errRead != io.EOF {
					select {
					case out <- StreamChunk{Err: errRead}:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()
	return out, nil
}

// Probe checks whether the upstream accepts a model identifier verbatim by
// issuing a minimal one-token completion. All failures are swallowed; the
// probe only ever answers yes or no.
func (e *Executor) Probe(ctx context.Context, model string) bool {
	payload := `{"model":"","messages":[{"role":"user","content":"hi"}],"max_tokens":1}`
	payload, _ = sjson.Set(payload, "model", model)

	req, err := e.newRequest(ctx, []byte(payload))
	if err != nil {
		return false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		log.Debugf("model probe for %q failed: %v", model, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
