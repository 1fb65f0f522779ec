package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"resp-1"}`))
	}))
	defer server.Close()

	executor := NewExecutor(server.URL, "test-key")
	body, err := executor.Execute(context.Background(), []byte(`{"model":"m"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(body) != `{"id":"resp-1"}` {
		t.Errorf("body = %q", body)
	}
}

func TestExecute_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	executor := NewExecutor(server.URL, "k")
	_, err := executor.Execute(context.Background(), []byte(`{}`))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode() != http.StatusTeapot {
		t.Errorf("status = %d", statusErr.StatusCode())
	}
	if statusErr.Error() != "nope" {
		t.Errorf("message = %q", statusErr.Error())
	}
}

func TestExecuteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"a\":1}\n\n"))
		flusher.Flush()
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	executor := NewExecutor(server.URL, "k")
	chunks, err := executor.ExecuteStream(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("ExecuteStream: %v", err)
	}

	var collected strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("stream error: %v", chunk.Err)
		}
		collected.Write(chunk.Data)
	}
	if got := collected.String(); got != "data: {\"a\":1}\n\ndata: [DONE]\n\n" {
		t.Errorf("collected stream = %q", got)
	}
}

func TestExecuteStream_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	executor := NewExecutor(server.URL, "k")
	_, err := executor.ExecuteStream(context.Background(), []byte(`{}`))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode() != http.StatusBadGateway {
		t.Errorf("error = %v, want StatusError 502", err)
	}
}

func TestProbe(t *testing.T) {
	var gotPayload []byte
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPayload, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	defer server.Close()

	executor := NewExecutor(server.URL, "k")

	if !executor.Probe(context.Background(), "exotic-model") {
		t.Error("Probe must report true on 2xx")
	}
	if got := gjson.GetBytes(gotPayload, "model").String(); got != "exotic-model" {
		t.Errorf("probe model = %q", got)
	}
	if got := gjson.GetBytes(gotPayload, "max_tokens").Int(); got != 1 {
		t.Errorf("probe max_tokens = %d, want minimal 1-token budget", got)
	}

	status = http.StatusNotFound
	if executor.Probe(context.Background(), "exotic-model") {
		t.Error("Probe must report false on non-2xx")
	}
}

func TestProbe_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	executor := NewExecutor(server.URL, "k")
	if executor.Probe(context.Background(), "m") {
		t.Error("Probe must swallow transport errors and report false")
	}
}
