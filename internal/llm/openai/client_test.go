package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-record/internal/llm"
)

const chatBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": %q}
  }]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Language:    "ko",
	}, nil)
}

func TestComplete_SendsJSONModeAndReturnsContent(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, chatBody, `{"venue":"올림픽공원"}`)
	})

	out, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:     "sys",
		User:       "ocr text",
		JSONObject: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"venue":"올림픽공원"}`, out)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	rf, ok := body["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing")
	assert.Equal(t, "json_object", rf["type"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, chatBody, `{}`)
	})

	out, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.EqualValues(t, 2, calls.Load())
}

func TestComplete_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	})

	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"), r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "ko", r.FormValue("language"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "memo.m4a", hdr.Filename)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" 정말 좋은 공연이었어요 "}`)
	})

	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio"), "/tmp/memo.m4a")
	require.NoError(t, err)
	assert.Equal(t, "정말 좋은 공연이었어요", text)

	_, err = c.Transcribe(context.Background(), strings.NewReader(""), "empty.m4a")
	assert.Error(t, err)
}
