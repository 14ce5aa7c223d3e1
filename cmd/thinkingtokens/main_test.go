package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oieieio/think-tools/errors"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stop   []string `json:"stop"`
	Stream bool     `json:"stream"`
}

// fakeChat is an OpenAI-compatible chat endpoint that records requests.
type fakeChat struct {
	*httptest.Server

	mu       sync.Mutex
	requests []chatRequest
	paths    []string
}

func newFakeChat(t *testing.T) *fakeChat {
	t.Helper()

	fc := &fakeChat{}
	fc.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fc.mu.Lock()
		fc.requests = append(fc.requests, req)
		fc.paths = append(fc.paths, r.URL.Path)
		fc.mu.Unlock()

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, part := range []string{"<think>", "\n391", "\n"} {
				chunk := fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":%q,"choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`, req.Model, part)
				_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
			}
			_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		content := "<think>\n17 * 23 = 391\n"
		if len(req.Messages) > 0 && strings.HasPrefix(req.Messages[0].Content, "\nThought process:") {
			content = "391"
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"r1","object":"chat.completion","created":1,"model":%q,"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`, req.Model, content)
	}))
	t.Cleanup(fc.Close)

	return fc
}

func (fc *fakeChat) recorded() ([]chatRequest, []string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]chatRequest(nil), fc.requests...), append([]string(nil), fc.paths...)
}

func TestRunThink(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")
	fc := newFakeChat(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-model", "together:deepseek-ai/DeepSeek-R1",
		"-base-url", fc.URL,
		"-question", "What is 17 * 23?",
	}, &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, "<think>\n17 * 23 = 391\n\n", stdout.String())

	reqs, paths := fc.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, "/chat/completions", paths[0])
	require.Equal(t, "deepseek-ai/DeepSeek-R1", reqs[0].Model)
	require.Len(t, reqs[0].Messages, 1)
	require.Equal(t, "user", reqs[0].Messages[0].Role)
	require.Equal(t, "What is 17 * 23?", reqs[0].Messages[0].Content)
	require.Equal(t, []string{"</think>"}, reqs[0].Stop)
}

func TestRunThinkStream(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")
	fc := newFakeChat(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-provider", "together",
		"-model", "deepseek-ai/DeepSeek-R1",
		"-base-url", fc.URL,
		"-stream",
	}, &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, "<think>\n391\n\n", stdout.String())

	reqs, _ := fc.recorded()
	require.Len(t, reqs, 1)
	require.True(t, reqs[0].Stream)
	require.Equal(t, "Ask question here", reqs[0].Messages[0].Content)
	require.Equal(t, []string{"</think>"}, reqs[0].Stop)
}

func TestRunAnswer(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")
	fc := newFakeChat(t)
	t.Setenv("TOGETHER_BASE_URL", fc.URL)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-provider", "together",
		"-question", "What is 17 * 23?",
		"-answer",
	}, &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, "<think>\n17 * 23 = 391\n\n\n391\n", stdout.String())

	reqs, _ := fc.recorded()
	require.Len(t, reqs, 2)

	answerReq := reqs[1]
	require.Equal(t, "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo", answerReq.Model)
	require.Empty(t, answerReq.Stop)
	require.Equal(t,
		"\nThought process: <think>\n17 * 23 = 391\n </think>\nQuestion: What is 17 * 23?\nAnswer:\n",
		answerReq.Messages[0].Content)
}

func TestRunAnswerOffByDefault(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-key")
	fc := newFakeChat(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-provider", "together", "-base-url", fc.URL}, &stdout, &stderr)
	require.NoError(t, err)

	reqs, _ := fc.recorded()
	require.Len(t, reqs, 1)
}

func TestRunErrors(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")

	tests := []struct {
		name     string
		args     []string
		sentinel error
		wantErr  string
	}{
		{name: "unknown provider", args: []string{"-provider", "nowhere"}, sentinel: errors.ErrUnsupportedProvider},
		{name: "missing key for default provider", args: nil, sentinel: errors.ErrMissingAPIKey},
		{name: "empty question", args: []string{"-question", " "}, wantErr: "question is required"},
		{name: "empty stop", args: []string{"-stop", ""}, wantErr: "stop sequence is required"},
		{name: "sub-second timeout", args: []string{"-timeout", "10ms"}, wantErr: "timeout_seconds must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tc.args, &stdout, &stderr)
			if tc.sentinel != nil {
				require.ErrorIs(t, err, tc.sentinel)
			} else {
				require.ErrorContains(t, err, tc.wantErr)
			}
			require.Empty(t, stdout.String())
		})
	}
}
