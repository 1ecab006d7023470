package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel serves the chat completions endpoint with a fixed reply.
func fakeModel(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, modelURL string) *App {
	t.Helper()
	dir := t.TempDir()
	a, err := New(context.Background(), Config{
		DBPath:     filepath.Join(dir, "m.db"),
		LLMBaseURL: modelURL,
		LLMAPIKey:  "test-key",
		LLMModel:   "test-model",
		OCREngine:  "none",
		CacheDir:   filepath.Join(dir, "cache"),
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNew_UnknownOCREngine(t *testing.T) {
	_, err := New(context.Background(), Config{DBPath: filepath.Join(t.TempDir(), "m.db"), OCREngine: "bogus"})
	assert.Error(t, err)
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1/v1")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), BuildVersion)
}

func TestApp_UploadTextThenList(t *testing.T) {
	model := fakeModel(t, "```json\n[{\"type\":\"名言金句\",\"themes\":[\"青春奋斗\"],\"tags\":[\"周易\"],\"content\":\"天行健，君子以自强不息。\"}]\n```")
	a := newTestApp(t, model.URL+"/v1")

	body, _ := json.Marshal(map[string]string{"text": "天行健，君子以自强不息。"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cards []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "名言金句", cards[0]["type"])
}

func TestApp_UnreachableModelYieldsFallbackRecord(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1/v1")
	body, _ := json.Marshal(map[string]string{"text": "这是一段足够长的文本内容"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Contains(t, w.Body.String(), "AI服务异常")
}
