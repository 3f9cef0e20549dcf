package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "qwen2.5:0.5b", "nomic-embed-text")
	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)

		var req embedBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"one", "two"}, req.Input)

		json.NewEncoder(w).Encode(embedBatchResponse{Embeddings: [][]float32{
			{0.1, 0.2},
			{0.3, 0.4},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "qwen2.5:0.5b", "nomic-embed-text")
	vecs, err := c.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vecs[0])
	assert.Equal(t, []float32{0.3, 0.4}, vecs[1])
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedBatchResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	_, err := c.EmbedBatch(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestEmbedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestChatStreamDeliversTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		require.NotEmpty(t, req.Messages)

		flusher := w.(http.Flusher)
		for _, tok := range []string{"Hel", "lo", "!"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", tok)
			flusher.Flush()
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	var got []string
	err := c.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(token string) error {
		got = append(got, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", "!"}, got)
}

func TestChatStreamReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"par"},"done":false}`)
		fmt.Fprintln(w, `{"error":"model crashed"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	var got []string
	err := c.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(token string) error {
		got = append(got, token)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
	assert.Equal(t, []string{"par"}, got)
}

func TestChatStreamCallbackStopsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"x"},"done":false}`)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	stop := errors.New("stop")
	c := NewClient(srv.URL, "chat", "embed")
	calls := 0
	err := c.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(string) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprintln(w, `{"models":[{"name":"qwen2.5:0.5b"},{"name":"nomic-embed-text"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chat", "embed")
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5:0.5b", "nomic-embed-text"}, models)
}

func TestNewClientDefaultsHost(t *testing.T) {
	c := NewClient("", "chat", "embed")
	assert.Equal(t, DefaultHost, c.host)

	c = NewClient("http://example.com/", "chat", "embed")
	assert.Equal(t, "http://example.com", c.host)
}
