package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// fakeEmbeddingServer returns a server that embeds each input as a
// trivially derived vector, recording the number of API calls.
func fakeEmbeddingServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			data[i] = datum{Embedding: []float64{float64(len(req.Input[i])), 1}, Index: i}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestEmbeddingService_Embed(t *testing.T) {
	var calls atomic.Int64
	server := fakeEmbeddingServer(t, &calls)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
	assert.Equal(t, int64(1), calls.Load())
}

func TestEmbeddingService_CacheAvoidsRepeatCalls(t *testing.T) {
	var calls atomic.Int64
	server := fakeEmbeddingServer(t, &calls)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	_, err = svc.Embed(ctx, "clause")
	require.NoError(t, err)
	_, err = svc.Embed(ctx, "clause")
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load(), "identical text must be served from cache")
}

func TestEmbeddingService_BatchMixedCache(t *testing.T) {
	var calls atomic.Int64
	server := fakeEmbeddingServer(t, &calls)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	_, err = svc.Embed(ctx, "aa")
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(ctx, []string{"aa", "bbbb"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{2, 1}, vecs[0])
	assert.Equal(t, []float32{4, 1}, vecs[1])
	assert.Equal(t, int64(2), calls.Load())
}

func TestEmbeddingService_AuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "text")
	require.Error(t, err)

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, domain.ModelErrAuth, modelErr.Kind)
	assert.False(t, modelErr.Transient())
	assert.Equal(t, int64(1), calls.Load(), "fatal errors must not be retried")
}

func TestEmbeddingService_RateLimitRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}, "index": 0}},
		})
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	vec, err := svc.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int64(2), calls.Load())
}

func TestEmbeddingService_OutOfRangeIndexIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}, "index": 7}},
		})
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "text")
	require.Error(t, err)

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, domain.ModelErrMalformed, modelErr.Kind)
}

func TestEmbeddingService_ShortResponseIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Two inputs, one embedding returned.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}, "index": 0}},
		})
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test", BaseURL: server.URL, Dimensions: 2})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.EmbedBatch(context.Background(), []string{"one", "two"})
	require.Error(t, err)

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, domain.ModelErrMalformed, modelErr.Kind)
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}
