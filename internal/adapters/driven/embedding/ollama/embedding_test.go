package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

func TestEmbeddingService_Ping_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	require.NoError(t, svc.Ping(context.Background()))
}

func TestEmbeddingService_Ping_DownMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "loading model", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	err := svc.Ping(context.Background())
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "503")
}

func TestEmbeddingService_Ping_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	err := svc.Ping(context.Background())
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
