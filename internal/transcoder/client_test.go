package transcoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

func TestSubmitSendsAuthenticatedRequest(t *testing.T) {
	var gotMethod, gotAuth, gotContentType string
	var gotBody submitRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.TranscoderConfig{
		Endpoint:   srv.URL,
		AuthToken:  "secret-token",
		TimeoutSec: 5,
	}, zap.NewNop())

	err := client.Submit(context.Background(), "abc/original.mp4")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "abc/original.mp4", gotBody.S3Key)
}

func TestSubmitReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(config.TranscoderConfig{
		Endpoint:   srv.URL,
		AuthToken:  "secret-token",
		TimeoutSec: 5,
	}, zap.NewNop())

	err := client.Submit(context.Background(), "abc/original.mp4")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSubmitReportsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(config.TranscoderConfig{
		Endpoint:   srv.URL,
		AuthToken:  "secret-token",
		TimeoutSec: 1,
	}, zap.NewNop())

	err := client.Submit(context.Background(), "abc/original.mp4")
	require.Error(t, err)
}
