package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.TTSConfig{
		APIKey:       "test-key",
		Endpoint:     server.URL,
		LanguageCode: "en-US",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestClient_Synthesize(t *testing.T) {
	t.Parallel()

	t.Run("decodes audio content", func(t *testing.T) {
		t.Parallel()

		wantAudio := []byte("fake-mp3-bytes")
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

			var req synthesizeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello there", req.Input.Text)
			assert.Equal(t, "en-GB-Neural-C", req.Voice.Name)
			assert.Equal(t, "en-US", req.Voice.LanguageCode)
			assert.Equal(t, "MP3", req.AudioConfig.AudioEncoding)

			_ = json.NewEncoder(w).Encode(synthesizeResponse{
				AudioContent: base64.StdEncoding.EncodeToString(wantAudio),
			})
		})

		audio, err := client.Synthesize(context.Background(), "hello there", "en-GB-Neural-C")
		require.NoError(t, err)
		assert.Equal(t, wantAudio, audio)
	})

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
		})

		_, err := client.Synthesize(context.Background(), "hi", "")
		assert.ErrorIs(t, err, ErrSynthesis)
		assert.ErrorContains(t, err, "429")
	})

	t.Run("empty audio content", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(synthesizeResponse{})
		})

		_, err := client.Synthesize(context.Background(), "hi", "")
		assert.ErrorIs(t, err, ErrSynthesis)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for empty text")
		})

		_, err := client.Synthesize(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrSynthesis)
	})
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.TTSConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
