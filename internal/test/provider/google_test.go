package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/provider"
)

func googleConn(url string) *models.AIConnection {
	return &models.AIConnection{
		Provider:     "google",
		APIKey:       "test-key",
		APIURL:       url,
		DefaultModel: "gemini-2.5-flash-image",
		Active:       true,
	}
}

func TestGoogleAdapter_Generate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash-image:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Write([]byte(`{
			"candidates": [{"finishReason": "STOP", "content": {"parts": [
				{"text": "here is your image"},
				{"inlineData": {"mimeType": "image/png", "data": "aGVsbG8="}}
			]}}]
		}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	images, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:     "Formato: 9:16. Safe area para texto.",
		Quantity:   1,
		Dimensions: models.DimensionsStory,
		ImageSize:  models.ImageSize2K,
	})

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", images[0].URL)

	generationConfig, ok := captured["generationConfig"].(map[string]any)
	require.True(t, ok)
	imageConfig, ok := generationConfig["imageConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "9:16", imageConfig["aspectRatio"])
	assert.Equal(t, "2K", imageConfig["imageSize"])
}

func TestGoogleAdapter_InlinesDataURLReferences(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [
				{"inlineData": {"mimeType": "image/png", "data": "b3V0"}}
			]}}]
		}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.Refine(context.Background(), googleConn(server.URL), provider.RefineRequest{
		Instruction: "Reproduce the image with minimal adjustments.",
		ImageURLs:   []string{"data:image/jpeg;base64,c291cmNl"},
		Dimensions:  models.DimensionsSquare,
	})
	require.NoError(t, err)

	contents, ok := captured["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mimeType"])
	assert.Equal(t, "c291cmNl", inline["data"])
}

func TestGoogleAdapter_FetchesRemoteReferences(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("webp-bytes"))
	}))
	defer imageServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		contents := req["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
		assert.Equal(t, "image/webp", inline["mimeType"])

		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"inlineData": {"data": "b3V0"}}]}}]}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	images, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:           "prompt",
		Quantity:         1,
		SubjectImageURLs: []string{imageServer.URL + "/ref.webp"},
	})

	require.NoError(t, err)
	require.Len(t, images, 1)
	// Missing mime type on the way back defaults to PNG.
	assert.True(t, strings.HasPrefix(images[0].URL, "data:image/png;base64,"))
}

func TestGoogleAdapter_BlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:   "prompt",
		Quantity: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked the prompt")
}

func TestGoogleAdapter_SafetyFinishReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"finishReason": "SAFETY", "content": {"parts": []}}]}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:   "prompt",
		Quantity: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGoogleAdapter_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:   "prompt",
		Quantity: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGoogleAdapter_NoImageParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "I cannot generate that"}]}}]}`))
	}))
	defer server.Close()

	adapter := provider.NewGoogleAdapter(5*time.Second, zap.NewNop())
	_, err := adapter.Generate(context.Background(), googleConn(server.URL), provider.GenerateRequest{
		Prompt:   "prompt",
		Quantity: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image data")
}
