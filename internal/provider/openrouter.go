package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"neurodesign-backend/internal/models"
)

// OpenRouterAdapter talks to OpenRouter-compatible chat-completions APIs that
// expose image output as a message modality.
type OpenRouterAdapter struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewOpenRouterAdapter(timeout time.Duration, log *zap.Logger) *OpenRouterAdapter {
	return &OpenRouterAdapter{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Modalities  []string      `json:"modalities"`
	ImageConfig struct {
		AspectRatio string `json:"aspect_ratio"`
	} `json:"image_config"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// Both keys carry the same reference; deployed OpenRouter-compatible
	// backends disagree on which one they read.
	ImageURL    *imageRef `json:"image_url,omitempty"`
	ImageURLAlt *imageRef `json:"imageUrl,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Images []struct {
				ImageURL    *imageRef `json:"image_url"`
				ImageURLAlt *imageRef `json:"imageUrl"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *OpenRouterAdapter) Generate(ctx context.Context, conn *models.AIConnection, req GenerateRequest) ([]Image, error) {
	text := req.Prompt
	if req.LogoURL != "" {
		text = "Include the provided logo image in the composition. " + text
	}
	if req.StyleInstruction != "" {
		text = req.StyleInstruction + " " + text
	}

	var content any = text
	imageURLs := collectImageURLs(req)
	if len(imageURLs) > 0 {
		parts := []contentPart{{Type: "text", Text: text}}
		for _, u := range imageURLs {
			parts = append(parts, imagePart(u))
		}
		content = parts
	}

	return a.call(ctx, conn, content, req.Dimensions, req.Quantity)
}

func (a *OpenRouterAdapter) Refine(ctx context.Context, conn *models.AIConnection, req RefineRequest) ([]Image, error) {
	parts := []contentPart{{Type: "text", Text: req.Instruction}}
	for _, u := range req.ImageURLs {
		parts = append(parts, imagePart(u))
	}
	return a.call(ctx, conn, parts, req.Dimensions, 1)
}

func (a *OpenRouterAdapter) call(ctx context.Context, conn *models.AIConnection, content any, dimensions string, quantity int) ([]Image, error) {
	body := chatCompletionRequest{
		Model:      conn.DefaultModel,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}
	body.ImageConfig.AspectRatio = MapAspectRatio(dimensions)

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(conn.APIURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+conn.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute openrouter request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter request failed: status %d, body: %s", resp.StatusCode, truncateBody(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, truncateBody(respBody))
	}

	images := extractChatImages(result, capQuantity(quantity))
	if len(images) == 0 {
		return nil, fmt.Errorf("openrouter returned no images, possibly blocked by content filter")
	}

	a.log.Debug("openrouter call succeeded", zap.Int("images", len(images)))
	return images, nil
}

func extractChatImages(result chatCompletionResponse, limit int) []Image {
	var images []Image
	if len(result.Choices) == 0 {
		return images
	}
	for _, img := range result.Choices[0].Message.Images {
		url := ""
		if img.ImageURL != nil {
			url = img.ImageURL.URL
		} else if img.ImageURLAlt != nil {
			url = img.ImageURLAlt.URL
		}
		if url == "" {
			continue
		}
		images = append(images, Image{URL: url})
		if len(images) == limit {
			break
		}
	}
	return images
}

func imagePart(url string) contentPart {
	ref := &imageRef{URL: url}
	return contentPart{Type: "image_url", ImageURL: ref, ImageURLAlt: ref}
}

// collectImageURLs preserves the documented ordering: subject images first,
// then style references, then the logo.
func collectImageURLs(req GenerateRequest) []string {
	urls := make([]string, 0, 6)
	for i, u := range req.SubjectImageURLs {
		if i == models.MaxSubjectImages {
			break
		}
		urls = append(urls, u)
	}
	for i, u := range req.StyleReferenceURLs {
		if i == models.MaxStyleRefImages {
			break
		}
		urls = append(urls, u)
	}
	if req.LogoURL != "" {
		urls = append(urls, req.LogoURL)
	}
	return urls
}
