package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neurodesign-backend/internal/models"
)

// referenceFetchTimeout bounds each reference-image download so one slow host
// cannot stall the whole generation call.
const referenceFetchTimeout = 15 * time.Second

// GoogleAdapter talks to the Gemini generateContent API. Reference images are
// fetched and re-encoded as inline base64 parts because the API does not accept
// remote URLs.
type GoogleAdapter struct {
	httpClient  *http.Client
	fetchClient *http.Client
	log         *zap.Logger
}

func NewGoogleAdapter(timeout time.Duration, log *zap.Logger) *GoogleAdapter {
	return &GoogleAdapter{
		httpClient:  &http.Client{Timeout: timeout},
		fetchClient: &http.Client{Timeout: referenceFetchTimeout},
		log:         log,
	}
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
		ImageConfig        struct {
			AspectRatio string `json:"aspectRatio"`
			ImageSize   string `json:"imageSize"`
		} `json:"imageConfig"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Candidates []struct {
		FinishReason string `json:"finishReason"`
		Content      struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *GoogleAdapter) Generate(ctx context.Context, conn *models.AIConnection, req GenerateRequest) ([]Image, error) {
	text := req.Prompt
	if req.LogoURL != "" {
		text = "Include the provided logo image in the composition. " + text
	}
	if req.StyleInstruction != "" {
		text = req.StyleInstruction + " " + text
	}

	blobs, err := a.fetchAll(ctx, collectImageURLs(req))
	if err != nil {
		return nil, err
	}

	return a.call(ctx, conn, blobs, text, req)
}

func (a *GoogleAdapter) Refine(ctx context.Context, conn *models.AIConnection, req RefineRequest) ([]Image, error) {
	blobs, err := a.fetchAll(ctx, req.ImageURLs)
	if err != nil {
		return nil, err
	}
	return a.call(ctx, conn, blobs, req.Instruction, GenerateRequest{
		Quantity:   1,
		Dimensions: req.Dimensions,
	})
}

func (a *GoogleAdapter) call(ctx context.Context, conn *models.AIConnection, blobs []geminiBlob, text string, req GenerateRequest) ([]Image, error) {
	parts := make([]geminiPart, 0, len(blobs)+1)
	for i := range blobs {
		parts = append(parts, geminiPart{InlineData: &blobs[i]})
	}
	parts = append(parts, geminiPart{Text: text})

	var body geminiRequest
	body.Contents = append(body.Contents, struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	}{Role: "user", Parts: parts})
	body.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}
	body.GenerationConfig.ImageConfig.AspectRatio = MapAspectRatio(req.Dimensions)
	body.GenerationConfig.ImageConfig.ImageSize = models.NormalizeImageSize(req.ImageSize)

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(conn.APIURL, "/") + "/models/" + conn.DefaultModel + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", conn.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini request failed: status %d, body: %s", resp.StatusCode, truncateBody(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, truncateBody(respBody))
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("gemini blocked the prompt by safety filter: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates, the request was blocked or produced nothing")
	}
	switch result.Candidates[0].FinishReason {
	case "SAFETY", "RECITATION", "BLOCKED":
		return nil, fmt.Errorf("gemini blocked the generation: %s", result.Candidates[0].FinishReason)
	}

	limit := capQuantity(req.Quantity)
	var images []Image
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		mime := part.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{URL: fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data)})
		if len(images) == limit {
			break
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("gemini returned no image data")
	}

	a.log.Debug("gemini call succeeded", zap.Int("images", len(images)))
	return images, nil
}

// fetchAll downloads every reference in parallel and returns the blobs in the
// original order. A data URL is decoded in place, without a network round trip.
func (a *GoogleAdapter) fetchAll(ctx context.Context, urls []string) ([]geminiBlob, error) {
	blobs := make([]geminiBlob, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			blob, err := a.fetchOne(gctx, u)
			if err != nil {
				return err
			}
			blobs[i] = blob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

func (a *GoogleAdapter) fetchOne(ctx context.Context, url string) (geminiBlob, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return geminiBlob{}, fmt.Errorf("failed to create image fetch request: %w", err)
	}

	resp, err := a.fetchClient.Do(req)
	if err != nil {
		return geminiBlob{}, fmt.Errorf("failed to fetch reference image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geminiBlob{}, fmt.Errorf("failed to fetch reference image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return geminiBlob{}, fmt.Errorf("failed to read reference image: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}

	return geminiBlob{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func decodeDataURL(url string) (geminiBlob, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return geminiBlob{}, fmt.Errorf("not a data URL")
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return geminiBlob{}, fmt.Errorf("malformed data URL")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/png"
	}
	return geminiBlob{MimeType: mime, Data: data}, nil
}
