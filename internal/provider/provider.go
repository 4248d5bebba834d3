// Package provider translates the service's uniform image-generation contract
// into the request/response shapes of the supported third-party backends.
package provider

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"neurodesign-backend/internal/models"
)

// Image is the normalized result of one provider call. URL may be a remote URL
// or a base64 data URL, depending on the backend.
type Image struct {
	URL string `json:"url"`
}

type GenerateRequest struct {
	Prompt             string
	Quantity           int
	Dimensions         string
	ImageSize          string
	SubjectImageURLs   []string
	StyleReferenceURLs []string
	StyleInstruction   string
	LogoURL            string
}

// RefineRequest is a multi-image edit. ImageURLs is ordered: the source image
// comes first, and the instruction refers to images by position.
type RefineRequest struct {
	Instruction string
	ImageURLs   []string
	Dimensions  string
}

// Adapter is implemented once per image-generation backend.
type Adapter interface {
	Generate(ctx context.Context, conn *models.AIConnection, req GenerateRequest) ([]Image, error)
	Refine(ctx context.Context, conn *models.AIConnection, req RefineRequest) ([]Image, error)
}

// Registry selects the adapter for an AI connection. Dispatch is keyed on the
// connection's provider field; the api_url substring match is kept only for
// legacy rows that never had provider set.
type Registry struct {
	openrouter *OpenRouterAdapter
	google     *GoogleAdapter
}

func NewRegistry(timeout time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		openrouter: NewOpenRouterAdapter(timeout, log),
		google:     NewGoogleAdapter(timeout, log),
	}
}

// Resolve returns the adapter and the provider label to record on the run.
// An unrecognized connection yields (nil, ""), which routes to the mock path.
func (r *Registry) Resolve(conn *models.AIConnection) (Adapter, string) {
	if conn == nil {
		return nil, ""
	}
	switch conn.Provider {
	case "openrouter":
		return r.openrouter, models.ProviderOpenRouter
	case "google":
		return r.google, models.ProviderGoogle
	}
	if strings.Contains(conn.APIURL, "openrouter") {
		return r.openrouter, models.ProviderOpenRouter
	}
	if strings.Contains(conn.APIURL, "generativelanguage") {
		return r.google, models.ProviderGoogle
	}
	return nil, ""
}

// MapAspectRatio maps the dimensions enum onto the aspect-ratio strings the
// providers accept. Anything outside the known portrait/story/landscape values
// normalizes to square.
func MapAspectRatio(dimensions string) string {
	switch dimensions {
	case models.DimensionsPortrait, models.DimensionsStory, models.DimensionsLandscape:
		return dimensions
	default:
		return models.DimensionsSquare
	}
}

func capQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	if quantity > models.MaxQuantity {
		return models.MaxQuantity
	}
	return quantity
}

func truncateBody(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
