package models

import "fmt"

// Enum values accepted by GenerationConfig. Anything outside these sets is
// rejected or coerced by NormalizeConfig before it can reach a provider.
const (
	ShotTypeCloseUp    = "close-up"
	ShotTypeMedioBusto = "medio busto"
	ShotTypeAmericano  = "americano"

	LayoutLeft   = "esquerda"
	LayoutCenter = "centro"
	LayoutRight  = "direita"

	DimensionsSquare    = "1:1"
	DimensionsPortrait  = "4:5"
	DimensionsStory     = "9:16"
	DimensionsLandscape = "16:9"

	ImageSize1K = "1K"
	ImageSize2K = "2K"
	ImageSize4K = "4K"

	GenderMale   = "masculino"
	GenderFemale = "feminino"
)

const (
	MaxSubjectImages  = 2
	MaxStyleRefImages = 3
	MinQuantity       = 1
	MaxQuantity       = 5
)

type TextOverlay struct {
	Enabled     bool   `json:"enabled"`
	Headline    string `json:"headline,omitempty"`
	Subheadline string `json:"subheadline,omitempty"`
	CTA         string `json:"cta,omitempty"`
	Position    string `json:"position,omitempty"`
	Gradient    bool   `json:"gradient"`
}

type VisualAttributes struct {
	Styles          []string `json:"styles,omitempty"`
	Sobriety        int      `json:"sobriety"`
	UltraRealistic  bool     `json:"ultra_realistic"`
	Blur            bool     `json:"blur"`
	LateralGradient bool     `json:"lateral_gradient"`
}

type FloatingElements struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text,omitempty"`
}

// GenerationConfig is the structured description of a desired image. It is the
// typed form of the loosely keyed object the builder UI assembles.
type GenerationConfig struct {
	SubjectGender      string `json:"subject_gender,omitempty"`
	SubjectDescription string `json:"subject_description,omitempty"`
	// At most MaxSubjectImages entries survive normalization.
	SubjectImageURLs []string `json:"subject_image_urls,omitempty"`

	Niche       string `json:"niche,omitempty"`
	Environment string `json:"environment,omitempty"`

	ShotType       string `json:"shot_type,omitempty"`
	LayoutPosition string `json:"layout_position,omitempty"`
	Dimensions     string `json:"dimensions,omitempty"`
	ImageSize      string `json:"image_size,omitempty"`

	TextOverlay      TextOverlay      `json:"text_overlay"`
	VisualAttributes VisualAttributes `json:"visual_attributes"`
	FloatingElements FloatingElements `json:"floating_elements"`

	AmbientColor string `json:"ambient_color,omitempty"`
	RimColor     string `json:"rim_color,omitempty"`
	FillColor    string `json:"fill_color,omitempty"`

	LogoURL string `json:"logo_url,omitempty"`

	// Index-aligned with StyleReferenceInstructions.
	StyleReferenceURLs         []string `json:"style_reference_urls,omitempty"`
	StyleReferenceInstructions []string `json:"style_reference_instructions,omitempty"`

	AdditionalPrompt string `json:"additional_prompt,omitempty"`

	AIConnectionID string `json:"ai_connection_id,omitempty"`
	Quantity       int    `json:"quantity,omitempty"`
}

// NormalizeConfig is the single place enum-like fields are validated. Unknown
// shot types and layout positions are rejected; dimensions and image size are
// coerced to their defaults; list fields are trimmed to their caps; quantity is
// clamped to [MinQuantity, MaxQuantity].
func NormalizeConfig(cfg GenerationConfig) (GenerationConfig, error) {
	switch cfg.ShotType {
	case "", ShotTypeCloseUp, ShotTypeMedioBusto, ShotTypeAmericano:
	default:
		return cfg, fmt.Errorf("unknown shot_type %q", cfg.ShotType)
	}

	switch cfg.LayoutPosition {
	case "", LayoutLeft, LayoutCenter, LayoutRight:
	default:
		return cfg, fmt.Errorf("unknown layout_position %q", cfg.LayoutPosition)
	}

	switch cfg.SubjectGender {
	case "", GenderMale, GenderFemale:
	default:
		return cfg, fmt.Errorf("unknown subject_gender %q", cfg.SubjectGender)
	}

	cfg.Dimensions = NormalizeDimensions(cfg.Dimensions)
	cfg.ImageSize = NormalizeImageSize(cfg.ImageSize)
	cfg.Quantity = ClampQuantity(cfg.Quantity)

	if len(cfg.SubjectImageURLs) > MaxSubjectImages {
		cfg.SubjectImageURLs = cfg.SubjectImageURLs[:MaxSubjectImages]
	}
	if len(cfg.StyleReferenceURLs) > MaxStyleRefImages {
		cfg.StyleReferenceURLs = cfg.StyleReferenceURLs[:MaxStyleRefImages]
	}

	if cfg.VisualAttributes.Sobriety < 0 {
		cfg.VisualAttributes.Sobriety = 0
	}
	if cfg.VisualAttributes.Sobriety > 100 {
		cfg.VisualAttributes.Sobriety = 100
	}

	return cfg, nil
}

func NormalizeDimensions(d string) string {
	switch d {
	case DimensionsPortrait, DimensionsStory, DimensionsLandscape:
		return d
	default:
		return DimensionsSquare
	}
}

func NormalizeImageSize(s string) string {
	switch s {
	case ImageSize2K, ImageSize4K:
		return s
	default:
		return ImageSize1K
	}
}

func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// DimensionsToPixels maps the dimensions enum to output pixel sizes, used when
// a provider does not report the size of the artifact it produced.
func DimensionsToPixels(d string) (width, height int) {
	switch NormalizeDimensions(d) {
	case DimensionsPortrait:
		return 1024, 1280
	case DimensionsStory:
		return 1024, 1820
	case DimensionsLandscape:
		return 1820, 1024
	default:
		return 1024, 1024
	}
}
