package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"neurodesign-backend/internal/models"
)

func TestNormalizeConfig_RejectsUnknownShotType(t *testing.T) {
	_, err := models.NormalizeConfig(models.GenerationConfig{ShotType: "panoramic"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "shot_type")
}

func TestNormalizeConfig_RejectsUnknownLayoutPosition(t *testing.T) {
	_, err := models.NormalizeConfig(models.GenerationConfig{LayoutPosition: "top"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "layout_position")
}

func TestNormalizeConfig_RejectsUnknownGender(t *testing.T) {
	_, err := models.NormalizeConfig(models.GenerationConfig{SubjectGender: "other"})
	assert.Error(t, err)
}

func TestNormalizeConfig_CoercesDimensionsAndSize(t *testing.T) {
	cfg, err := models.NormalizeConfig(models.GenerationConfig{
		Dimensions: "21:9",
		ImageSize:  "8K",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DimensionsSquare, cfg.Dimensions)
	assert.Equal(t, models.ImageSize1K, cfg.ImageSize)
}

func TestNormalizeConfig_KeepsValidEnums(t *testing.T) {
	cfg, err := models.NormalizeConfig(models.GenerationConfig{
		ShotType:       models.ShotTypeAmericano,
		LayoutPosition: models.LayoutRight,
		Dimensions:     models.DimensionsStory,
		ImageSize:      models.ImageSize4K,
		SubjectGender:  models.GenderMale,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShotTypeAmericano, cfg.ShotType)
	assert.Equal(t, models.DimensionsStory, cfg.Dimensions)
	assert.Equal(t, models.ImageSize4K, cfg.ImageSize)
}

func TestNormalizeConfig_TrimsImageLists(t *testing.T) {
	cfg, err := models.NormalizeConfig(models.GenerationConfig{
		SubjectImageURLs:   []string{"s1", "s2", "s3", "s4"},
		StyleReferenceURLs: []string{"r1", "r2", "r3", "r4", "r5"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, cfg.SubjectImageURLs)
	assert.Equal(t, []string{"r1", "r2", "r3"}, cfg.StyleReferenceURLs)
}

func TestNormalizeConfig_ClampsSobriety(t *testing.T) {
	cfg, err := models.NormalizeConfig(models.GenerationConfig{
		VisualAttributes: models.VisualAttributes{Sobriety: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.VisualAttributes.Sobriety)

	cfg, err = models.NormalizeConfig(models.GenerationConfig{
		VisualAttributes: models.VisualAttributes{Sobriety: -10},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.VisualAttributes.Sobriety)
}

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{5, 5},
		{10, 5},
		{999, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, models.ClampQuantity(tt.in), "quantity %d", tt.in)
	}
}

func TestDimensionsToPixels(t *testing.T) {
	tests := []struct {
		dimensions string
		wantW      int
		wantH      int
	}{
		{models.DimensionsSquare, 1024, 1024},
		{models.DimensionsPortrait, 1024, 1280},
		{models.DimensionsStory, 1024, 1820},
		{models.DimensionsLandscape, 1820, 1024},
		{"nonsense", 1024, 1024},
		{"", 1024, 1024},
	}
	for _, tt := range tests {
		w, h := models.DimensionsToPixels(tt.dimensions)
		assert.Equal(t, tt.wantW, w, "width for %q", tt.dimensions)
		assert.Equal(t, tt.wantH, h, "height for %q", tt.dimensions)
	}
}
