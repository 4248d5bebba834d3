package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/prompt"
)

func fullConfig() models.GenerationConfig {
	return models.GenerationConfig{
		SubjectGender:      models.GenderFemale,
		SubjectDescription: "sorrindo, jaqueta azul",
		Niche:              "fitness",
		Environment:        "academia moderna",
		AmbientColor:       "azul profundo",
		RimColor:           "dourado",
		ShotType:           models.ShotTypeCloseUp,
		LayoutPosition:     models.LayoutCenter,
		Dimensions:         models.DimensionsPortrait,
		TextOverlay:        models.TextOverlay{Enabled: true, Headline: "Treine agora"},
		VisualAttributes: models.VisualAttributes{
			Styles:         []string{"minimalista", "vibrante"},
			Sobriety:       80,
			UltraRealistic: true,
		},
		FloatingElements: models.FloatingElements{Enabled: true, Text: "50% OFF"},
		StyleReferenceURLs: []string{
			"https://example.com/ref1.png",
			"https://example.com/ref2.png",
		},
		StyleReferenceInstructions: []string{"a paleta de cores"},
		LogoURL:                    "https://example.com/logo.png",
		AdditionalPrompt:           "fundo com textura sutil",
	}
}

func TestCompile_Deterministic(t *testing.T) {
	cfg := fullConfig()
	first := prompt.Compile(cfg, prompt.CompileOptions{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, prompt.Compile(cfg, prompt.CompileOptions{}))
	}
}

func TestCompile_OnlyDimensions(t *testing.T) {
	cfg := models.GenerationConfig{Dimensions: models.DimensionsPortrait}
	assert.Equal(t, "Formato: 4:5. Safe area para texto.", prompt.Compile(cfg, prompt.CompileOptions{}))
}

func TestCompile_EmptyConfigStillHasFormatClause(t *testing.T) {
	got := prompt.Compile(models.GenerationConfig{}, prompt.CompileOptions{})
	assert.Equal(t, "Formato: 1:1. Safe area para texto.", got)
}

func TestCompile_SubjectClause(t *testing.T) {
	tests := []struct {
		name        string
		gender      string
		description string
		want        string
	}{
		{"female with description", models.GenderFemale, "sorrindo", "Sujeito principal: mulher, sorrindo."},
		{"male only", models.GenderMale, "", "Sujeito principal: homem."},
		{"description only", "", "de terno", "Sujeito principal: de terno."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.GenerationConfig{SubjectGender: tt.gender, SubjectDescription: tt.description}
			assert.Contains(t, prompt.Compile(cfg, prompt.CompileOptions{}), tt.want)
		})
	}
}

func TestCompile_OmitsEmptyClauses(t *testing.T) {
	got := prompt.Compile(models.GenerationConfig{Dimensions: models.DimensionsStory}, prompt.CompileOptions{})
	assert.NotContains(t, got, "Sujeito")
	assert.NotContains(t, got, "Ambiente")
	assert.NotContains(t, got, "Estilo")
	assert.NotContains(t, got, "Referência")
	assert.NotContains(t, got, "logo")
}

func TestCompile_ToneFromSobriety(t *testing.T) {
	cfg := models.GenerationConfig{VisualAttributes: models.VisualAttributes{Styles: []string{"clean"}, Sobriety: 30}}
	assert.Contains(t, prompt.Compile(cfg, prompt.CompileOptions{}), "Tom mais criativo.")

	cfg.VisualAttributes.Sobriety = 51
	assert.Contains(t, prompt.Compile(cfg, prompt.CompileOptions{}), "Tom mais profissional.")
}

func TestCompile_StyleReferenceClause(t *testing.T) {
	cfg := models.GenerationConfig{
		StyleReferenceURLs:         []string{"u1", "u2"},
		StyleReferenceInstructions: []string{"as cores"},
	}
	got := prompt.Compile(cfg, prompt.CompileOptions{})
	assert.Contains(t, got, "Referência 1: copie as cores")
	assert.Contains(t, got, "Referência 2: reproduza o estilo geral")
}

func TestCompile_AdditionalPromptComesLast(t *testing.T) {
	cfg := fullConfig()
	got := prompt.Compile(cfg, prompt.CompileOptions{})
	assert.True(t, strings.HasSuffix(got, "fundo com textura sutil"))
}

func TestCompile_PriorityClauseInStyleReferenceOnlyMode(t *testing.T) {
	cfg := models.GenerationConfig{StyleReferenceURLs: []string{"u1"}}
	got := prompt.Compile(cfg, prompt.CompileOptions{StyleReferenceOnly: true})
	assert.True(t, strings.HasPrefix(got, "Use obrigatoriamente a referência de estilo"))

	// Without overrides present, no priority clause even in that mode.
	got = prompt.Compile(models.GenerationConfig{}, prompt.CompileOptions{StyleReferenceOnly: true})
	assert.False(t, strings.HasPrefix(got, "Use obrigatoriamente"))
}

func TestBuildStyleInstruction(t *testing.T) {
	cfg := models.GenerationConfig{
		StyleReferenceURLs:         []string{"u1", "u2"},
		StyleReferenceInstructions: []string{"the color palette"},
	}

	got := prompt.BuildStyleInstruction(cfg, false)
	assert.Contains(t, got, "reference 1: copy the color palette")
	assert.Contains(t, got, "reference 2: reproduce the overall style")
	assert.NotContains(t, got, "Do not copy any text")

	got = prompt.BuildStyleInstruction(cfg, true)
	assert.Contains(t, got, "Do not copy any text, wording or logo")
}

func TestBuildStyleInstruction_NoReferences(t *testing.T) {
	assert.Empty(t, prompt.BuildStyleInstruction(models.GenerationConfig{}, true))
}
