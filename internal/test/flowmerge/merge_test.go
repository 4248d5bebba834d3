package flowmerge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"neurodesign-backend/internal/flowmerge"
	"neurodesign-backend/internal/models"
)

func TestMerge_TextNodesConcatenate(t *testing.T) {
	out := flowmerge.Merge(flowmerge.FlowOutputs{
		ClientText:   "Marca de suplementos.",
		ContextText:  "  ",
		CampaignText: "Campanha de verão.",
	})

	assert.Equal(t, "Marca de suplementos. Campanha de verão.", out.AdditionalPrompt)
}

func TestMerge_FieldsMapThrough(t *testing.T) {
	out := flowmerge.Merge(flowmerge.FlowOutputs{
		AmbientColor:       "azul",
		LogoURL:            "logo.png",
		SubjectGender:      models.GenderFemale,
		StyleReferenceURLs: []string{"r1"},
		Styles:             []string{"minimalista"},
	})

	assert.Equal(t, "azul", out.AmbientColor)
	assert.Equal(t, "logo.png", out.LogoURL)
	assert.Equal(t, models.GenderFemale, out.SubjectGender)
	assert.Equal(t, []string{"r1"}, out.StyleReferenceURLs)
	assert.Equal(t, []string{"minimalista"}, out.Styles)
}

func TestFilterDisabled(t *testing.T) {
	overrides := flowmerge.ConfigOverrides{
		AmbientColor:       "azul",
		RimColor:           "dourado",
		LogoURL:            "logo.png",
		SubjectGender:      models.GenderMale,
		SubjectImageURLs:   []string{"s1"},
		StyleReferenceURLs: []string{"r1"},
		Styles:             []string{"clean"},
	}

	filtered := flowmerge.FilterDisabled(overrides, map[flowmerge.SupportType]bool{
		flowmerge.SupportColors:         true,
		flowmerge.SupportImageLogo:      true,
		flowmerge.SupportReferenceImage: true,
	})

	assert.Empty(t, filtered.AmbientColor)
	assert.Empty(t, filtered.RimColor)
	assert.Empty(t, filtered.LogoURL)
	assert.Nil(t, filtered.StyleReferenceURLs)
	// Categories not opted out survive.
	assert.Equal(t, models.GenderMale, filtered.SubjectGender)
	assert.Equal(t, []string{"clean"}, filtered.Styles)
}

func TestApply_OverridesWinWhereSet(t *testing.T) {
	base := models.GenerationConfig{
		AmbientColor:     "verde",
		AdditionalPrompt: "base prompt",
	}

	merged := flowmerge.Apply(base, flowmerge.ConfigOverrides{
		AmbientColor:     "azul",
		AdditionalPrompt: "flow prompt",
		Styles:           []string{"vibrante"},
	})

	assert.Equal(t, "azul", merged.AmbientColor)
	assert.Equal(t, "base prompt flow prompt", merged.AdditionalPrompt)
	assert.Equal(t, []string{"vibrante"}, merged.VisualAttributes.Styles)
}

func TestApply_EmptyOverridesLeaveBaseAlone(t *testing.T) {
	base := models.GenerationConfig{
		AmbientColor:       "verde",
		SubjectGender:      models.GenderFemale,
		StyleReferenceURLs: []string{"keep"},
	}

	merged := flowmerge.Apply(base, flowmerge.ConfigOverrides{})

	assert.Equal(t, base, merged)
}

func TestApply_StyleReferencesReplaceAsPair(t *testing.T) {
	base := models.GenerationConfig{
		StyleReferenceURLs:         []string{"old"},
		StyleReferenceInstructions: []string{"old instruction"},
	}

	merged := flowmerge.Apply(base, flowmerge.ConfigOverrides{
		StyleReferenceURLs:         []string{"new1", "new2"},
		StyleReferenceInstructions: []string{"i1", "i2"},
	})

	assert.Equal(t, []string{"new1", "new2"}, merged.StyleReferenceURLs)
	assert.Equal(t, []string{"i1", "i2"}, merged.StyleReferenceInstructions)
}
