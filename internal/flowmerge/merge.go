// Package flowmerge maps upstream flow-graph node outputs into partial
// generation-config overrides, with a per-consumer opt-out so one upstream
// configuration can be selectively muted per downstream slide.
package flowmerge

import (
	"strings"

	"neurodesign-backend/internal/models"
)

// SupportType names an override category a downstream consumer may disable.
type SupportType string

const (
	SupportReferenceImage SupportType = "reference_image"
	SupportImageLogo      SupportType = "image_logo"
	SupportColors         SupportType = "colors"
	SupportStyles         SupportType = "styles"
	SupportSubject        SupportType = "subject"
)

// FlowOutputs carries whatever the connected upstream nodes produced. Absent
// nodes leave their fields zero.
type FlowOutputs struct {
	ClientText   string
	ContextText  string
	CampaignText string
	AgentText    string

	AmbientColor string
	RimColor     string
	FillColor    string

	LogoURL string

	SubjectGender      string
	SubjectDescription string
	SubjectImageURLs   []string

	StyleReferenceURLs         []string
	StyleReferenceInstructions []string
	Styles                     []string
}

// ConfigOverrides is the partial generation config derived from the flow.
type ConfigOverrides struct {
	AdditionalPrompt string

	AmbientColor string
	RimColor     string
	FillColor    string

	LogoURL string

	SubjectGender      string
	SubjectDescription string
	SubjectImageURLs   []string

	StyleReferenceURLs         []string
	StyleReferenceInstructions []string
	Styles                     []string
}

// Merge is pure: text nodes concatenate into the additional prompt, the rest
// map field for field.
func Merge(out FlowOutputs) ConfigOverrides {
	var prompt []string
	for _, t := range []string{out.ClientText, out.ContextText, out.CampaignText, out.AgentText} {
		if s := strings.TrimSpace(t); s != "" {
			prompt = append(prompt, s)
		}
	}

	return ConfigOverrides{
		AdditionalPrompt: strings.Join(prompt, " "),

		AmbientColor: out.AmbientColor,
		RimColor:     out.RimColor,
		FillColor:    out.FillColor,

		LogoURL: out.LogoURL,

		SubjectGender:      out.SubjectGender,
		SubjectDescription: out.SubjectDescription,
		SubjectImageURLs:   out.SubjectImageURLs,

		StyleReferenceURLs:         out.StyleReferenceURLs,
		StyleReferenceInstructions: out.StyleReferenceInstructions,
		Styles:                     out.Styles,
	}
}

// FilterDisabled blanks every override category the consumer opted out of.
func FilterDisabled(o ConfigOverrides, disabled map[SupportType]bool) ConfigOverrides {
	if disabled[SupportReferenceImage] {
		o.StyleReferenceURLs = nil
		o.StyleReferenceInstructions = nil
	}
	if disabled[SupportImageLogo] {
		o.LogoURL = ""
	}
	if disabled[SupportColors] {
		o.AmbientColor = ""
		o.RimColor = ""
		o.FillColor = ""
	}
	if disabled[SupportStyles] {
		o.Styles = nil
	}
	if disabled[SupportSubject] {
		o.SubjectGender = ""
		o.SubjectDescription = ""
		o.SubjectImageURLs = nil
	}
	return o
}

// Apply folds the overrides into a base config, leaving base fields alone
// where the override is empty.
func Apply(base models.GenerationConfig, o ConfigOverrides) models.GenerationConfig {
	if o.AdditionalPrompt != "" {
		if base.AdditionalPrompt != "" {
			base.AdditionalPrompt = base.AdditionalPrompt + " " + o.AdditionalPrompt
		} else {
			base.AdditionalPrompt = o.AdditionalPrompt
		}
	}
	if o.AmbientColor != "" {
		base.AmbientColor = o.AmbientColor
	}
	if o.RimColor != "" {
		base.RimColor = o.RimColor
	}
	if o.FillColor != "" {
		base.FillColor = o.FillColor
	}
	if o.LogoURL != "" {
		base.LogoURL = o.LogoURL
	}
	if o.SubjectGender != "" {
		base.SubjectGender = o.SubjectGender
	}
	if o.SubjectDescription != "" {
		base.SubjectDescription = o.SubjectDescription
	}
	if len(o.SubjectImageURLs) > 0 {
		base.SubjectImageURLs = o.SubjectImageURLs
	}
	if len(o.StyleReferenceURLs) > 0 {
		base.StyleReferenceURLs = o.StyleReferenceURLs
		base.StyleReferenceInstructions = o.StyleReferenceInstructions
	}
	if len(o.Styles) > 0 {
		base.VisualAttributes.Styles = o.Styles
	}
	return base
}
