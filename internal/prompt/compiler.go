// Package prompt turns a structured generation config into the natural-language
// prompt sent to image providers. Compilation is pure: the same config always
// yields the same string, and absent fields contribute no text.
package prompt

import (
	"fmt"
	"strings"

	"neurodesign-backend/internal/models"
)

// SubjectFaceInstruction is prepended by the orchestrator (not the compiler)
// whenever subject reference photos are supplied. Providers that have no
// first-class "subject image" parameter still need the identity constraint
// spelled out in text.
const SubjectFaceInstruction = "Mantenha exatamente o mesmo rosto, identidade e traços da pessoa mostrada nas fotos do sujeito."

type CompileOptions struct {
	// StyleReferenceOnly marks calls coming from a slide or node that supplies
	// its own style references, subject photos or colors; those overrides must
	// take priority over the base prompt ordering.
	StyleReferenceOnly bool
}

// Compile builds the prompt from ordered, additive clauses. Each clause is
// emitted only when its triggering field is non-empty; the format clause is
// always emitted.
func Compile(cfg models.GenerationConfig, opts CompileOptions) string {
	var clauses []string

	if opts.StyleReferenceOnly && hasOverrides(cfg) {
		clauses = append(clauses, "Use obrigatoriamente a referência de estilo, o sujeito principal indicado nas fotos e as cores indicadas.")
	}

	if c := subjectClause(cfg); c != "" {
		clauses = append(clauses, c)
	}
	if cfg.Niche != "" {
		clauses = append(clauses, fmt.Sprintf("Nicho: %s.", cfg.Niche))
	}
	if cfg.Environment != "" {
		clauses = append(clauses, fmt.Sprintf("Ambiente: %s.", cfg.Environment))
	}
	if c := colorsClause(cfg); c != "" {
		clauses = append(clauses, c)
	}
	if cfg.ShotType != "" {
		clauses = append(clauses, fmt.Sprintf("Enquadramento: %s.", cfg.ShotType))
	}
	if cfg.LayoutPosition != "" {
		clauses = append(clauses, fmt.Sprintf("Posição do sujeito: %s.", cfg.LayoutPosition))
	}
	if cfg.TextOverlay.Enabled {
		clauses = append(clauses, "Reservar espaço limpo para sobreposição de texto (headline, subheadline e CTA).")
	}
	clauses = append(clauses, styleClauses(cfg.VisualAttributes)...)
	if cfg.FloatingElements.Enabled && cfg.FloatingElements.Text != "" {
		clauses = append(clauses, fmt.Sprintf("Elementos flutuantes com o texto: %s.", cfg.FloatingElements.Text))
	}
	if c := styleReferenceClause(cfg); c != "" {
		clauses = append(clauses, c)
	}
	if cfg.LogoURL != "" {
		clauses = append(clauses, "Incluir o logo fornecido na composição, de forma discreta e legível.")
	}

	clauses = append(clauses, fmt.Sprintf("Formato: %s. Safe area para texto.", models.NormalizeDimensions(cfg.Dimensions)))

	if cfg.AdditionalPrompt != "" {
		clauses = append(clauses, cfg.AdditionalPrompt)
	}

	return strings.Join(clauses, " ")
}

// BuildStyleInstruction produces the per-call style guidance passed alongside
// the reference images. In style-reference-only mode it carries the caveat that
// text and branding from the references must not leak into the output.
func BuildStyleInstruction(cfg models.GenerationConfig, styleReferenceOnly bool) string {
	if len(cfg.StyleReferenceURLs) == 0 {
		return ""
	}
	var parts []string
	for i := range cfg.StyleReferenceURLs {
		if instr := referenceInstruction(cfg, i); instr != "" {
			parts = append(parts, fmt.Sprintf("reference %d: copy %s", i+1, instr))
		} else {
			parts = append(parts, fmt.Sprintf("reference %d: reproduce the overall style", i+1))
		}
	}
	instruction := "Match the visual style of the reference images (" + strings.Join(parts, "; ") + ")."
	if styleReferenceOnly {
		instruction += " Do not copy any text, wording or logo from the reference images."
	}
	return instruction
}

func hasOverrides(cfg models.GenerationConfig) bool {
	return len(cfg.StyleReferenceURLs) > 0 ||
		len(cfg.SubjectImageURLs) > 0 ||
		cfg.AmbientColor != "" || cfg.RimColor != "" || cfg.FillColor != ""
}

func subjectClause(cfg models.GenerationConfig) string {
	gender := ""
	switch cfg.SubjectGender {
	case models.GenderMale:
		gender = "homem"
	case models.GenderFemale:
		gender = "mulher"
	}

	if gender == "" && cfg.SubjectDescription == "" {
		return ""
	}

	parts := make([]string, 0, 2)
	if gender != "" {
		parts = append(parts, gender)
	}
	if cfg.SubjectDescription != "" {
		parts = append(parts, cfg.SubjectDescription)
	}
	return fmt.Sprintf("Sujeito principal: %s.", strings.Join(parts, ", "))
}

func colorsClause(cfg models.GenerationConfig) string {
	colors := make([]string, 0, 3)
	for _, c := range []string{cfg.AmbientColor, cfg.RimColor, cfg.FillColor} {
		if c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) == 0 {
		return ""
	}
	return fmt.Sprintf("Iluminação e cores: %s.", strings.Join(colors, ", "))
}

func styleClauses(va models.VisualAttributes) []string {
	var clauses []string
	if len(va.Styles) > 0 {
		clauses = append(clauses, fmt.Sprintf("Estilo: %s.", strings.Join(va.Styles, ", ")))
		if va.Sobriety <= 50 {
			clauses = append(clauses, "Tom mais criativo.")
		} else {
			clauses = append(clauses, "Tom mais profissional.")
		}
	}
	if va.UltraRealistic {
		clauses = append(clauses, "Ultra realista, fotografia profissional.")
	}
	if va.Blur {
		clauses = append(clauses, "Fundo com desfoque suave.")
	}
	if va.LateralGradient {
		clauses = append(clauses, "Gradiente lateral na composição.")
	}
	return clauses
}

func styleReferenceClause(cfg models.GenerationConfig) string {
	if len(cfg.StyleReferenceURLs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cfg.StyleReferenceURLs))
	for i := range cfg.StyleReferenceURLs {
		if instr := referenceInstruction(cfg, i); instr != "" {
			parts = append(parts, fmt.Sprintf("Referência %d: copie %s", i+1, instr))
		} else {
			parts = append(parts, fmt.Sprintf("Referência %d: reproduza o estilo geral", i+1))
		}
	}
	return fmt.Sprintf("A imagem deve se parecer com as referências de estilo (%s).", strings.Join(parts, "; "))
}

func referenceInstruction(cfg models.GenerationConfig, i int) string {
	if i < len(cfg.StyleReferenceInstructions) {
		return strings.TrimSpace(cfg.StyleReferenceInstructions[i])
	}
	return ""
}
