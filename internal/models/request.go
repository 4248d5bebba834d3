package models

type GenerateRequest struct {
	ProjectID          string           `json:"projectId"`
	ConfigID           string           `json:"configId,omitempty"`
	Config             GenerationConfig `json:"config"`
	UserAIConnectionID string           `json:"userAiConnectionId,omitempty"`
	StyleReferenceOnly bool             `json:"style_reference_only,omitempty"`
}

type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ConfigOverrides struct {
	Dimensions string `json:"dimensions,omitempty"`
}

type RefineRequest struct {
	ProjectID          string           `json:"projectId"`
	RunID              string           `json:"runId"`
	ImageID            string           `json:"imageId"`
	Instruction        string           `json:"instruction,omitempty"`
	ConfigOverrides    *ConfigOverrides `json:"configOverrides,omitempty"`
	UserAIConnectionID string           `json:"userAiConnectionId,omitempty"`
	ReferenceImageURL  string           `json:"referenceImageUrl,omitempty"`
	ReplacementImageURL string          `json:"replacementImageUrl,omitempty"`
	AddImageURL        string           `json:"addImageUrl,omitempty"`
	Region             *Region          `json:"region,omitempty"`
	RegionCropImageURL string           `json:"regionCropImageUrl,omitempty"`
	SelectionAction    string           `json:"selectionAction,omitempty"`
	SelectionText      string           `json:"selectionText,omitempty"`
	SelectionFont      string           `json:"selectionFont,omitempty"`
	SelectionFontStyle string           `json:"selectionFontStyle,omitempty"`
}

type CreateProjectRequest struct {
	Name string `json:"name,omitempty"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type CropRequest struct {
	Region Region `json:"region"`
}
