package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ImageResponse struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	ProjectID    string `json:"project_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Favorited    bool   `json:"favorited"`
}

type GenerateResponse struct {
	RunID  string          `json:"runId"`
	Images []ImageResponse `json:"images"`
}

type RefineResponse struct {
	RunID    string          `json:"runId"`
	Images   []ImageResponse `json:"images"`
	Degraded bool            `json:"degraded,omitempty"`
}

type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
}

type CropResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewImageResponse(img GeneratedImage) ImageResponse {
	resp := ImageResponse{
		ID:        img.ID.String(),
		RunID:     img.RunID.String(),
		ProjectID: img.ProjectID.String(),
		URL:       img.URL,
		Width:     img.Width,
		Height:    img.Height,
		Favorited: img.Favorited,
	}
	if img.ThumbnailURL.Valid {
		resp.ThumbnailURL = img.ThumbnailURL.String
	}
	return resp
}
