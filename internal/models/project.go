package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Run statuses. Transitions only move forward: running -> success | error.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Provider labels recorded on a run.
const (
	ProviderMock         = "mock"
	ProviderOpenRouter   = "openrouter"
	ProviderGoogle       = "google"
	ProviderMockFallback = "mock_fallback"
)

// Run types.
const (
	RunTypeGenerate = "generate"
	RunTypeRefine   = "refine"
)

type GenerationRun struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	ConfigID          uuid.NullUUID
	Type              string
	Status            string
	Provider          string
	RequestJSON       json.RawMessage
	ResponseJSON      json.RawMessage
	ParentRunID       uuid.NullUUID
	RefineInstruction sql.NullString
	ErrorMessage      sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type GeneratedImage struct {
	ID           uuid.UUID
	RunID        uuid.UUID
	ProjectID    uuid.UUID
	URL          string
	ThumbnailURL sql.NullString
	Width        int
	Height       int
	Favorited    bool
	CreatedAt    time.Time
}

// AIConnection is owned by the settings surface; this service only reads it to
// select and parametrize a provider adapter.
type AIConnection struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Provider     string
	APIKey       string
	APIURL       string
	DefaultModel string
	Capabilities json.RawMessage
	Active       bool
}
