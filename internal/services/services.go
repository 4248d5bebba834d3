// Package services holds the generation and refinement orchestrators: the run
// state machine, provider dispatch with mock fallback, and the gallery
// retention policy.
package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/provider"
)

// Client-correctable input errors, surfaced as HTTP 400.
var (
	ErrEmptyPrompt = errors.New("prompt vazio")
	ErrNoAction    = errors.New("nenhuma ação informada")
)

// Lookup failures. A project miss means the caller does not own it (403); run
// and image misses are plain 404s.
var (
	ErrProjectNotOwned = errors.New("project not found or not owned by caller")
	ErrRunNotFound     = errors.New("run not found")
	ErrImageNotFound   = errors.New("image not found")
)

// ErrPersistence marks a fatal storage-layer failure: unlike provider errors it
// is never downgraded to a fallback result.
var ErrPersistence = errors.New("persistence failure")

// Store is the slice of the database layer the orchestrators depend on.
// *supabase.DatabaseClient satisfies it.
type Store interface {
	GetProject(projectID, userID uuid.UUID) (*models.Project, error)
	CreateRun(run *models.GenerationRun) error
	GetRun(runID, projectID uuid.UUID) (*models.GenerationRun, error)
	RecordRunError(runID uuid.UUID, errMsg string) error
	MarkRunSuccess(runID uuid.UUID, provider string, responseJSON json.RawMessage) error
	MarkRunError(runID uuid.UUID, errMsg string) error
	CreateImage(img *models.GeneratedImage) error
	GetImage(imageID, projectID uuid.UUID) (*models.GeneratedImage, error)
	RetentionSweep(projectID uuid.UUID, keep int) (int64, error)
	GetConnection(connectionID, userID uuid.UUID) (*models.AIConnection, error)
}

// AdapterResolver selects the provider adapter for a connection.
// *provider.Registry satisfies it.
type AdapterResolver interface {
	Resolve(conn *models.AIConnection) (provider.Adapter, string)
}

// EventPublisher is the realtime seam; publishing is fire-and-forget.
type EventPublisher interface {
	PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error
}

const staleRunAge = 30 * time.Minute

// StaleRunAge is how long a run may sit in running before the startup sweep
// marks it errored.
func StaleRunAge() time.Duration { return staleRunAge }
