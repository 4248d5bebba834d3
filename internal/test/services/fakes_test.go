package services_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/provider"
)

// fakeStore is an in-memory stand-in for the database layer. Image order is
// insertion order, which doubles as created_at order for the retention sweep.
type fakeStore struct {
	projects map[uuid.UUID]uuid.UUID
	conns    map[uuid.UUID]*models.AIConnection
	runs     map[uuid.UUID]*models.GenerationRun
	images   []*models.GeneratedImage

	failCreateImage bool
	failRetention   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[uuid.UUID]uuid.UUID),
		conns:    make(map[uuid.UUID]*models.AIConnection),
		runs:     make(map[uuid.UUID]*models.GenerationRun),
	}
}

func (s *fakeStore) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	owner, ok := s.projects[projectID]
	if !ok || owner != userID {
		return nil, sql.ErrNoRows
	}
	return &models.Project{ID: projectID, UserID: userID}, nil
}

func (s *fakeStore) CreateRun(run *models.GenerationRun) error {
	s.runs[run.ID] = run
	return nil
}

func (s *fakeStore) GetRun(runID, projectID uuid.UUID) (*models.GenerationRun, error) {
	run, ok := s.runs[runID]
	if !ok || run.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return run, nil
}

func (s *fakeStore) RecordRunError(runID uuid.UUID, errMsg string) error {
	run, ok := s.runs[runID]
	if !ok {
		return sql.ErrNoRows
	}
	run.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	return nil
}

func (s *fakeStore) MarkRunSuccess(runID uuid.UUID, providerLabel string, responseJSON json.RawMessage) error {
	run, ok := s.runs[runID]
	if !ok || run.Status != models.RunStatusRunning {
		return sql.ErrNoRows
	}
	run.Status = models.RunStatusSuccess
	run.Provider = providerLabel
	run.ResponseJSON = responseJSON
	return nil
}

func (s *fakeStore) MarkRunError(runID uuid.UUID, errMsg string) error {
	run, ok := s.runs[runID]
	if !ok || run.Status != models.RunStatusRunning {
		return sql.ErrNoRows
	}
	run.Status = models.RunStatusError
	run.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	return nil
}

func (s *fakeStore) CreateImage(img *models.GeneratedImage) error {
	if s.failCreateImage {
		return errors.New("insert failed")
	}
	s.images = append(s.images, img)
	return nil
}

func (s *fakeStore) GetImage(imageID, projectID uuid.UUID) (*models.GeneratedImage, error) {
	for _, img := range s.images {
		if img.ID == imageID && img.ProjectID == projectID {
			return img, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStore) RetentionSweep(projectID uuid.UUID, keep int) (int64, error) {
	if s.failRetention {
		return 0, errors.New("sweep failed")
	}
	var kept []*models.GeneratedImage
	var candidates []*models.GeneratedImage
	for _, img := range s.images {
		if img.ProjectID == projectID {
			candidates = append(candidates, img)
		} else {
			kept = append(kept, img)
		}
	}
	evicted := int64(0)
	for i, img := range candidates {
		if len(candidates)-i > keep {
			evicted++
			continue
		}
		kept = append(kept, img)
	}
	s.images = kept
	return evicted, nil
}

func (s *fakeStore) GetConnection(connectionID, userID uuid.UUID) (*models.AIConnection, error) {
	conn, ok := s.conns[connectionID]
	if !ok || conn.UserID != userID || !conn.Active {
		return nil, sql.ErrNoRows
	}
	return conn, nil
}

func (s *fakeStore) projectImages(projectID uuid.UUID) []*models.GeneratedImage {
	var out []*models.GeneratedImage
	for _, img := range s.images {
		if img.ProjectID == projectID {
			out = append(out, img)
		}
	}
	return out
}

// fakeAdapter returns canned results or a canned error.
type fakeAdapter struct {
	images []provider.Image
	err    error
	calls  int
}

func (a *fakeAdapter) Generate(ctx context.Context, conn *models.AIConnection, req provider.GenerateRequest) ([]provider.Image, error) {
	a.calls++
	return a.images, a.err
}

func (a *fakeAdapter) Refine(ctx context.Context, conn *models.AIConnection, req provider.RefineRequest) ([]provider.Image, error) {
	a.calls++
	return a.images, a.err
}

// fakeResolver hands every connection to the same adapter.
type fakeResolver struct {
	adapter provider.Adapter
	label   string
}

func (r *fakeResolver) Resolve(conn *models.AIConnection) (provider.Adapter, string) {
	if r.adapter == nil {
		return nil, ""
	}
	return r.adapter, r.label
}

// fakeEvents records published event names in order.
type fakeEvents struct {
	events []string
}

func (e *fakeEvents) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	e.events = append(e.events, event)
	return nil
}
