package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/prompt"
	"neurodesign-backend/internal/provider"
	"neurodesign-backend/internal/supabase"
)

type GenerationService struct {
	store          Store
	resolver       AdapterResolver
	events         EventPublisher
	placeholderURL string
	retention      int
	log            *zap.Logger
}

func NewGenerationService(store Store, resolver AdapterResolver, events EventPublisher, placeholderURL string, retention int, log *zap.Logger) *GenerationService {
	return &GenerationService{
		store:          store,
		resolver:       resolver,
		events:         events,
		placeholderURL: placeholderURL,
		retention:      retention,
		log:            log,
	}
}

// Generate runs one generation attempt end to end: compile the prompt, call
// the selected adapter (falling back to placeholders on provider failure),
// persist the run and its images, and apply the retention policy. Every call
// creates a new run; the operation is not idempotent.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, req models.GenerateRequest) (*models.GenerateResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid projectId", ErrProjectNotOwned)
	}
	if _, err := s.store.GetProject(projectID, userID); err != nil {
		return nil, ErrProjectNotOwned
	}

	cfg, err := models.NormalizeConfig(req.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	quantity := cfg.Quantity

	promptText := prompt.Compile(cfg, prompt.CompileOptions{StyleReferenceOnly: req.StyleReferenceOnly})
	if strings.TrimSpace(promptText) == "" {
		return nil, ErrEmptyPrompt
	}
	if len(cfg.SubjectImageURLs) > 0 {
		promptText = prompt.SubjectFaceInstruction + " " + promptText
	}
	styleInstruction := prompt.BuildStyleInstruction(cfg, req.StyleReferenceOnly)

	run := &models.GenerationRun{
		ID:          uuid.New(),
		ProjectID:   projectID,
		ConfigID:    parseNullUUID(req.ConfigID),
		Type:        models.RunTypeGenerate,
		Status:      models.RunStatusRunning,
		Provider:    models.ProviderMock,
		RequestJSON: redactedSnapshot(cfg, promptText),
	}
	if err := s.store.CreateRun(run); err != nil {
		return nil, fmt.Errorf("%w: failed to insert run: %v", ErrPersistence, err)
	}
	s.events.PublishProjectEvent(projectID, "run_started", supabase.RunStartedPayload(projectID, run.ID, run.Type))

	providerLabel := models.ProviderMock
	var images []provider.Image

	if req.UserAIConnectionID != "" {
		images, providerLabel, err = s.callAdapter(ctx, userID, run.ID, req.UserAIConnectionID, provider.GenerateRequest{
			Prompt:             promptText,
			Quantity:           quantity,
			Dimensions:         cfg.Dimensions,
			ImageSize:          cfg.ImageSize,
			SubjectImageURLs:   cfg.SubjectImageURLs,
			StyleReferenceURLs: cfg.StyleReferenceURLs,
			StyleInstruction:   styleInstruction,
			LogoURL:            cfg.LogoURL,
		})
		if err != nil {
			// Non-adapter failure (connection load, run update): the one
			// truly fatal pre-provider path.
			s.store.MarkRunError(run.ID, err.Error())
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if len(images) == 0 {
		images = provider.PlaceholderImages(s.placeholderURL, quantity)
	}

	width, height := models.DimensionsToPixels(cfg.Dimensions)
	rows, err := s.persistImages(run.ID, projectID, images, width, height)
	if err != nil {
		s.store.MarkRunError(run.ID, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	responseJSON, _ := json.Marshal(rows)
	if err := s.store.MarkRunSuccess(run.ID, providerLabel, responseJSON); err != nil {
		return nil, fmt.Errorf("%w: failed to finalize run: %v", ErrPersistence, err)
	}

	evicted, err := s.store.RetentionSweep(projectID, s.retention)
	if err != nil {
		s.log.Warn("retention sweep failed", zap.String("project_id", projectID.String()), zap.Error(err))
	} else if evicted > 0 {
		s.events.PublishProjectEvent(projectID, "gallery_changed", supabase.GalleryChangedPayload(projectID, evicted))
	}

	s.events.PublishProjectEvent(projectID, "run_finished",
		supabase.RunFinishedPayload(projectID, run.ID, models.RunStatusSuccess, providerLabel, len(rows)))
	s.log.Info("generation finished",
		zap.String("project_id", projectID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("provider", providerLabel),
		zap.Int("images", len(rows)))

	return &models.GenerateResponse{RunID: run.ID.String(), Images: rows}, nil
}

// callAdapter loads the connection, resolves the adapter and invokes it.
// Adapter exceptions are rescued: the error is recorded on the run and an empty
// result comes back with the mock_fallback label. Errors returned from here are
// the non-adapter kind and abort the operation.
func (s *GenerationService) callAdapter(ctx context.Context, userID, runID uuid.UUID, connectionID string, req provider.GenerateRequest) ([]provider.Image, string, error) {
	connID, err := uuid.Parse(connectionID)
	if err != nil {
		return nil, "", fmt.Errorf("invalid userAiConnectionId: %v", err)
	}
	conn, err := s.store.GetConnection(connID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load ai connection: %v", err)
	}

	adapter, label := s.resolver.Resolve(conn)
	if adapter == nil {
		// Unrecognized connection: zero adapter images, mock path downstream.
		return nil, models.ProviderMock, nil
	}

	images, err := adapter.Generate(ctx, conn, req)
	if err != nil {
		s.log.Warn("provider call failed, falling back to mock",
			zap.String("run_id", runID.String()),
			zap.String("provider", label),
			zap.Error(err))
		if recErr := s.store.RecordRunError(runID, err.Error()); recErr != nil {
			return nil, "", fmt.Errorf("failed to record provider error: %v", recErr)
		}
		return nil, models.ProviderMockFallback, nil
	}

	return images, label, nil
}

func (s *GenerationService) persistImages(runID, projectID uuid.UUID, images []provider.Image, width, height int) ([]models.ImageResponse, error) {
	rows := make([]models.ImageResponse, 0, len(images))
	for _, img := range images {
		row := &models.GeneratedImage{
			ID:        uuid.New(),
			RunID:     runID,
			ProjectID: projectID,
			URL:       img.URL,
			Width:     width,
			Height:    height,
		}
		if err := s.store.CreateImage(row); err != nil {
			return nil, fmt.Errorf("failed to insert image: %v", err)
		}
		rows = append(rows, models.NewImageResponse(*row))
	}
	return rows, nil
}

// redactedSnapshot keeps the audit record small: binary-ish URL fields are
// dropped, the compiled prompt and the scalar config survive.
func redactedSnapshot(cfg models.GenerationConfig, compiledPrompt string) json.RawMessage {
	redacted := cfg
	redacted.SubjectImageURLs = nil
	redacted.StyleReferenceURLs = nil
	redacted.LogoURL = ""

	snapshot, _ := json.Marshal(map[string]any{
		"config": redacted,
		"prompt": compiledPrompt,
	})
	return snapshot
}

func parseNullUUID(s string) uuid.NullUUID {
	if s == "" {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
