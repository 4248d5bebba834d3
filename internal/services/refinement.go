package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neurodesign-backend/internal/imagecrop"
	"neurodesign-backend/internal/models"
	"neurodesign-backend/internal/provider"
	"neurodesign-backend/internal/supabase"
)

type RefinementService struct {
	store          Store
	resolver       AdapterResolver
	events         EventPublisher
	placeholderURL string
	retention      int
	log            *zap.Logger
}

func NewRefinementService(store Store, resolver AdapterResolver, events EventPublisher, placeholderURL string, retention int, log *zap.Logger) *RefinementService {
	return &RefinementService{
		store:          store,
		resolver:       resolver,
		events:         events,
		placeholderURL: placeholderURL,
		retention:      retention,
		log:            log,
	}
}

// RefinePlan is the provider-neutral edit request: the ordered image list
// (source always first; the instruction refers to images by position) and the
// English instruction string.
type RefinePlan struct {
	ImageURLs   []string
	Instruction string
}

// BuildRefinePlan composes the edit from whichever inputs are present. Pure;
// the branch taken decides both the image ordering and the instruction text.
func BuildRefinePlan(sourceURL string, req models.RefineRequest) RefinePlan {
	var plan RefinePlan
	userInstruction := strings.TrimSpace(req.Instruction)

	switch {
	case req.ReferenceImageURL != "":
		plan.ImageURLs = []string{sourceURL, req.ReferenceImageURL}
		plan.Instruction = "Apply the visual style of image 2 to image 1, keeping the composition and subject of image 1 unchanged."
		if userInstruction != "" {
			plan.Instruction += " " + userInstruction
		}
	case req.ReplacementImageURL != "" && req.RegionCropImageURL != "":
		plan.ImageURLs = []string{sourceURL, req.RegionCropImageURL, req.ReplacementImageURL}
		plan.Instruction = "Replace the region of image 1 shown in image 2 with the content of image 3, keeping the rest of image 1 unchanged."
		if userInstruction != "" {
			plan.Instruction += " " + userInstruction
		}
	case req.ReplacementImageURL != "":
		plan.ImageURLs = []string{sourceURL, req.ReplacementImageURL}
		plan.Instruction = "Replace the element described in the instruction with the content of image 2, keeping everything else unchanged."
		if userInstruction != "" {
			plan.Instruction += " " + userInstruction
		}
	default:
		plan.ImageURLs = []string{sourceURL}
		if userInstruction != "" {
			plan.Instruction = "Apply this change to the image, keeping everything else the same: " + userInstruction
		} else {
			plan.Instruction = "Reproduce the image with minimal adjustments."
		}
	}

	if clause := selectionClause(req); clause != "" {
		plan.Instruction += " " + clause
	}

	if req.AddImageURL != "" {
		plan.ImageURLs = append(plan.ImageURLs, req.AddImageURL)
		plan.Instruction += " Integrate the content of the last image into the scene as an additional element, matching lighting and perspective."
	}

	return plan
}

func selectionClause(req models.RefineRequest) string {
	if req.Region == nil || req.SelectionAction == "" {
		return ""
	}
	switch req.SelectionAction {
	case imagecrop.ActionAddText:
		if req.SelectionText == "" {
			return ""
		}
		clause := fmt.Sprintf("Add the text %q inside the selected region.", req.SelectionText)
		if req.SelectionFont != "" {
			clause += fmt.Sprintf(" Use the font %s", req.SelectionFont)
			if req.SelectionFontStyle != "" {
				clause += " " + req.SelectionFontStyle
			}
			clause += "."
		}
		return clause
	case imagecrop.ActionRemoveText:
		return "Remove any text inside the selected region."
	case imagecrop.ActionRemoveContent:
		return "Remove the content inside the selected region and fill it to match the surroundings."
	}
	return ""
}

// hasAction reports whether the request carries at least one refine action.
func hasAction(req models.RefineRequest) bool {
	if strings.TrimSpace(req.Instruction) != "" {
		return true
	}
	if req.ReferenceImageURL != "" || req.ReplacementImageURL != "" || req.AddImageURL != "" {
		return true
	}
	if req.Region != nil {
		return true
	}
	if req.ConfigOverrides != nil && req.ConfigOverrides.Dimensions != "" && req.ConfigOverrides.Dimensions != models.DimensionsSquare {
		return true
	}
	return false
}

// Refine runs one refinement attempt. Unlike generation, a provider failure
// never fails the request: the result degrades to the fixed placeholder image
// and the error is kept on the run for diagnostics. The response says so via
// the degraded flag.
func (s *RefinementService) Refine(ctx context.Context, userID uuid.UUID, req models.RefineRequest) (*models.RefineResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid projectId", ErrProjectNotOwned)
	}
	parentRunID, err := uuid.Parse(req.RunID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	imageID, err := uuid.Parse(req.ImageID)
	if err != nil {
		return nil, ErrImageNotFound
	}

	if !hasAction(req) {
		return nil, ErrNoAction
	}

	if _, err := s.store.GetProject(projectID, userID); err != nil {
		return nil, ErrProjectNotOwned
	}
	if _, err := s.store.GetRun(parentRunID, projectID); err != nil {
		return nil, ErrRunNotFound
	}
	source, err := s.store.GetImage(imageID, projectID)
	if err != nil {
		return nil, ErrImageNotFound
	}

	plan := BuildRefinePlan(source.URL, req)

	dimensions := models.DimensionsSquare
	if req.ConfigOverrides != nil && req.ConfigOverrides.Dimensions != "" {
		dimensions = models.NormalizeDimensions(req.ConfigOverrides.Dimensions)
	}

	requestJSON, _ := json.Marshal(map[string]any{
		"instruction": plan.Instruction,
		"imageCount":  len(plan.ImageURLs),
		"dimensions":  dimensions,
		"action":      req.SelectionAction,
	})
	run := &models.GenerationRun{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Type:        models.RunTypeRefine,
		Status:      models.RunStatusRunning,
		Provider:    models.ProviderMock,
		RequestJSON: requestJSON,
		ParentRunID: uuid.NullUUID{UUID: parentRunID, Valid: true},
	}
	if req.Instruction != "" {
		run.RefineInstruction = sql.NullString{String: req.Instruction, Valid: true}
	}
	if err := s.store.CreateRun(run); err != nil {
		return nil, fmt.Errorf("%w: failed to insert run: %v", ErrPersistence, err)
	}
	s.events.PublishProjectEvent(projectID, "run_started", supabase.RunStartedPayload(projectID, run.ID, run.Type))

	images, providerLabel, degraded := s.callAdapter(ctx, userID, run.ID, req.UserAIConnectionID, provider.RefineRequest{
		Instruction: plan.Instruction,
		ImageURLs:   plan.ImageURLs,
		Dimensions:  dimensions,
	})

	width, height := models.DimensionsToPixels(dimensions)
	rows := make([]models.ImageResponse, 0, len(images))
	for _, img := range images {
		row := &models.GeneratedImage{
			ID:        uuid.New(),
			RunID:     run.ID,
			ProjectID: projectID,
			URL:       img.URL,
			Width:     width,
			Height:    height,
		}
		if err := s.store.CreateImage(row); err != nil {
			s.store.MarkRunError(run.ID, err.Error())
			return nil, fmt.Errorf("%w: failed to insert image: %v", ErrPersistence, err)
		}
		rows = append(rows, models.NewImageResponse(*row))
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
	s.log.Info("refinement finished",
		zap.String("project_id", projectID.String()),
		zap.String("run_id", run.ID.String()),
		zap.String("parent_run_id", parentRunID.String()),
		zap.String("provider", providerLabel),
		zap.Bool("degraded", degraded))

	return &models.RefineResponse{RunID: run.ID.String(), Images: rows, Degraded: degraded}, nil
}

// callAdapter mirrors the generation dispatch but rescues every failure mode,
// including connection-load errors: refine always resolves to some image.
func (s *RefinementService) callAdapter(ctx context.Context, userID, runID uuid.UUID, connectionID string, req provider.RefineRequest) ([]provider.Image, string, bool) {
	placeholder := provider.PlaceholderImages(s.placeholderURL, 1)

	if connectionID == "" {
		return placeholder, models.ProviderMock, false
	}

	connID, err := uuid.Parse(connectionID)
	if err != nil {
		s.store.RecordRunError(runID, "invalid userAiConnectionId: "+err.Error())
		return placeholder, models.ProviderMockFallback, true
	}
	conn, err := s.store.GetConnection(connID, userID)
	if err != nil {
		s.store.RecordRunError(runID, err.Error())
		return placeholder, models.ProviderMockFallback, true
	}

	adapter, label := s.resolver.Resolve(conn)
	if adapter == nil {
		return placeholder, models.ProviderMock, false
	}

	images, err := adapter.Refine(ctx, conn, req)
	if err != nil {
		s.log.Warn("provider refine failed, falling back to placeholder",
			zap.String("run_id", runID.String()),
			zap.String("provider", label),
			zap.Error(err))
		s.store.RecordRunError(runID, err.Error())
		return placeholder, models.ProviderMockFallback, true
	}

	return images, label, false
}
