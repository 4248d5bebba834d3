package supabase

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"neurodesign-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// GetOrCreateProject returns the user's most recently updated project, creating
// one when none exists. The generation UI relies on this lazy creation on first
// visit.
func (d *DatabaseClient) GetOrCreateProject(userID uuid.UUID, name string) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRow(`
		SELECT id, user_id, name, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID).Scan(&project.ID, &project.UserID, &project.Name, &project.CreatedAt, &project.UpdatedAt)
	if err == nil {
		return &project, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if name == "" {
		name = "Novo projeto"
	}
	err = d.db.QueryRow(`
		INSERT INTO projects (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, created_at, updated_at
	`, uuid.New(), userID, name).Scan(&project.ID, &project.UserID, &project.Name, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &project, nil
}

func (d *DatabaseClient) ListProjects(userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, name, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, nil
}

func (d *DatabaseClient) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRow(`
		SELECT id, user_id, name, created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(&project.ID, &project.UserID, &project.Name, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (d *DatabaseClient) RenameProject(projectID, userID uuid.UUID, name string) error {
	result, err := d.db.Exec(`
		UPDATE projects
		SET name = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, name, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *DatabaseClient) DeleteProject(projectID, userID uuid.UUID) error {
	_, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
	return err
}

func (d *DatabaseClient) CreateRun(run *models.GenerationRun) error {
	return d.db.QueryRow(`
		INSERT INTO generation_runs (id, project_id, config_id, type, status, provider, request_json, parent_run_id, refine_instruction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, run.ID, run.ProjectID, run.ConfigID, run.Type, run.Status, run.Provider,
		run.RequestJSON, run.ParentRunID, run.RefineInstruction,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

func (d *DatabaseClient) GetRun(runID, projectID uuid.UUID) (*models.GenerationRun, error) {
	var run models.GenerationRun
	err := d.db.QueryRow(`
		SELECT id, project_id, config_id, type, status, provider, request_json, response_json,
		       parent_run_id, refine_instruction, error_message, created_at, updated_at
		FROM generation_runs
		WHERE id = $1 AND project_id = $2
	`, runID, projectID).Scan(
		&run.ID, &run.ProjectID, &run.ConfigID, &run.Type, &run.Status, &run.Provider,
		&run.RequestJSON, &run.ResponseJSON, &run.ParentRunID, &run.RefineInstruction,
		&run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// RecordRunError stores the adapter error without terminating the run; the
// orchestrator continues into the fallback path afterwards.
func (d *DatabaseClient) RecordRunError(runID uuid.UUID, errMsg string) error {
	_, err := d.db.Exec(`
		UPDATE generation_runs
		SET error_message = $1, updated_at = NOW()
		WHERE id = $2
	`, errMsg, runID)
	return err
}

func (d *DatabaseClient) MarkRunSuccess(runID uuid.UUID, provider string, responseJSON json.RawMessage) error {
	_, err := d.db.Exec(`
		UPDATE generation_runs
		SET status = $1, provider = $2, response_json = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, models.RunStatusSuccess, provider, responseJSON, runID, models.RunStatusRunning)
	return err
}

func (d *DatabaseClient) MarkRunError(runID uuid.UUID, errMsg string) error {
	_, err := d.db.Exec(`
		UPDATE generation_runs
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.RunStatusError, errMsg, runID, models.RunStatusRunning)
	return err
}

// ReapStaleRuns marks runs stuck in running for longer than maxAge as errored.
// Invoked at startup; a crash between run insert and terminal update would
// otherwise leave the run running forever.
func (d *DatabaseClient) ReapStaleRuns(maxAge time.Duration) (int64, error) {
	result, err := d.db.Exec(`
		UPDATE generation_runs
		SET status = $1, error_message = 'timed out', updated_at = NOW()
		WHERE status = $2 AND created_at < $3
	`, models.RunStatusError, models.RunStatusRunning, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale runs: %w", err)
	}
	return result.RowsAffected()
}

func (d *DatabaseClient) CreateImage(img *models.GeneratedImage) error {
	return d.db.QueryRow(`
		INSERT INTO generated_images (id, run_id, project_id, url, thumbnail_url, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, img.ID, img.RunID, img.ProjectID, img.URL, img.ThumbnailURL, img.Width, img.Height,
	).Scan(&img.CreatedAt)
}

func (d *DatabaseClient) ListImages(projectID uuid.UUID) ([]models.GeneratedImage, error) {
	rows, err := d.db.Query(`
		SELECT id, run_id, project_id, url, thumbnail_url, width, height, favorited, created_at
		FROM generated_images
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []models.GeneratedImage
	for rows.Next() {
		var img models.GeneratedImage
		if err := rows.Scan(&img.ID, &img.RunID, &img.ProjectID, &img.URL, &img.ThumbnailURL,
			&img.Width, &img.Height, &img.Favorited, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	return images, nil
}

func (d *DatabaseClient) GetImage(imageID, projectID uuid.UUID) (*models.GeneratedImage, error) {
	var img models.GeneratedImage
	err := d.db.QueryRow(`
		SELECT id, run_id, project_id, url, thumbnail_url, width, height, favorited, created_at
		FROM generated_images
		WHERE id = $1 AND project_id = $2
	`, imageID, projectID).Scan(&img.ID, &img.RunID, &img.ProjectID, &img.URL, &img.ThumbnailURL,
		&img.Width, &img.Height, &img.Favorited, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

func (d *DatabaseClient) DeleteImage(imageID, projectID uuid.UUID) error {
	result, err := d.db.Exec(`
		DELETE FROM generated_images
		WHERE id = $1 AND project_id = $2
	`, imageID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *DatabaseClient) SetImageFavorited(imageID, projectID uuid.UUID, favorited bool) error {
	result, err := d.db.Exec(`
		UPDATE generated_images
		SET favorited = $1
		WHERE id = $2 AND project_id = $3
	`, favorited, imageID, projectID)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RetentionSweep keeps the `keep` most recently created images of the project
// and deletes the rest. The survivor set is computed inside the statement, so
// the sweep runs as one round trip; concurrent runs for the same project can
// still momentarily exceed the bound (best effort, not a hard invariant).
func (d *DatabaseClient) RetentionSweep(projectID uuid.UUID, keep int) (int64, error) {
	result, err := d.db.Exec(`
		DELETE FROM generated_images
		WHERE project_id = $1
		  AND id NOT IN (
			SELECT id FROM generated_images
			WHERE project_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		  )
	`, projectID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to run retention sweep: %w", err)
	}
	return result.RowsAffected()
}

// GetConnection loads an AI connection, enforcing ownership and the active
// flag. The service never writes to this table.
func (d *DatabaseClient) GetConnection(connectionID, userID uuid.UUID) (*models.AIConnection, error) {
	var conn models.AIConnection
	err := d.db.QueryRow(`
		SELECT id, user_id, provider, api_key, api_url, default_model, capabilities, active
		FROM ai_connections
		WHERE id = $1 AND user_id = $2 AND active = TRUE
	`, connectionID, userID).Scan(&conn.ID, &conn.UserID, &conn.Provider, &conn.APIKey,
		&conn.APIURL, &conn.DefaultModel, &conn.Capabilities, &conn.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to get ai connection: %w", err)
	}

	return &conn, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
