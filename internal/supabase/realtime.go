package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; row updates on
	// generation_runs and generated_images trigger Realtime automatically.
	// Kept as the single seam for explicit event publishing.
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func RunStartedPayload(projectID, runID uuid.UUID, runType string) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"run_id":     runID.String(),
		"type":       runType,
		"status":     "running",
	}
}

func RunFinishedPayload(projectID, runID uuid.UUID, status, provider string, imageCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID.String(),
		"run_id":      runID.String(),
		"status":      status,
		"provider":    provider,
		"image_count": imageCount,
	}
}

func GalleryChangedPayload(projectID uuid.UUID, evicted int64) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"evicted":    evicted,
	}
}
