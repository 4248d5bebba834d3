package supabase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"neurodesign-backend/internal/supabase"
)

func TestStorageClient_GetPublicURL(t *testing.T) {
	client, err := supabase.NewStorageClient("https://abc.supabase.co/", "service-key", "generated-images")
	require.NoError(t, err)

	url := client.GetPublicURL("users/u1/projects/p1/crops/crop.png")

	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/generated-images/users/u1/projects/p1/crops/crop.png", url)
}
