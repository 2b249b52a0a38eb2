package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/pkg/logger"
)

func TestFeed_OutcomeReplacesLoading(t *testing.T) {
	feed := NewFeed(time.Minute, logger.Nop())

	feed.Loading("admin-1:system-prompt", "Uploading system prompt...")
	pending := feed.Pending("admin-1")
	require.Len(t, pending, 1)
	assert.Equal(t, LevelLoading, pending[0].Level)

	// уведомление о загрузке остается, пока его не заменят
	assert.Len(t, feed.Pending("admin-1"), 1)

	feed.Success("admin-1:system-prompt", "Upload completed successfully")
	pending = feed.Pending("admin-1")
	require.Len(t, pending, 1)
	assert.Equal(t, LevelSuccess, pending[0].Level)
	assert.Equal(t, "Upload completed successfully", pending[0].Message)

	assert.Empty(t, feed.Pending("admin-1"))
}

func TestFeed_ScopedByOwner(t *testing.T) {
	feed := NewFeed(time.Minute, logger.Nop())

	feed.Error("admin-1:system-prompt", "Embedding failed")
	feed.Error("admin-10:system-prompt", "Other admin")

	pending := feed.Pending("admin-1")
	require.Len(t, pending, 1)
	assert.Equal(t, "Embedding failed", pending[0].Message)

	assert.Len(t, feed.Pending("admin-10"), 1)
}

func TestFeed_Dismiss(t *testing.T) {
	feed := NewFeed(time.Minute, logger.Nop())

	feed.Loading("admin-1:system-prompt", "Uploading...")
	feed.Dismiss("admin-1:system-prompt")

	assert.Empty(t, feed.Pending("admin-1"))
}

func TestFeed_Expiry(t *testing.T) {
	feed := NewFeed(20*time.Millisecond, logger.Nop())

	feed.Error("admin-1:tones", "Failed")
	time.Sleep(40 * time.Millisecond)

	assert.Empty(t, feed.Pending("admin-1"))
}
