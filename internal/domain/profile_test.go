package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeletedProfileExpired(t *testing.T) {
	deletedAt := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	d := &DeletedProfile{DeletedAt: deletedAt}

	assert.False(t, d.Expired(deletedAt.Add(29*24*time.Hour)))
	// The instant the window closes is still restorable.
	assert.False(t, d.Expired(deletedAt.Add(ReactivationWindow)))
	assert.True(t, d.Expired(deletedAt.Add(ReactivationWindow+time.Second)))
	assert.True(t, d.Expired(deletedAt.Add(31*24*time.Hour)))
}
