package testutil

import (
	"testing"

	"github.com/nhle/notification-center/internal/store"
)

// NewTestCache creates an in-memory Cache with all migrations applied.
// It automatically closes the cache when the test completes.
func NewTestCache(t *testing.T) *store.Cache {
	t.Helper()

	c, err := store.NewCache(":memory:")
	if err != nil {
		t.Fatalf("creating test cache: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing test cache: %v", err)
		}
	})

	return c
}
