package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/tests/testutil"
)

func cached(id string, createdAt time.Time) model.Notification {
	return model.Notification{
		ID:          id,
		UserID:      "u1",
		WorkspaceID: "w1",
		Type:        model.TypeMention,
		Title:       "title " + id,
		Message:     "message " + id,
		Status:      model.StatusDelivered,
		Metadata:    map[string]string{"source": "test"},
		CreatedAt:   createdAt,
	}
}

func TestReplaceWindowRoundTrip(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := []model.Notification{
		cached("n1", base.Add(2*time.Hour)),
		cached("n2", base.Add(time.Hour)),
		cached("n3", base),
	}
	window[0].Read = true
	window[0].ActionURL = "/tasks/42"

	if err := c.ReplaceWindow(ctx, "u1", "w1", window); err != nil {
		t.Fatalf("ReplaceWindow: %v", err)
	}

	got, err := c.GetWindow(ctx, "u1", "w1", 0)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("window size = %d, want 3", len(got))
	}
	for i, want := range []string{"n1", "n2", "n3"} {
		if got[i].ID != want {
			t.Errorf("window[%d] = %s, want %s (newest first)", i, got[i].ID, want)
		}
	}
	if !got[0].Read {
		t.Error("read flag lost in round trip")
	}
	if got[0].ActionURL != "/tasks/42" {
		t.Errorf("action url = %q, want /tasks/42", got[0].ActionURL)
	}
	if got[0].Status != model.StatusDelivered {
		t.Errorf("status = %s, want delivered", got[0].Status)
	}
	if got[0].Metadata["source"] != "test" {
		t.Errorf("metadata = %v, want source=test", got[0].Metadata)
	}
}

func TestReplaceWindowClearsPriorRows(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := c.ReplaceWindow(ctx, "u1", "w1", []model.Notification{
		cached("old1", now), cached("old2", now),
	}); err != nil {
		t.Fatalf("first ReplaceWindow: %v", err)
	}

	if err := c.ReplaceWindow(ctx, "u1", "w1", []model.Notification{
		cached("new1", now),
	}); err != nil {
		t.Fatalf("second ReplaceWindow: %v", err)
	}

	got, err := c.GetWindow(ctx, "u1", "w1", 0)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new1" {
		t.Errorf("window = %v, want [new1]", got)
	}
}

func TestReplaceWindowScopedToIdentity(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC()
	other := cached("other", now)
	other.UserID = "u2"
	other.WorkspaceID = "w2"
	if err := c.UpsertNotification(ctx, other); err != nil {
		t.Fatalf("UpsertNotification: %v", err)
	}

	if err := c.ReplaceWindow(ctx, "u1", "w1", []model.Notification{
		cached("mine", now),
	}); err != nil {
		t.Fatalf("ReplaceWindow: %v", err)
	}

	got, err := c.GetWindow(ctx, "u2", "w2", 0)
	if err != nil {
		t.Fatalf("GetWindow other identity: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("other identity's rows clobbered: %d rows", len(got))
	}
}

func TestGetWindowLimit(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var window []model.Notification
	for i := 0; i < 5; i++ {
		window = append(window, cached(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute),
		))
	}
	if err := c.ReplaceWindow(ctx, "u1", "w1", window); err != nil {
		t.Fatalf("ReplaceWindow: %v", err)
	}

	got, err := c.GetWindow(ctx, "u1", "w1", 2)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limited window = %d rows, want 2", len(got))
	}
	// Newest rows win the cut.
	if got[0].ID != "e" || got[1].ID != "d" {
		t.Errorf("limited window = [%s %s], want [e d]", got[0].ID, got[1].ID)
	}
}

func TestUpsertAndDelete(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	n := cached("n1", time.Now().UTC())
	if err := c.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("UpsertNotification: %v", err)
	}

	n.Read = true
	n.Status = model.StatusAcknowledged
	if err := c.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("second UpsertNotification: %v", err)
	}

	got, err := c.GetWindow(ctx, "u1", "w1", 0)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert duplicated the row: %d rows", len(got))
	}
	if !got[0].Read || got[0].Status != model.StatusAcknowledged {
		t.Error("upsert did not replace the row")
	}

	if err := c.DeleteNotification(ctx, "n1"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	got, err = c.GetWindow(ctx, "u1", "w1", 0)
	if err != nil {
		t.Fatalf("GetWindow after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("row survived delete: %d rows", len(got))
	}
}

func TestPreferencesSnapshot(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	// No snapshot yet: nil record, no error.
	got, err := c.GetPreferences(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("GetPreferences on empty cache: %v", err)
	}
	if got != nil {
		t.Fatalf("empty cache returned %v, want nil", got)
	}

	p := model.DefaultPreferences("u1", "w1")
	p.NotifyDealsLost = false
	p.QuietHoursEnabled = true
	if err := c.SavePreferences(ctx, p); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err = c.GetPreferences(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got == nil {
		t.Fatal("snapshot missing after save")
	}
	if got.NotifyDealsLost || !got.QuietHoursEnabled {
		t.Error("snapshot record does not match saved record")
	}

	// A second save replaces the snapshot.
	p.QuietHoursEnabled = false
	if err := c.SavePreferences(ctx, p); err != nil {
		t.Fatalf("second SavePreferences: %v", err)
	}
	got, err = c.GetPreferences(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("GetPreferences after replace: %v", err)
	}
	if got.QuietHoursEnabled {
		t.Error("second save did not replace the snapshot")
	}
}
