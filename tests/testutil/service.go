package testutil

import (
	"context"
	"sync"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/remote"
)

// FakeService is an in-memory remote.Service for tests. Items are held
// newest first, matching the server ordering. Call records let tests
// assert which remote operations a mutation issued.
type FakeService struct {
	mu sync.Mutex

	Items  []model.Notification
	Counts map[model.Category]int
	Prefs  *model.Preferences

	// FeedUnsupported makes FetchFeed answer ErrFeedUnsupported, forcing
	// callers onto the direct list path.
	FeedUnsupported bool

	// Errors injected per operation. Nil means success.
	ListErr        error
	UpdateErr      error
	DeleteErr      error
	MarkAllErr     error
	DeleteReadErr  error
	GetPrefsErr    error
	UpdatePrefsErr error

	Patches        map[string][]remote.Patch
	Deleted        []string
	MarkAllCalls   int
	DeleteAllCalls int
	SavedPrefs     []model.Preferences
}

var _ remote.Service = (*FakeService)(nil)

// NewFakeService creates an empty fake service.
func NewFakeService() *FakeService {
	return &FakeService{
		Counts:  map[model.Category]int{},
		Patches: map[string][]remote.Patch{},
	}
}

// FetchFeed pages through Items and attaches the configured counts.
func (f *FakeService) FetchFeed(
	ctx context.Context,
	q remote.ListQuery,
) (*remote.FeedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FeedUnsupported {
		return nil, remote.ErrFeedUnsupported
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	page := f.page(q)
	counts := make(map[model.Category]int, len(f.Counts))
	for k, v := range f.Counts {
		counts[k] = v
	}

	return &remote.FeedPage{
		Notifications: page,
		UnreadCounts:  counts,
		Total:         len(f.Items),
		HasMore:       q.Offset+len(page) < len(f.Items),
	}, nil
}

// ListNotifications pages through Items without counts.
func (f *FakeService) ListNotifications(
	ctx context.Context,
	q remote.ListQuery,
) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.page(q), nil
}

// page slices Items for the query's offset and limit. Callers hold mu.
func (f *FakeService) page(q remote.ListQuery) []model.Notification {
	items := f.Items
	if q.Category != "" && q.Category != model.CategoryAll {
		items = nil
		for _, n := range f.Items {
			if q.Category.Matches(n.Type) {
				items = append(items, n)
			}
		}
	}

	if q.Offset >= len(items) {
		return nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]model.Notification(nil), items[q.Offset:end]...)
}

// UpdateNotification records the patch.
func (f *FakeService) UpdateNotification(
	ctx context.Context,
	id string,
	patch remote.Patch,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.Patches[id] = append(f.Patches[id], patch)
	return nil
}

// DeleteNotification records the deletion.
func (f *FakeService) DeleteNotification(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

// MarkAllRead records the call.
func (f *FakeService) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.MarkAllErr != nil {
		return f.MarkAllErr
	}
	f.MarkAllCalls++
	return nil
}

// DeleteAllRead records the call.
func (f *FakeService) DeleteAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteReadErr != nil {
		return f.DeleteReadErr
	}
	f.DeleteAllCalls++
	return nil
}

// GetPreferences returns the configured record, or ErrNotFound.
func (f *FakeService) GetPreferences(
	ctx context.Context,
) (*model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetPrefsErr != nil {
		return nil, f.GetPrefsErr
	}
	if f.Prefs == nil {
		return nil, remote.ErrNotFound
	}
	p := *f.Prefs
	return &p, nil
}

// UpdatePreferences records the saved record.
func (f *FakeService) UpdatePreferences(
	ctx context.Context,
	p model.Preferences,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UpdatePrefsErr != nil {
		return f.UpdatePrefsErr
	}
	f.SavedPrefs = append(f.SavedPrefs, p)
	f.Prefs = &p
	return nil
}

// PatchCount returns how many patches were recorded for an id.
func (f *FakeService) PatchCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Patches[id])
}
