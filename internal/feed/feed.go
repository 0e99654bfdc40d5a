package feed

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/push"
	"github.com/nhle/notification-center/internal/remote"
)

// deliveredBatchLimit bounds how many created-status notifications are
// promoted to delivered per visible batch, so opening the panel does not
// fire an unbounded burst of mutation calls.
const deliveredBatchLimit = 10

// Filters selects the visible subset of the loaded window. Filtering is
// client-side and never triggers a re-fetch.
type Filters struct {
	Category   model.Category
	UnreadOnly bool
}

// Store owns the in-memory notification window: a newest-first slice
// merged from the paginated query path and the live push channel. All
// mutations are optimistic; a failed backend write is logged and the
// local change kept (see DESIGN.md).
//
// Store is safe for use from Bubble Tea command goroutines.
type Store struct {
	svc   remote.Service
	prefs func() model.Preferences

	pageSize int

	mu            sync.Mutex
	items         []model.Notification
	offset        int
	hasMore       bool
	filters       Filters
	feedSupported bool
	serverCounts  map[model.Category]int
}

// New creates a feed store bound to the given service. The prefs
// function supplies the current preference record; it gates which
// incoming push inserts are surfaced.
func New(svc remote.Service, prefs func() model.Preferences, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Store{
		svc:           svc,
		prefs:         prefs,
		pageSize:      pageSize,
		filters:       Filters{Category: model.CategoryAll},
		feedSupported: true,
	}
}

// Load fetches the first page ordered by creation time descending,
// replacing the window. The aggregate feed endpoint is preferred; when
// the deployed backend lacks it, the store degrades permanently to the
// direct query path for this session.
func (s *Store) Load(ctx context.Context) error {
	page, counts, hasMore, err := s.fetchPage(ctx, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = page
	s.offset = len(page)
	s.hasMore = hasMore
	s.serverCounts = counts

	return nil
}

// Seed fills an empty window from cached rows so the panel can paint
// before the first fetch completes. A window that already holds remote
// data is left untouched.
func (s *Store) Seed(items []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) > 0 || len(items) == 0 {
		return
	}
	s.items = append([]model.Notification(nil), items...)
	s.offset = len(s.items)
}

// Window returns a copy of the full unfiltered window, newest first.
func (s *Store) Window() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Notification(nil), s.items...)
}

// LoadMore appends the next page to the tail. Errors are logged and
// leave hasMore sticky so the scroll trigger can retry. Calling LoadMore
// after exhaustion is a no-op.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	offset := s.offset
	s.mu.Unlock()

	page, counts, hasMore, err := s.fetchPage(ctx, offset)
	if err != nil {
		log.Printf("feed: loading more notifications: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range page {
		if s.indexOf(n.ID) >= 0 {
			continue
		}
		s.items = append(s.items, n)
	}
	s.offset += len(page)
	s.hasMore = hasMore
	if counts != nil {
		s.serverCounts = counts
	}

	return nil
}

// fetchPage retrieves one page via the aggregate endpoint, falling back
// to the direct list query when unsupported.
func (s *Store) fetchPage(
	ctx context.Context,
	offset int,
) ([]model.Notification, map[model.Category]int, bool, error) {
	s.mu.Lock()
	useFeed := s.feedSupported
	s.mu.Unlock()

	q := remote.ListQuery{
		Category: model.CategoryAll,
		Limit:    s.pageSize,
		Offset:   offset,
	}

	if useFeed {
		page, err := s.svc.FetchFeed(ctx, q)
		if err == nil {
			return page.Notifications, page.UnreadCounts, page.HasMore, nil
		}
		if !errors.Is(err, remote.ErrFeedUnsupported) {
			return nil, nil, false, err
		}

		log.Printf("feed: aggregate endpoint unavailable, using direct query")
		s.mu.Lock()
		s.feedSupported = false
		s.mu.Unlock()
	}

	items, err := s.svc.ListNotifications(ctx, q)
	if err != nil {
		return nil, nil, false, err
	}

	return items, nil, len(items) == s.pageSize, nil
}

// ApplyRemoteEvent merges one push event into the window. Inserts are
// de-duplicated by id and gated by the in-app channel toggle and the
// per-type preference; existing entries are never purged by preference
// changes. Updates replace in place, preserving position, so a read-state
// flip does not reorder the visible list. The return value reports
// whether an insert was accepted, which drives the desktop popup.
func (s *Store) ApplyRemoteEvent(ev push.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case push.EventInsert:
		if ev.New == nil {
			return false
		}
		// Guards against the race between the initial load and a push
		// event for the same row.
		if s.indexOf(ev.New.ID) >= 0 {
			return false
		}

		p := s.prefs()
		if !p.InAppEnabled || !p.Allows(ev.New.Type) {
			return false
		}

		s.items = append([]model.Notification{*ev.New}, s.items...)
		s.offset++
		return true

	case push.EventUpdate:
		if ev.New == nil {
			return false
		}
		if i := s.indexOf(ev.New.ID); i >= 0 {
			s.items[i] = *ev.New
		}
		return false

	case push.EventDelete:
		id := ""
		if ev.Old != nil {
			id = ev.Old.ID
		} else if ev.New != nil {
			id = ev.New.ID
		}
		if i := s.indexOf(id); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
			if s.offset > 0 {
				s.offset--
			}
		}
		return false
	}

	return false
}

// SetFilters replaces the active filters. Pure and synchronous: the view
// is recomputed from the already-loaded window.
func (s *Store) SetFilters(f Filters) {
	if f.Category == "" {
		f.Category = model.CategoryAll
	}
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Filters returns the active filters.
func (s *Store) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// View returns the filtered projection of the window: category match
// plus the unread-only toggle, newest first.
func (s *Store) View() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, 0, len(s.items))
	for _, n := range s.items {
		if !s.filters.Category.Matches(n.Type) {
			continue
		}
		if s.filters.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Len returns the size of the loaded window, ignoring filters.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasMore reports whether another page may be available.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Get returns the notification with the given id, if loaded.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return model.Notification{}, false
}

// GetCategoryCount returns the number of unread notifications in the
// loaded window matching the category. CategoryAll counts every unread
// entry. Counts reflect the loaded window only, not server-side history.
func (s *Store) GetCategoryCount(cat model.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if n.Read {
			continue
		}
		if cat.Matches(n.Type) {
			count++
		}
	}
	return count
}

// ServerUnreadCounts returns the backend-aggregated unread counts from
// the last feed fetch, or nil when the aggregate endpoint is not in use.
func (s *Store) ServerUnreadCounts() map[model.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.serverCounts == nil {
		return nil
	}
	out := make(map[model.Category]int, len(s.serverCounts))
	for k, v := range s.serverCounts {
		out[k] = v
	}
	return out
}

// MarkAsRead flags a notification as read, optimistically and
// best-effort: the backend write failure is logged, not rolled back.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Read = true
	}
	s.mu.Unlock()

	read := true
	if err := s.svc.UpdateNotification(ctx, id, remote.Patch{Read: &read}); err != nil {
		log.Printf("feed: marking notification %s read: %v", id, err)
		return err
	}
	return nil
}

// MarkAllAsRead flags every notification as read. The backend operation
// is workspace-scoped: it covers rows outside the loaded window too.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.serverCounts = nil
	s.mu.Unlock()

	if err := s.svc.MarkAllRead(ctx); err != nil {
		log.Printf("feed: marking all notifications read: %v", err)
		return err
	}
	return nil
}

// DeleteNotification removes a single notification.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		if s.offset > 0 {
			s.offset--
		}
	}
	s.mu.Unlock()

	if err := s.svc.DeleteNotification(ctx, id); err != nil {
		log.Printf("feed: deleting notification %s: %v", id, err)
		return err
	}
	return nil
}

// DeleteAllRead removes every read notification, locally and backend-wide.
func (s *Store) DeleteAllRead(ctx context.Context) error {
	s.mu.Lock()
	kept := s.items[:0]
	removed := 0
	for _, n := range s.items {
		if n.Read {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	s.offset -= removed
	if s.offset < 0 {
		s.offset = 0
	}
	s.mu.Unlock()

	if err := s.svc.DeleteAllRead(ctx); err != nil {
		log.Printf("feed: deleting read notifications: %v", err)
		return err
	}
	return nil
}

// MarkVisibleDelivered advances up to deliveredBatchLimit created-status
// notifications to delivered. Called when the panel renders a batch.
// Transitions already past delivered are untouched, so repeated calls
// are idempotent.
func (s *Store) MarkVisibleDelivered(ctx context.Context) error {
	s.mu.Lock()
	var ids []string
	for i := range s.items {
		if len(ids) >= deliveredBatchLimit {
			break
		}
		if s.items[i].Status.AtLeast(model.StatusDelivered) {
			continue
		}
		s.items[i].Status = model.StatusDelivered
		ids = append(ids, s.items[i].ID)
	}
	s.mu.Unlock()

	var firstErr error
	status := model.StatusDelivered
	for _, id := range ids {
		err := s.svc.UpdateNotification(ctx, id, remote.Patch{Status: &status})
		if err != nil {
			log.Printf("feed: marking notification %s delivered: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// MarkSeen advances a notification to seen. No-op when the status has
// already reached or passed seen.
func (s *Store) MarkSeen(ctx context.Context, id string) error {
	if !s.advanceStatus(id, model.StatusSeen) {
		return nil
	}

	status := model.StatusSeen
	if err := s.svc.UpdateNotification(ctx, id, remote.Patch{Status: &status}); err != nil {
		log.Printf("feed: marking notification %s seen: %v", id, err)
		return err
	}
	return nil
}

// Acknowledge advances a notification to acknowledged and sets read=true
// atomically, the transition taken on click/navigation. Backends that
// predate the status column reject the patch; the store falls back to a
// plain read flip so the click still lands.
func (s *Store) Acknowledge(ctx context.Context, id string) error {
	advanced := s.advanceStatus(id, model.StatusAcknowledged)

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Read = true
	}
	s.mu.Unlock()

	read := true
	if !advanced {
		// Already acknowledged; only ensure the read flag is persisted.
		if err := s.svc.UpdateNotification(ctx, id, remote.Patch{Read: &read}); err != nil {
			log.Printf("feed: marking notification %s read: %v", id, err)
			return err
		}
		return nil
	}

	status := model.StatusAcknowledged
	err := s.svc.UpdateNotification(ctx, id, remote.Patch{
		Read:   &read,
		Status: &status,
	})
	if err != nil {
		log.Printf("feed: acknowledging notification %s: %v", id, err)
		if fbErr := s.svc.UpdateNotification(ctx, id, remote.Patch{Read: &read}); fbErr != nil {
			log.Printf("feed: read fallback for notification %s: %v", id, fbErr)
			return fbErr
		}
	}
	return nil
}

// advanceStatus moves a notification's status forward to target and
// reports whether a change occurred. Statuses never regress.
func (s *Store) advanceStatus(id string, target model.DeliveryStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if s.items[i].Status.AtLeast(target) {
		return false
	}
	s.items[i].Status = target
	return true
}

// indexOf returns the position of id in the window, or -1. Callers must
// hold s.mu.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
