package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/nhle/notification-center/internal/model"
)

// ListQuery controls filtering and pagination for notification lists.
type ListQuery struct {
	// Category limits results to a single UI category. CategoryAll (or
	// empty) returns every type.
	Category model.Category

	Limit  int
	Offset int
}

// FeedPage is one page of the aggregate feed endpoint: the notification
// window plus server-side unread counts.
type FeedPage struct {
	Notifications []model.Notification   `json:"notifications"`
	UnreadCounts  map[model.Category]int `json:"unread_counts"`
	Total         int                    `json:"total"`
	HasMore       bool                   `json:"has_more"`
}

// Patch describes a partial notification update. Nil fields are left
// unchanged by the backend.
type Patch struct {
	Read   *bool                 `json:"read,omitempty"`
	Status *model.DeliveryStatus `json:"status,omitempty"`
}

// Service is the contract for the notification query/command and
// preference persistence endpoints. Implementations are bound to one
// (user, workspace) pair at construction.
type Service interface {
	// FetchFeed retrieves a page via the aggregate feed endpoint.
	// Returns ErrFeedUnsupported when the deployed backend does not
	// provide it; callers fall back to ListNotifications.
	FetchFeed(ctx context.Context, q ListQuery) (*FeedPage, error)

	// ListNotifications retrieves a page via the direct query path,
	// ordered by creation time descending.
	ListNotifications(ctx context.Context, q ListQuery) ([]model.Notification, error)

	// UpdateNotification applies a partial update to a single record.
	UpdateNotification(ctx context.Context, id string, patch Patch) error

	// DeleteNotification removes a single record.
	DeleteNotification(ctx context.Context, id string) error

	// MarkAllRead flags every unread notification in the workspace as
	// read, including ones outside the loaded window.
	MarkAllRead(ctx context.Context) error

	// DeleteAllRead removes every read notification in the workspace.
	DeleteAllRead(ctx context.Context) error

	// GetPreferences retrieves the stored preference record. Returns
	// ErrNotFound when none exists; callers apply defaults.
	GetPreferences(ctx context.Context) (*model.Preferences, error)

	// UpdatePreferences replaces the stored preference record.
	UpdatePreferences(ctx context.Context, p model.Preferences) error
}

// HubService implements Service against the hub REST API.
type HubService struct {
	client      *Client
	userID      string
	workspaceID string
}

var _ Service = (*HubService)(nil)

// NewHubService creates a Service bound to the given user and workspace.
func NewHubService(client *Client, userID, workspaceID string) *HubService {
	return &HubService{
		client:      client,
		userID:      userID,
		workspaceID: workspaceID,
	}
}

// feedRequest is the body of the aggregate feed RPC.
type feedRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Category    string `json:"category,omitempty"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

// FetchFeed calls the aggregate feed RPC. Backend versions that predate
// the endpoint answer 404, which is surfaced as ErrFeedUnsupported so
// the feed store can degrade to the direct query path.
func (s *HubService) FetchFeed(
	ctx context.Context,
	q ListQuery,
) (*FeedPage, error) {
	req := feedRequest{
		UserID:      s.userID,
		WorkspaceID: s.workspaceID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.Category != "" && q.Category != model.CategoryAll {
		req.Category = string(q.Category)
	}

	var page FeedPage
	err := s.client.Post(ctx, "/api/v1/rpc/notification_feed", req, &page)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrFeedUnsupported
		}
		return nil, fmt.Errorf("fetching notification feed: %w", err)
	}

	return &page, nil
}

// listResponse is the envelope of the direct notification list endpoint.
type listResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

// ListNotifications queries the notifications table directly.
func (s *HubService) ListNotifications(
	ctx context.Context,
	q ListQuery,
) ([]model.Notification, error) {
	params := url.Values{}
	params.Set("user_id", s.userID)
	params.Set("limit", fmt.Sprintf("%d", q.Limit))
	params.Set("offset", fmt.Sprintf("%d", q.Offset))
	params.Set("order", "created_at.desc")
	if q.Category != "" && q.Category != model.CategoryAll {
		params.Set("category", string(q.Category))
	}

	path := fmt.Sprintf(
		"/api/v1/workspaces/%s/notifications?%s",
		url.PathEscape(s.workspaceID), params.Encode(),
	)

	var resp listResponse
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return resp.Notifications, nil
}

// UpdateNotification applies a partial update to a single notification.
func (s *HubService) UpdateNotification(
	ctx context.Context,
	id string,
	patch Patch,
) error {
	path := "/api/v1/notifications/" + url.PathEscape(id)
	if err := s.client.Patch(ctx, path, patch, nil); err != nil {
		return fmt.Errorf("updating notification %s: %w", id, err)
	}
	return nil
}

// DeleteNotification removes a single notification.
func (s *HubService) DeleteNotification(ctx context.Context, id string) error {
	path := "/api/v1/notifications/" + url.PathEscape(id)
	if err := s.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// bulkRequest scopes a bulk operation to the bound user.
type bulkRequest struct {
	UserID string `json:"user_id"`
}

// MarkAllRead marks every unread notification in the workspace as read.
func (s *HubService) MarkAllRead(ctx context.Context) error {
	path := fmt.Sprintf(
		"/api/v1/workspaces/%s/notifications/read_all",
		url.PathEscape(s.workspaceID),
	)
	if err := s.client.Post(ctx, path, bulkRequest{UserID: s.userID}, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// DeleteAllRead removes every read notification in the workspace.
func (s *HubService) DeleteAllRead(ctx context.Context) error {
	path := fmt.Sprintf(
		"/api/v1/workspaces/%s/notifications/read?user_id=%s",
		url.PathEscape(s.workspaceID), url.QueryEscape(s.userID),
	)
	if err := s.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting read notifications: %w", err)
	}
	return nil
}

// GetPreferences retrieves the stored preference record for the bound
// user and workspace.
func (s *HubService) GetPreferences(
	ctx context.Context,
) (*model.Preferences, error) {
	path := fmt.Sprintf(
		"/api/v1/workspaces/%s/preferences?user_id=%s",
		url.PathEscape(s.workspaceID), url.QueryEscape(s.userID),
	)

	var prefs model.Preferences
	if err := s.client.Get(ctx, path, &prefs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting preferences: %w", err)
	}

	return &prefs, nil
}

// UpdatePreferences replaces the stored preference record.
func (s *HubService) UpdatePreferences(
	ctx context.Context,
	p model.Preferences,
) error {
	p.UserID = s.userID
	p.WorkspaceID = s.workspaceID

	path := fmt.Sprintf(
		"/api/v1/workspaces/%s/preferences",
		url.PathEscape(s.workspaceID),
	)
	if err := s.client.Put(ctx, path, p, nil); err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	return nil
}
