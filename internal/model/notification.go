package model

import "time"

// DeliveryStatus is the per-notification lifecycle stage. It only ever
// advances: created -> delivered -> seen -> acknowledged.
type DeliveryStatus string

const (
	StatusCreated      DeliveryStatus = "created"
	StatusDelivered    DeliveryStatus = "delivered"
	StatusSeen         DeliveryStatus = "seen"
	StatusAcknowledged DeliveryStatus = "acknowledged"
)

// statusRank orders delivery statuses for monotonicity checks.
var statusRank = map[DeliveryStatus]int{
	StatusCreated:      0,
	StatusDelivered:    1,
	StatusSeen:         2,
	StatusAcknowledged: 3,
}

// Rank returns the position of the status in the delivery lifecycle.
// Unknown statuses rank below created so they never block an advance.
func (s DeliveryStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether s has reached or passed the other status.
func (s DeliveryStatus) AtLeast(other DeliveryStatus) bool {
	return s.Rank() >= other.Rank()
}

// NotificationType identifies the business event that produced a
// notification. The set is closed; each type belongs to exactly one
// Category.
type NotificationType string

const (
	TypeMention        NotificationType = "mention"
	TypeCommentMention NotificationType = "comment_mention"

	TypeTaskAssigned  NotificationType = "task_assigned"
	TypeTaskCompleted NotificationType = "task_completed"
	TypeTaskDue       NotificationType = "task_due"
	TypeTaskComment   NotificationType = "task_comment"

	TypeDealWon          NotificationType = "deal_won"
	TypeDealLost         NotificationType = "deal_lost"
	TypeDealStageChanged NotificationType = "deal_stage_changed"
	TypeLeadAssigned     NotificationType = "lead_assigned"

	TypeDocumentShared    NotificationType = "document_shared"
	TypeDocumentCommented NotificationType = "document_commented"

	TypeTeamInvite   NotificationType = "team_invite"
	TypeMemberJoined NotificationType = "member_joined"
	TypeRoleChanged  NotificationType = "role_changed"

	TypeAchievementUnlocked NotificationType = "achievement_unlocked"
	TypeGoalReached         NotificationType = "goal_reached"
)

// Category is the client-side grouping of notification types used for
// filtering. CategoryAll is a pseudo-category matching every type.
type Category string

const (
	CategoryAll          Category = "all"
	CategoryMentions     Category = "mentions"
	CategoryTasks        Category = "tasks"
	CategoryDeals        Category = "deals"
	CategoryDocuments    Category = "documents"
	CategoryTeam         Category = "team"
	CategoryAchievements Category = "achievements"
)

// Categories lists every category in the order the UI presents them.
var Categories = []Category{
	CategoryAll,
	CategoryMentions,
	CategoryTasks,
	CategoryDeals,
	CategoryDocuments,
	CategoryTeam,
	CategoryAchievements,
}

// categoryTypes maps each non-all category to its fixed type set.
var categoryTypes = map[Category][]NotificationType{
	CategoryMentions: {TypeMention, TypeCommentMention},
	CategoryTasks: {
		TypeTaskAssigned, TypeTaskCompleted, TypeTaskDue, TypeTaskComment,
	},
	CategoryDeals: {
		TypeDealWon, TypeDealLost, TypeDealStageChanged, TypeLeadAssigned,
	},
	CategoryDocuments: {TypeDocumentShared, TypeDocumentCommented},
	CategoryTeam:      {TypeTeamInvite, TypeMemberJoined, TypeRoleChanged},
	CategoryAchievements: {
		TypeAchievementUnlocked, TypeGoalReached,
	},
}

// typeCategory is the reverse index, built once at package init.
var typeCategory = func() map[NotificationType]Category {
	idx := make(map[NotificationType]Category)
	for cat, types := range categoryTypes {
		for _, t := range types {
			idx[t] = cat
		}
	}
	return idx
}()

// CategoryOf returns the category a notification type belongs to.
// Unknown types fall into CategoryAll only.
func CategoryOf(t NotificationType) Category {
	if cat, ok := typeCategory[t]; ok {
		return cat
	}
	return CategoryAll
}

// TypesIn returns the type set for a category. CategoryAll returns nil,
// meaning "every type".
func TypesIn(c Category) []NotificationType {
	return categoryTypes[c]
}

// Matches reports whether a notification type belongs to the category.
func (c Category) Matches(t NotificationType) bool {
	if c == CategoryAll {
		return true
	}
	return typeCategory[t] == c
}

// Notification is a single entry in a user's workspace feed. Notifications
// are created by the backend; the client only advances their delivery
// status, flips the read flag, or deletes them.
type Notification struct {
	// ID is the backend-assigned identifier, stable across updates.
	ID string `json:"id" db:"id"`

	// UserID and WorkspaceID identify the owning (user, workspace) pair.
	UserID      string `json:"user_id" db:"user_id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// Type is the triggering business event.
	Type NotificationType `json:"type" db:"type"`

	Title   string `json:"title" db:"title"`
	Message string `json:"message" db:"message"`

	// EntityType and EntityID reference the record the notification
	// concerns (task, deal, document, ...). Reference only, never an
	// ownership link.
	EntityType string `json:"entity_type,omitempty" db:"entity_type"`
	EntityID   string `json:"entity_id,omitempty" db:"entity_id"`

	// ActionURL, when set, is the preferred navigation target on open.
	ActionURL string `json:"action_url,omitempty" db:"action_url"`

	Read     bool   `json:"read" db:"read"`
	Priority string `json:"priority,omitempty" db:"priority"`

	// Status is the delivery lifecycle stage. Acknowledged implies Read.
	Status DeliveryStatus `json:"status" db:"status"`

	// Metadata carries free-form key/value pairs from the backend.
	Metadata map[string]string `json:"metadata,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Category returns the UI category this notification belongs to.
func (n Notification) Category() Category {
	return CategoryOf(n.Type)
}
