package model

import "time"

// EmailFrequency controls how often email notifications are sent.
type EmailFrequency string

const (
	FrequencyInstant EmailFrequency = "instant"
	FrequencyDaily   EmailFrequency = "daily"
	FrequencyWeekly  EmailFrequency = "weekly"
	FrequencyNever   EmailFrequency = "never"
)

// Preferences is the per-user, per-workspace notification settings record.
// Desktop enablement is deliberately absent: it is tracked per device
// profile in the local config, not in this record.
type Preferences struct {
	UserID      string `json:"user_id" db:"user_id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// Channel toggles.
	InAppEnabled bool `json:"in_app_enabled" db:"in_app_enabled"`
	EmailEnabled bool `json:"email_enabled" db:"email_enabled"`

	// EmailFrequency governs digest cadence. EmailDigestTime (HH:MM) and
	// EmailDigestDay are only meaningful when the frequency is daily or
	// weekly respectively.
	EmailFrequency  EmailFrequency `json:"email_frequency" db:"email_frequency"`
	EmailDigestTime string         `json:"email_digest_time" db:"email_digest_time"`
	EmailDigestDay  string         `json:"email_digest_day" db:"email_digest_day"`

	// Per-type toggles. A disabled toggle suppresses new events of that
	// type from the feed and from desktop display; it never purges
	// history.
	NotifyMentions         bool `json:"notify_mentions" db:"notify_mentions"`
	NotifyCommentMentions  bool `json:"notify_comment_mentions" db:"notify_comment_mentions"`
	NotifyTaskAssignments  bool `json:"notify_task_assignments" db:"notify_task_assignments"`
	NotifyTaskCompletions  bool `json:"notify_task_completions" db:"notify_task_completions"`
	NotifyTaskDueDates     bool `json:"notify_task_due_dates" db:"notify_task_due_dates"`
	NotifyTaskComments     bool `json:"notify_task_comments" db:"notify_task_comments"`
	NotifyDealsWon         bool `json:"notify_deals_won" db:"notify_deals_won"`
	NotifyDealsLost        bool `json:"notify_deals_lost" db:"notify_deals_lost"`
	NotifyDealStages       bool `json:"notify_deal_stages" db:"notify_deal_stages"`
	NotifyLeadAssignments  bool `json:"notify_lead_assignments" db:"notify_lead_assignments"`
	NotifyDocumentShares   bool `json:"notify_document_shares" db:"notify_document_shares"`
	NotifyDocumentComments bool `json:"notify_document_comments" db:"notify_document_comments"`
	NotifyTeamInvites      bool `json:"notify_team_invites" db:"notify_team_invites"`
	NotifyMemberChanges    bool `json:"notify_member_changes" db:"notify_member_changes"`
	NotifyAchievements     bool `json:"notify_achievements" db:"notify_achievements"`

	// Quiet hours suppress desktop display only. Start/End are HH:MM
	// time-of-day strings and are only meaningful while enabled.
	QuietHoursEnabled bool   `json:"quiet_hours_enabled" db:"quiet_hours_enabled"`
	QuietHoursStart   string `json:"quiet_hours_start" db:"quiet_hours_start"`
	QuietHoursEnd     string `json:"quiet_hours_end" db:"quiet_hours_end"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreferences returns the settings used when no stored record
// exists: every type enabled, instant email, quiet hours off.
func DefaultPreferences(userID, workspaceID string) Preferences {
	return Preferences{
		UserID:      userID,
		WorkspaceID: workspaceID,

		InAppEnabled:   true,
		EmailEnabled:   true,
		EmailFrequency: FrequencyInstant,

		NotifyMentions:         true,
		NotifyCommentMentions:  true,
		NotifyTaskAssignments:  true,
		NotifyTaskCompletions:  true,
		NotifyTaskDueDates:     true,
		NotifyTaskComments:     true,
		NotifyDealsWon:         true,
		NotifyDealsLost:        true,
		NotifyDealStages:       true,
		NotifyLeadAssignments:  true,
		NotifyDocumentShares:   true,
		NotifyDocumentComments: true,
		NotifyTeamInvites:      true,
		NotifyMemberChanges:    true,
		NotifyAchievements:     true,

		QuietHoursEnabled: false,
		QuietHoursStart:   "22:00",
		QuietHoursEnd:     "08:00",
	}
}

// Allows reports whether the per-type toggle for the given notification
// type is enabled. Unknown types are allowed.
func (p Preferences) Allows(t NotificationType) bool {
	switch t {
	case TypeMention:
		return p.NotifyMentions
	case TypeCommentMention:
		return p.NotifyCommentMentions
	case TypeTaskAssigned:
		return p.NotifyTaskAssignments
	case TypeTaskCompleted:
		return p.NotifyTaskCompletions
	case TypeTaskDue:
		return p.NotifyTaskDueDates
	case TypeTaskComment:
		return p.NotifyTaskComments
	case TypeDealWon:
		return p.NotifyDealsWon
	case TypeDealLost:
		return p.NotifyDealsLost
	case TypeDealStageChanged:
		return p.NotifyDealStages
	case TypeLeadAssigned:
		return p.NotifyLeadAssignments
	case TypeDocumentShared:
		return p.NotifyDocumentShares
	case TypeDocumentCommented:
		return p.NotifyDocumentComments
	case TypeTeamInvite:
		return p.NotifyTeamInvites
	case TypeMemberJoined, TypeRoleChanged:
		return p.NotifyMemberChanges
	case TypeAchievementUnlocked, TypeGoalReached:
		return p.NotifyAchievements
	}
	return true
}
