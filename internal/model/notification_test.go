package model

import "testing"

func TestCategoryMappingIsTotal(t *testing.T) {
	all := []NotificationType{
		TypeMention, TypeCommentMention,
		TypeTaskAssigned, TypeTaskCompleted, TypeTaskDue, TypeTaskComment,
		TypeDealWon, TypeDealLost, TypeDealStageChanged, TypeLeadAssigned,
		TypeDocumentShared, TypeDocumentCommented,
		TypeTeamInvite, TypeMemberJoined, TypeRoleChanged,
		TypeAchievementUnlocked, TypeGoalReached,
	}

	for _, typ := range all {
		cat := CategoryOf(typ)
		if cat == CategoryAll {
			t.Errorf("%s has no category", typ)
			continue
		}
		if !cat.Matches(typ) {
			t.Errorf("CategoryOf(%s) = %s but Matches is false", typ, cat)
		}
		if !CategoryAll.Matches(typ) {
			t.Errorf("CategoryAll does not match %s", typ)
		}
		if got := (Notification{Type: typ}).Category(); got != cat {
			t.Errorf("Notification{Type: %s}.Category() = %s, want %s", typ, got, cat)
		}
	}
}

func TestCategoryMatchesRejectsOtherCategories(t *testing.T) {
	if CategoryTasks.Matches(TypeMention) {
		t.Error("tasks category matched a mention")
	}
	if CategoryMentions.Matches(TypeDealWon) {
		t.Error("mentions category matched a deal event")
	}
	if CategoryTasks.Matches("unknown_type") {
		t.Error("category matched an unknown type")
	}
	if !CategoryAll.Matches("unknown_type") {
		t.Error("CategoryAll must match unknown types")
	}
}

func TestDeliveryStatusOrdering(t *testing.T) {
	order := []DeliveryStatus{
		StatusCreated, StatusDelivered, StatusSeen, StatusAcknowledged,
	}

	for i, lower := range order {
		for j, higher := range order {
			got := higher.AtLeast(lower)
			want := j >= i
			if got != want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", higher, lower, got, want)
			}
		}
	}

	// Unknown statuses rank below every defined one.
	var unknown DeliveryStatus = "weird"
	if unknown.AtLeast(StatusCreated) {
		t.Error("unknown status ranked at or above created")
	}
}

func TestPreferencesAllows(t *testing.T) {
	p := DefaultPreferences("u1", "w1")
	if !p.Allows(TypeMention) || !p.Allows(TypeGoalReached) {
		t.Error("defaults should allow every type")
	}

	p.NotifyTaskAssignments = false
	if p.Allows(TypeTaskAssigned) {
		t.Error("muted toggle still allows its type")
	}
	if !p.Allows(TypeTaskCompleted) {
		t.Error("muting one toggle affected a sibling type")
	}
}
