package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/tests/testutil"
)

func TestLoadMissingRecordUsesDefaults(t *testing.T) {
	svc := testutil.NewFakeService()

	s := New(svc, nil, "u1", "w1")
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := s.Current()
	if !p.InAppEnabled || !p.EmailEnabled {
		t.Error("defaults should enable both channels")
	}
	if p.EmailFrequency != model.FrequencyInstant {
		t.Errorf("default frequency = %s, want instant", p.EmailFrequency)
	}
	if p.QuietHoursEnabled {
		t.Error("quiet hours enabled by default")
	}
}

func TestLoadFallsBackToSnapshot(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.GetPrefsErr = errors.New("backend down")

	cache := testutil.NewTestCache(t)
	cached := model.DefaultPreferences("u1", "w1")
	cached.NotifyDealsWon = false
	if err := cache.SavePreferences(context.Background(), cached); err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}

	s := New(svc, cache, "u1", "w1")
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load with snapshot: %v", err)
	}

	if s.Current().NotifyDealsWon {
		t.Error("snapshot record not applied")
	}
}

func TestLoadErrorWithoutSnapshotKeepsDefaults(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.GetPrefsErr = errors.New("backend down")

	s := New(svc, nil, "u1", "w1")
	err := s.Load(context.Background())
	if err == nil {
		t.Fatal("Load returned nil, want backend error")
	}
	if !s.Current().InAppEnabled {
		t.Error("defaults not applied after failed load")
	}
}

func TestSaveValidatesClocks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"well formed", "22:00", true},
		{"midnight", "00:00", true},
		{"single digit hour", "9:00", false},
		{"missing colon", "2200", false},
		{"hour out of range", "24:00", false},
		{"minute out of range", "10:60", false},
		{"garbage", "bedtime", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			s := New(svc, nil, "u1", "w1")

			p := model.DefaultPreferences("u1", "w1")
			p.QuietHoursEnabled = true
			p.QuietHoursStart = tt.value
			p.QuietHoursEnd = "08:00"

			err := s.Save(context.Background(), p)
			if tt.ok && err != nil {
				t.Fatalf("Save(%q): %v", tt.value, err)
			}
			if !tt.ok {
				if !IsValidationError(err) {
					t.Fatalf("Save(%q) = %v, want validation error", tt.value, err)
				}
				// Invalid input must not dirty the record in effect.
				if s.Current().QuietHoursStart == tt.value {
					t.Error("invalid value applied to current record")
				}
			}
		})
	}
}

func TestSaveClearsDigestFields(t *testing.T) {
	svc := testutil.NewFakeService()
	s := New(svc, nil, "u1", "w1")

	p := model.DefaultPreferences("u1", "w1")
	p.EmailFrequency = model.FrequencyInstant
	p.EmailDigestTime = "09:00"
	p.EmailDigestDay = "monday"

	if err := s.Save(context.Background(), p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := s.Current()
	if got.EmailDigestTime != "" || got.EmailDigestDay != "" {
		t.Error("digest fields not cleared for instant frequency")
	}

	p.EmailFrequency = model.FrequencyDaily
	p.EmailDigestTime = "09:00"
	p.EmailDigestDay = "monday"
	if err := s.Save(context.Background(), p); err != nil {
		t.Fatalf("Save daily: %v", err)
	}
	got = s.Current()
	if got.EmailDigestTime != "09:00" {
		t.Errorf("digest time = %q, want 09:00", got.EmailDigestTime)
	}
	if got.EmailDigestDay != "" {
		t.Error("digest day kept for daily frequency")
	}
}

func TestSaveKeepsLocalRecordOnRemoteFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.UpdatePrefsErr = errors.New("backend down")

	cache := testutil.NewTestCache(t)
	s := New(svc, cache, "u1", "w1")

	p := model.DefaultPreferences("u1", "w1")
	p.NotifyAchievements = false

	if err := s.Save(context.Background(), p); err == nil {
		t.Fatal("Save returned nil, want backend error")
	}

	if s.Current().NotifyAchievements {
		t.Error("in-memory record not updated despite local-first save")
	}

	cached, err := cache.GetPreferences(context.Background(), "u1", "w1")
	if err != nil || cached == nil {
		t.Fatalf("snapshot missing after save: %v", err)
	}
	if cached.NotifyAchievements {
		t.Error("snapshot not updated")
	}
}

func TestQuietHoursActive(t *testing.T) {
	at := func(hhmm string) time.Time {
		parsed, err := time.Parse("15:04", hhmm)
		if err != nil {
			t.Fatalf("bad test clock %q", hhmm)
		}
		return parsed
	}

	tests := []struct {
		name   string
		start  string
		end    string
		now    string
		active bool
	}{
		{"inside same-day window", "09:00", "17:00", "12:00", true},
		{"before same-day window", "09:00", "17:00", "08:59", false},
		{"at window end", "09:00", "17:00", "17:00", false},
		{"at window start", "09:00", "17:00", "09:00", true},
		{"crossing midnight, late evening", "22:00", "08:00", "23:30", true},
		{"crossing midnight, early morning", "22:00", "08:00", "06:00", true},
		{"crossing midnight, daytime", "22:00", "08:00", "12:00", false},
		{"zero-length window", "10:00", "10:00", "10:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.DefaultPreferences("u1", "w1")
			p.QuietHoursEnabled = true
			p.QuietHoursStart = tt.start
			p.QuietHoursEnd = tt.end

			if got := QuietHoursActive(p, at(tt.now)); got != tt.active {
				t.Errorf("QuietHoursActive(%s-%s at %s) = %v, want %v",
					tt.start, tt.end, tt.now, got, tt.active)
			}
		})
	}

	t.Run("disabled window never active", func(t *testing.T) {
		p := model.DefaultPreferences("u1", "w1")
		p.QuietHoursEnabled = false
		p.QuietHoursStart = "00:00"
		p.QuietHoursEnd = "23:59"
		if QuietHoursActive(p, at("12:00")) {
			t.Error("disabled quiet hours reported active")
		}
	})
}
