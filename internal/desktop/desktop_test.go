package desktop

import (
	"sync"
	"testing"
	"time"

	"github.com/nhle/notification-center/internal/model"
)

// fakePlatform scripts the permission prompt and records deliveries.
type fakePlatform struct {
	mu        sync.Mutex
	grant     PermissionState
	prompts   int
	shown     []string
	notifyErr error
}

func (p *fakePlatform) RequestPermission() PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts++
	return p.grant
}

func (p *fakePlatform) Notify(title, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, title)
	return p.notifyErr
}

func (p *fakePlatform) shownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

func allowAll() model.Preferences {
	return model.DefaultPreferences("u1", "w1")
}

func TestPermissionNeverRegresses(t *testing.T) {
	platform := &fakePlatform{grant: PermissionDenied}
	a := New(platform, allowAll)

	if got := a.Permission(); got != PermissionDefault {
		t.Fatalf("initial permission = %s, want default", got)
	}

	if got := a.RequestPermission(); got != PermissionDenied {
		t.Fatalf("RequestPermission = %s, want denied", got)
	}

	// A later grant from the platform must not flip a settled state.
	platform.grant = PermissionGranted
	if got := a.RequestPermission(); got != PermissionDenied {
		t.Errorf("permission regressed from denied to %s", got)
	}
	if platform.prompts != 1 {
		t.Errorf("prompts = %d, want 1 (settled state re-prompted)", platform.prompts)
	}
}

func TestDismissedPromptStaysDefault(t *testing.T) {
	platform := &fakePlatform{grant: PermissionDefault}
	a := New(platform, allowAll)

	if got := a.RequestPermission(); got != PermissionDefault {
		t.Fatalf("dismissed prompt = %s, want default", got)
	}

	// Default is not settled; the next attempt prompts again.
	platform.grant = PermissionGranted
	if got := a.RequestPermission(); got != PermissionGranted {
		t.Errorf("re-prompt after dismissal = %s, want granted", got)
	}
	if platform.prompts != 2 {
		t.Errorf("prompts = %d, want 2", platform.prompts)
	}
}

func TestSetEnabled(t *testing.T) {
	platform := &fakePlatform{grant: PermissionGranted}
	a := New(platform, allowAll)

	if !a.SetEnabled(true) {
		t.Fatal("enable with grantable permission failed")
	}
	if !a.SetEnabled(true) {
		t.Error("enable while enabled should succeed")
	}
	if platform.prompts != 1 {
		t.Errorf("prompts = %d, want 1 (idempotent enable re-prompted)", platform.prompts)
	}

	if !a.SetEnabled(false) {
		t.Error("disable failed")
	}
	if a.Enabled() {
		t.Error("still enabled after disable")
	}
}

func TestSetEnabledDeniedFails(t *testing.T) {
	platform := &fakePlatform{grant: PermissionDenied}
	a := New(platform, allowAll)

	if a.SetEnabled(true) {
		t.Error("enable succeeded despite denied permission")
	}
	if a.Enabled() {
		t.Error("adapter enabled despite denied permission")
	}
	// Disabling always succeeds, whatever the permission state.
	if !a.SetEnabled(false) {
		t.Error("disable failed under denied permission")
	}
}

func TestShowGates(t *testing.T) {
	n := model.Notification{ID: "n1", Type: model.TypeMention, Title: "hello"}

	t.Run("disabled adapter shows nothing", func(t *testing.T) {
		platform := &fakePlatform{grant: PermissionGranted}
		a := New(platform, allowAll)
		a.Show(n)
		if platform.shownCount() != 0 {
			t.Error("notification shown while disabled")
		}
	})

	t.Run("enabled adapter shows", func(t *testing.T) {
		platform := &fakePlatform{grant: PermissionGranted}
		a := New(platform, allowAll)
		a.SetEnabled(true)
		a.Show(n)
		if platform.shownCount() != 1 {
			t.Error("notification not shown")
		}
	})

	t.Run("muted type suppressed", func(t *testing.T) {
		platform := &fakePlatform{grant: PermissionGranted}
		muted := model.DefaultPreferences("u1", "w1")
		muted.NotifyMentions = false
		a := New(platform, func() model.Preferences { return muted })
		a.SetEnabled(true)
		a.Show(n)
		if platform.shownCount() != 0 {
			t.Error("muted type shown")
		}
	})

	t.Run("quiet hours suppress without disabling", func(t *testing.T) {
		platform := &fakePlatform{grant: PermissionGranted}
		quiet := model.DefaultPreferences("u1", "w1")
		quiet.QuietHoursEnabled = true
		quiet.QuietHoursStart = "00:00"
		quiet.QuietHoursEnd = "23:59"
		a := New(platform, func() model.Preferences { return quiet })
		a.SetEnabled(true)

		a.now = func() time.Time {
			return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		}
		a.Show(n)
		if platform.shownCount() != 0 {
			t.Error("notification shown inside quiet hours")
		}
		// Suppression is per delivery, not a state change.
		if !a.Enabled() {
			t.Error("quiet hours disabled the adapter")
		}
	})
}
