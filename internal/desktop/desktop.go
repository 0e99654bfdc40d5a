package desktop

import (
	"log"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/prefs"
)

// PermissionState mirrors the platform notification permission model.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Platform is the OS notification surface.
type Platform interface {
	// RequestPermission triggers the platform permission prompt.
	RequestPermission() PermissionState

	// Notify displays a notification. Errors are the caller's to log.
	Notify(title, message string) error
}

// BeeepPlatform displays notifications through the desktop environment's
// native facility. There is no separate prompt step on the platforms
// beeep supports; permission is probed by attempting a delivery path
// check and reported as granted unless the environment refuses.
type BeeepPlatform struct {
	// Icon is an optional path to the notification icon.
	Icon string
}

// RequestPermission reports granted: the desktop surfaces beeep drives
// do not expose a prompt, so refusal only shows up as a Notify error.
func (BeeepPlatform) RequestPermission() PermissionState {
	return PermissionGranted
}

// Notify displays a desktop notification.
func (p BeeepPlatform) Notify(title, message string) error {
	return beeep.Notify(title, message, p.Icon)
}

// Adapter bridges the user-level "desktop notifications enabled" intent
// with the platform permission model. Permission transitions one way:
// default -> granted or default -> denied, with no edge back, so a
// denied profile is never re-prompted.
type Adapter struct {
	platform Platform
	prefsFn  func() model.Preferences
	now      func() time.Time

	mu         sync.Mutex
	permission PermissionState
	enabled    bool
}

// New creates an adapter over the given platform. prefsFn supplies the
// record whose per-type toggles and quiet hours gate Show.
func New(platform Platform, prefsFn func() model.Preferences) *Adapter {
	return &Adapter{
		platform:   platform,
		prefsFn:    prefsFn,
		now:        time.Now,
		permission: PermissionDefault,
	}
}

// Permission returns the current permission state.
func (a *Adapter) Permission() PermissionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.permission
}

// Enabled reports whether desktop display is switched on.
func (a *Adapter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// RequestPermission runs the platform prompt when the state is still
// default. Once granted or denied the stored state is returned without
// re-prompting.
func (a *Adapter) RequestPermission() PermissionState {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.permission != PermissionDefault {
		return a.permission
	}

	state := a.platform.RequestPermission()
	if state != PermissionGranted && state != PermissionDenied {
		// The prompt was dismissed; stay in default so a later attempt
		// can prompt again.
		return PermissionDefault
	}

	a.permission = state
	return state
}

// SetEnabled switches desktop display on or off and reports success.
// Enabling prompts for permission first when needed; a denied permission
// leaves the adapter disabled. Enabling while already enabled is a
// no-op returning success.
func (a *Adapter) SetEnabled(enable bool) bool {
	if !enable {
		a.mu.Lock()
		a.enabled = false
		a.mu.Unlock()
		return true
	}

	a.mu.Lock()
	if a.enabled {
		a.mu.Unlock()
		return true
	}
	a.mu.Unlock()

	if a.RequestPermission() != PermissionGranted {
		return false
	}

	a.mu.Lock()
	a.enabled = true
	a.mu.Unlock()
	return true
}

// Show displays a notification, fire-and-forget. It silently no-ops
// when disabled, unpermitted, suppressed by quiet hours, or filtered by
// the per-type preference toggle. Platform failures are logged, never
// returned.
func (a *Adapter) Show(n model.Notification) {
	a.mu.Lock()
	enabled := a.enabled
	permission := a.permission
	a.mu.Unlock()

	if !enabled || permission != PermissionGranted {
		return
	}

	p := a.prefsFn()
	if !p.Allows(n.Type) {
		return
	}
	if prefs.QuietHoursActive(p, a.now()) {
		return
	}

	if err := a.platform.Notify(n.Title, n.Message); err != nil {
		log.Printf("desktop: showing notification %s: %v", n.ID, err)
	}
}
