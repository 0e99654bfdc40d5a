package prefs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/remote"
)

// ValidationError reports a malformed preference field. It is surfaced
// inline in the settings form, never as a fatal failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Snapshot is the local persistence used when the preference service is
// unreachable: last saved record wins.
type Snapshot interface {
	SavePreferences(ctx context.Context, p model.Preferences) error
	GetPreferences(ctx context.Context, userID, workspaceID string) (*model.Preferences, error)
}

// Service owns the preference record for one (user, workspace) pair. A
// missing backend row is not an error: defaults apply until the first
// save. Saves are batch (whole record), not per-field.
type Service struct {
	svc      remote.Service
	snapshot Snapshot

	userID      string
	workspaceID string

	mu      sync.Mutex
	current model.Preferences
}

// New creates a preference service. snapshot may be nil when no local
// cache is available (tests).
func New(svc remote.Service, snapshot Snapshot, userID, workspaceID string) *Service {
	return &Service{
		svc:         svc,
		snapshot:    snapshot,
		userID:      userID,
		workspaceID: workspaceID,
		current:     model.DefaultPreferences(userID, workspaceID),
	}
}

// Load fetches the stored record. NotFound resolves to defaults; other
// backend failures fall back to the local snapshot, then to defaults, so
// the quiet-hours and per-type gates always have something to work with.
func (s *Service) Load(ctx context.Context) error {
	p, err := s.svc.GetPreferences(ctx)
	if err == nil {
		s.setCurrent(*p)
		return nil
	}

	if errors.Is(err, remote.ErrNotFound) {
		s.setCurrent(model.DefaultPreferences(s.userID, s.workspaceID))
		return nil
	}

	log.Printf("prefs: loading preferences: %v", err)

	if s.snapshot != nil {
		cached, cacheErr := s.snapshot.GetPreferences(ctx, s.userID, s.workspaceID)
		if cacheErr == nil && cached != nil {
			s.setCurrent(*cached)
			return nil
		}
	}

	s.setCurrent(model.DefaultPreferences(s.userID, s.workspaceID))
	return err
}

// Current returns the preference record in effect.
func (s *Service) Current() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save validates and persists a full preference record. The in-memory
// record and local snapshot update even when the remote write fails
// (logged), so gating keeps working offline. A digest day supplied while
// the frequency is instant or never is accepted but cleared.
func (s *Service) Save(ctx context.Context, p model.Preferences) error {
	if err := Validate(p); err != nil {
		return err
	}

	if p.EmailFrequency != model.FrequencyDaily &&
		p.EmailFrequency != model.FrequencyWeekly {
		p.EmailDigestDay = ""
		p.EmailDigestTime = ""
	}
	if p.EmailFrequency == model.FrequencyDaily {
		p.EmailDigestDay = ""
	}

	p.UserID = s.userID
	p.WorkspaceID = s.workspaceID
	p.UpdatedAt = time.Now().UTC()

	s.setCurrent(p)

	if s.snapshot != nil {
		if err := s.snapshot.SavePreferences(ctx, p); err != nil {
			log.Printf("prefs: caching preferences: %v", err)
		}
	}

	if err := s.svc.UpdatePreferences(ctx, p); err != nil {
		log.Printf("prefs: saving preferences: %v", err)
		return err
	}
	return nil
}

// QuietHoursActive reports whether the given instant falls inside the
// configured quiet-hours window. Windows may cross midnight (22:00 to
// 08:00). Disabled quiet hours are never active.
func (s *Service) QuietHoursActive(now time.Time) bool {
	p := s.Current()
	return QuietHoursActive(p, now)
}

// QuietHoursActive evaluates a preference record's quiet-hours window
// against the given instant.
func QuietHoursActive(p model.Preferences, now time.Time) bool {
	if !p.QuietHoursEnabled {
		return false
	}

	start, err := parseClock(p.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := parseClock(p.QuietHoursEnd)
	if err != nil {
		return false
	}

	minute := now.Hour()*60 + now.Minute()

	if start == end {
		return false
	}
	if start < end {
		return minute >= start && minute < end
	}
	// Window crosses midnight.
	return minute >= start || minute < end
}

// Validate checks every time-of-day field for well-formed HH:MM values.
func Validate(p model.Preferences) error {
	if p.QuietHoursEnabled {
		if _, err := parseClock(p.QuietHoursStart); err != nil {
			return &ValidationError{Field: "quiet_hours_start", Reason: err.Error()}
		}
		if _, err := parseClock(p.QuietHoursEnd); err != nil {
			return &ValidationError{Field: "quiet_hours_end", Reason: err.Error()}
		}
	}

	needsDigestTime := p.EmailFrequency == model.FrequencyDaily ||
		p.EmailFrequency == model.FrequencyWeekly
	if needsDigestTime && p.EmailDigestTime != "" {
		if _, err := parseClock(p.EmailDigestTime); err != nil {
			return &ValidationError{Field: "email_digest_time", Reason: err.Error()}
		}
	}

	return nil
}

// parseClock parses an HH:MM string into minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%q is not an HH:MM time", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q has an invalid minute", value)
	}

	return hour*60 + minute, nil
}

func (s *Service) setCurrent(p model.Preferences) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}
