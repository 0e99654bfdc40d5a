package settings

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/desktop"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/prefs"
	"github.com/nhle/notification-center/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeForm   Mode = iota // Editing the preference form
	ModeSaving             // Persisting the record
	ModeResult             // Showing the save result
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// savedMsg carries the result of a save attempt.
type savedMsg struct {
	err           error
	desktopDenied bool
}

// categoryOption pairs a per-type toggle with its multi-select label.
type categoryOption struct {
	key   string
	label string
}

// categoryOptions lists every per-type toggle shown in the form.
var categoryOptions = []categoryOption{
	{"mentions", "Mentions"},
	{"comment_mentions", "Comment mentions"},
	{"task_assignments", "Task assignments"},
	{"task_completions", "Task completions"},
	{"task_due_dates", "Task due dates"},
	{"task_comments", "Task comments"},
	{"deals_won", "Deals won"},
	{"deals_lost", "Deals lost"},
	{"deal_stages", "Deal stage changes"},
	{"lead_assignments", "Lead assignments"},
	{"document_shares", "Document shares"},
	{"document_comments", "Document comments"},
	{"team_invites", "Team invites"},
	{"member_changes", "Member changes"},
	{"achievements", "Achievements"},
}

// Model is the Bubble Tea model for the notification settings form.
type Model struct {
	mode Mode

	service *prefs.Service
	adapter *desktop.Adapter

	form *huh.Form

	// Form field values (huh binds to these).
	formInApp      bool
	formEmail      bool
	formFrequency  string
	formDigestTime string
	formDigestDay  string
	formCategories []string
	formQuietOn    bool
	formQuietStart string
	formQuietEnd   string
	formDesktop    bool

	saveErr       error
	desktopDenied bool
	spinner       spinner.Model

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view over the preference service and desktop
// adapter.
func New(service *prefs.Service, adapter *desktop.Adapter, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeForm,
		service: service,
		adapter: adapter,
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Open seeds the form from the current preference record and returns
// the form's init command.
func (m Model) Open() (Model, tea.Cmd) {
	p := m.service.Current()

	m.mode = ModeForm
	m.saveErr = nil
	m.formInApp = p.InAppEnabled
	m.formEmail = p.EmailEnabled
	m.formFrequency = string(p.EmailFrequency)
	if m.formFrequency == "" {
		m.formFrequency = string(model.FrequencyInstant)
	}
	m.formDigestTime = p.EmailDigestTime
	m.formDigestDay = p.EmailDigestDay
	m.formCategories = enabledCategories(p)
	m.formQuietOn = p.QuietHoursEnabled
	m.formQuietStart = p.QuietHoursStart
	m.formQuietEnd = p.QuietHoursEnd
	m.formDesktop = m.adapter.Enabled()
	m.desktopDenied = m.adapter.Permission() == desktop.PermissionDenied

	m.form = m.buildForm()
	return m, m.form.Init()
}

// buildForm constructs the huh form over the bound fields.
func (m *Model) buildForm() *huh.Form {
	categoryOpts := make([]huh.Option[string], len(categoryOptions))
	for i, opt := range categoryOptions {
		categoryOpts[i] = huh.NewOption(opt.label, opt.key)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("In-app notifications").
				Value(&m.formInApp),
			huh.NewConfirm().
				Title("Email notifications").
				Value(&m.formEmail),
			huh.NewSelect[string]().
				Title("Email frequency").
				Options(
					huh.NewOption("Instant", string(model.FrequencyInstant)),
					huh.NewOption("Daily digest", string(model.FrequencyDaily)),
					huh.NewOption("Weekly digest", string(model.FrequencyWeekly)),
					huh.NewOption("Never", string(model.FrequencyNever)),
				).
				Value(&m.formFrequency),
			huh.NewInput().
				Title("Digest time (HH:MM)").
				Placeholder("09:00").
				Value(&m.formDigestTime).
				Validate(validateOptionalClock),
			huh.NewSelect[string]().
				Title("Digest day (weekly)").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Tuesday", "tuesday"),
					huh.NewOption("Wednesday", "wednesday"),
					huh.NewOption("Thursday", "thursday"),
					huh.NewOption("Friday", "friday"),
					huh.NewOption("Saturday", "saturday"),
					huh.NewOption("Sunday", "sunday"),
				).
				Value(&m.formDigestDay),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Notify me about").
				Options(categoryOpts...).
				Value(&m.formCategories),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Quiet hours").
				Description("Suppresses desktop popups only; the in-app list is unaffected.").
				Value(&m.formQuietOn),
			huh.NewInput().
				Title("Quiet hours start (HH:MM)").
				Placeholder("22:00").
				Value(&m.formQuietStart).
				Validate(validateOptionalClock),
			huh.NewInput().
				Title("Quiet hours end (HH:MM)").
				Placeholder("08:00").
				Value(&m.formQuietEnd).
				Validate(validateOptionalClock),
			huh.NewConfirm().
				Title("Desktop notifications").
				Description("Enabled per device profile, not per account.").
				Value(&m.formDesktop),
		),
	)
}

// validateOptionalClock accepts an empty value or a well-formed HH:MM
// time, surfacing malformed input inline.
func validateOptionalClock(value string) error {
	if value == "" {
		return nil
	}
	probe := model.Preferences{
		QuietHoursEnabled: true,
		QuietHoursStart:   value,
		QuietHoursEnd:     value,
	}
	return prefs.Validate(probe)
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedMsg:
		m.mode = ModeResult
		m.saveErr = msg.err
		if msg.desktopDenied {
			m.desktopDenied = true
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeResult {
			return m, func() tea.Msg { return DoneMsg{} }
		}
		if key.Matches(msg, m.keys.Back) && m.mode == ModeForm {
			return m, func() tea.Msg { return DoneMsg{} }
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save())
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

// save applies the desktop toggle through the adapter, then persists
// the preference record.
func (m Model) save() tea.Cmd {
	p := m.collect()

	adapter := m.adapter
	wantDesktop := m.formDesktop
	service := m.service

	return func() tea.Msg {
		// The adapter refuses to enable without granted permission; the
		// result view explains a denial instead of re-prompting forever.
		ok := adapter.SetEnabled(wantDesktop)

		err := service.Save(context.Background(), p)
		return savedMsg{err: err, desktopDenied: wantDesktop && !ok}
	}
}

// collect assembles a preference record from the bound form fields.
func (m Model) collect() model.Preferences {
	current := m.service.Current()

	p := current
	p.InAppEnabled = m.formInApp
	p.EmailEnabled = m.formEmail
	p.EmailFrequency = model.EmailFrequency(m.formFrequency)
	p.EmailDigestTime = m.formDigestTime
	p.EmailDigestDay = m.formDigestDay
	p.QuietHoursEnabled = m.formQuietOn
	p.QuietHoursStart = m.formQuietStart
	p.QuietHoursEnd = m.formQuietEnd

	selected := make(map[string]bool, len(m.formCategories))
	for _, c := range m.formCategories {
		selected[c] = true
	}
	p.NotifyMentions = selected["mentions"]
	p.NotifyCommentMentions = selected["comment_mentions"]
	p.NotifyTaskAssignments = selected["task_assignments"]
	p.NotifyTaskCompletions = selected["task_completions"]
	p.NotifyTaskDueDates = selected["task_due_dates"]
	p.NotifyTaskComments = selected["task_comments"]
	p.NotifyDealsWon = selected["deals_won"]
	p.NotifyDealsLost = selected["deals_lost"]
	p.NotifyDealStages = selected["deal_stages"]
	p.NotifyLeadAssignments = selected["lead_assignments"]
	p.NotifyDocumentShares = selected["document_shares"]
	p.NotifyDocumentComments = selected["document_comments"]
	p.NotifyTeamInvites = selected["team_invites"]
	p.NotifyMemberChanges = selected["member_changes"]
	p.NotifyAchievements = selected["achievements"]

	return p
}

// enabledCategories returns the multi-select keys for every enabled
// per-type toggle.
func enabledCategories(p model.Preferences) []string {
	flags := map[string]bool{
		"mentions":          p.NotifyMentions,
		"comment_mentions":  p.NotifyCommentMentions,
		"task_assignments":  p.NotifyTaskAssignments,
		"task_completions":  p.NotifyTaskCompletions,
		"task_due_dates":    p.NotifyTaskDueDates,
		"task_comments":     p.NotifyTaskComments,
		"deals_won":         p.NotifyDealsWon,
		"deals_lost":        p.NotifyDealsLost,
		"deal_stages":       p.NotifyDealStages,
		"lead_assignments":  p.NotifyLeadAssignments,
		"document_shares":   p.NotifyDocumentShares,
		"document_comments": p.NotifyDocumentComments,
		"team_invites":      p.NotifyTeamInvites,
		"member_changes":    p.NotifyMemberChanges,
		"achievements":      p.NotifyAchievements,
	}

	var out []string
	for _, opt := range categoryOptions {
		if flags[opt.key] {
			out = append(out, opt.key)
		}
	}
	return out
}

// View renders the settings view for the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeSaving:
		return fmt.Sprintf("\n %s saving preferences...", m.spinner.View())

	case ModeResult:
		var denied string
		if m.desktopDenied {
			denied = theme.WarningStyle.Render(
				"\n Desktop notifications stay off: permission was denied.",
			) + "\n"
		}
		if m.saveErr != nil {
			if prefs.IsValidationError(m.saveErr) {
				return theme.WarningStyle.Render(
					fmt.Sprintf("\n %v\n", m.saveErr),
				) + denied + theme.DimmedStyle.Render(" press any key to go back")
			}
			return theme.WarningStyle.Render(
				"\n Preferences saved locally; the server could not be reached.\n",
			) + denied + theme.DimmedStyle.Render(" press any key to continue")
		}
		return "\n Preferences saved.\n" + denied +
			theme.DimmedStyle.Render(" press any key to continue")
	}

	var warning string
	if m.desktopDenied {
		msg := " Desktop notifications are blocked by the system. " +
			"Allow them in your OS settings and restart."
		warning = theme.WarningStyle.Render(msg) + "\n"
	}

	if m.form == nil {
		return warning
	}

	return lipgloss.JoinVertical(lipgloss.Left, warning, m.form.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
