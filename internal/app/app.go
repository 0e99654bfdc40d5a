package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-center/internal/desktop"
	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/prefs"
	"github.com/nhle/notification-center/internal/push"
	"github.com/nhle/notification-center/internal/store"
	"github.com/nhle/notification-center/internal/ui"
	helpview "github.com/nhle/notification-center/internal/ui/help"
	"github.com/nhle/notification-center/internal/ui/notifpanel"
	settingsview "github.com/nhle/notification-center/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewPanel
	ViewSettings
	ViewHelp
)

// prefsLoadedMsg reports the initial preference load.
type prefsLoadedMsg struct {
	err error
}

// cacheSeededMsg carries cached rows for the offline-first paint.
type cacheSeededMsg struct {
	items []model.Notification
}

// Deps bundles the services the root model routes between.
type Deps struct {
	Config  model.AppConfig
	Cache   *store.Cache
	Feed    *feed.Store
	Prefs   *prefs.Service
	Push    *push.Subscriber
	Desktop *desktop.Adapter
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the push subscription lifecycle.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg     model.AppConfig
	cache   *store.Cache
	feed    *feed.Store
	prefs   *prefs.Service
	push    *push.Subscriber
	desktop *desktop.Adapter

	panel        notifpanel.Model
	settingsView settingsview.Model
	helpView     helpview.Model

	connState push.ConnState
	ready     bool
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewHome,
		keys:         k,
		cfg:          d.Config,
		cache:        d.Cache,
		feed:         d.Feed,
		prefs:        d.Prefs,
		push:         d.Push,
		desktop:      d.Desktop,
		panel:        notifpanel.New(d.Feed, k, 80, 24),
		settingsView: settingsview.New(d.Prefs, d.Desktop, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		connState:    push.StateDisconnected,
	}
}

// Init loads preferences and paints the cached window before any
// network round trip.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPrefs(), m.seedFromCache())
}

// loadPrefs returns a command that loads the preference record, falling
// back to the cached snapshot when the server is unreachable.
func (m Model) loadPrefs() tea.Cmd {
	svc := m.prefs
	enableDesktop := m.cfg.Desktop.Enabled
	adapter := m.desktop
	return func() tea.Msg {
		err := svc.Load(context.Background())
		if enableDesktop {
			adapter.SetEnabled(true)
		}
		return prefsLoadedMsg{err: err}
	}
}

// seedFromCache returns a command that reads the cached notification
// window for the configured identity.
func (m Model) seedFromCache() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	c := m.cache
	userID := m.cfg.Server.UserID
	workspaceID := m.cfg.Server.WorkspaceID
	limit := m.cfg.Feed.PageSize
	return func() tea.Msg {
		items, err := c.GetWindow(context.Background(), userID, workspaceID, limit)
		if err != nil {
			return cacheSeededMsg{}
		}
		return cacheSeededMsg{items: items}
	}
}

// cacheWindow returns a command that persists the current window so the
// next start can paint offline.
func (m Model) cacheWindow() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	c := m.cache
	items := m.feed.Window()
	userID := m.cfg.Server.UserID
	workspaceID := m.cfg.Server.WorkspaceID
	return func() tea.Msg {
		// Cache write failures only cost the next offline paint.
		_ = c.ReplaceWindow(context.Background(), userID, workspaceID, items)
		return nil
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.panel.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case prefsLoadedMsg:
		// Load already degraded to the snapshot or defaults; nothing to
		// route here.
		return m, nil

	case cacheSeededMsg:
		m.feed.Seed(msg.items)
		if m.currentView == ViewPanel {
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Refresh()
			return m, cmd
		}
		return m, nil

	case push.ConnStateMsg:
		m.connState = msg.State
		return m, m.push.WaitForNextMsg()

	case push.EventMsg:
		return m.handlePushEvent(msg)

	case notifpanel.LoadedMsg:
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		if msg.Err == nil {
			return m, tea.Batch(cmd, m.cacheWindow())
		}
		return m, cmd

	case notifpanel.OpenRequestMsg:
		return m.openNotification(msg.Notification)

	case settingsview.DoneMsg:
		m.currentView = m.previousView
		if m.currentView == ViewPanel {
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Refresh()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		// Global keys that work regardless of current view.
		switch msg.String() {
		case "ctrl+c":
			m.push.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewHome {
				m.push.Stop()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewSettings {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "n":
			if m.currentView == ViewHome {
				return m.openPanel()
			}

		case "s":
			if m.currentView == ViewHome || m.currentView == ViewPanel {
				m.previousView = m.currentView
				m.currentView = ViewSettings
				var cmd tea.Cmd
				m.settingsView, cmd = m.settingsView.Open()
				return m, cmd
			}

		case "esc":
			switch m.currentView {
			case ViewPanel:
				return m.closePanel()
			case ViewHelp:
				m.currentView = m.previousView
				return m, nil
			}
		}
	}

	// Delegate to active sub-view.
	return m.updateActiveView(msg)
}

// openPanel switches to the notification panel, loads the feed, and
// starts the push subscription. The subscription only runs while the
// panel is visible.
func (m Model) openPanel() (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewPanel

	var openCmd tea.Cmd
	m.panel, openCmd = m.panel.Open()

	return m, tea.Batch(openCmd, m.push.Start())
}

// closePanel hides the panel and tears down the push subscription.
func (m Model) closePanel() (tea.Model, tea.Cmd) {
	m.push.Stop()
	m.connState = push.StateDisconnected
	m.currentView = ViewHome
	return m, nil
}

// handlePushEvent folds a live event into the window, mirrors it to the
// cache, and raises a desktop popup for accepted inserts.
func (m Model) handlePushEvent(msg push.EventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	accepted := m.feed.ApplyRemoteEvent(ev)

	cmds := []tea.Cmd{m.push.WaitForNextMsg()}

	switch ev.Type {
	case push.EventInsert:
		if accepted && ev.New != nil {
			m.desktop.Show(*ev.New)
			cmds = append(cmds, m.upsertCached(*ev.New))
		}
	case push.EventUpdate:
		if ev.New != nil {
			cmds = append(cmds, m.upsertCached(*ev.New))
		}
	case push.EventDelete:
		var id string
		if ev.Old != nil {
			id = ev.Old.ID
		}
		if id == "" && ev.New != nil {
			id = ev.New.ID
		}
		cmds = append(cmds, m.deleteCached(id))
	}

	if m.currentView == ViewPanel {
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Refresh()
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// upsertCached mirrors one notification into the local cache.
func (m Model) upsertCached(n model.Notification) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	c := m.cache
	return func() tea.Msg {
		_ = c.UpsertNotification(context.Background(), n)
		return nil
	}
}

// deleteCached removes one notification from the local cache.
func (m Model) deleteCached(id string) tea.Cmd {
	if m.cache == nil || id == "" {
		return nil
	}
	c := m.cache
	return func() tea.Msg {
		_ = c.DeleteNotification(context.Background(), id)
		return nil
	}
}

// openNotification acknowledges the selection, opens its target in the
// browser, and closes the panel.
func (m Model) openNotification(n model.Notification) (tea.Model, tea.Cmd) {
	f := m.feed
	target := resolveTarget(m.cfg.Server.BaseURL, n)

	ackCmd := func() tea.Msg {
		// Best effort: the acknowledgement must not block navigation.
		_ = f.Acknowledge(context.Background(), n.ID)
		openTarget(target)
		return nil
	}

	closed, closeCmd := m.closePanel()
	return closed, tea.Batch(closeCmd, ackCmd)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewPanel:
		m.panel, cmd = m.panel.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Notification Center"
	if unread := m.unreadTotal(); unread > 0 {
		headerTitle = fmt.Sprintf("Notification Center [%d unread]", unread)
	}
	header := m.layout.RenderHeader(headerTitle, m.connStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewPanel:
		return m.panel.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.renderHome()
	}
}

// unreadTotal prefers the server aggregate and falls back to counting
// the loaded window.
func (m Model) unreadTotal() int {
	counts := m.feed.ServerUnreadCounts()
	if n, ok := counts[model.CategoryAll]; ok {
		return n
	}
	return m.feed.GetCategoryCount(model.CategoryAll)
}

// connStatus returns a short connection indicator for the header.
func (m Model) connStatus() string {
	if m.currentView != ViewPanel {
		return ""
	}
	switch m.connState {
	case push.StateConnected:
		return "● live"
	case push.StateConnecting:
		return "◌ connecting"
	default:
		return "○ offline"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewPanel:
		return "tab category | u unread | m read | d delete | enter open | esc close"
	case ViewSettings:
		return "enter next | shift+tab previous | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	default:
		return "q quit | n notifications | s settings | ? help"
	}
}
