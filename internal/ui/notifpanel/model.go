package notifpanel

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// loadMoreThreshold is how close to the list tail the cursor must be
// before the next page is requested.
const loadMoreThreshold = 3

// LoadedMsg is sent when the first page has been loaded.
type LoadedMsg struct {
	Err error
}

// OpenRequestMsg asks the root model to navigate to a notification and
// close the panel.
type OpenRequestMsg struct {
	Notification model.Notification
}

// loadedMoreMsg is sent when a pagination fetch completes.
type loadedMoreMsg struct {
	err error
}

// mutationDoneMsg is sent after a mark/delete call finishes. Write-path
// failures are logged by the feed store, not surfaced here.
type mutationDoneMsg struct{}

// Model is the notification panel view: category tabs over a scrolling
// notification list with per-item and bulk actions.
type Model struct {
	list    list.Model
	store   *feed.Store
	keys    *keys.KeyMap
	spinner spinner.Model

	catIndex   int
	unreadOnly bool

	loading     bool
	refreshing  bool
	loadingMore bool
	loadErr     error

	width  int
	height int
}

// New creates a notification panel model over the given feed store.
func New(s *feed.Store, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-4)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		list:    l,
		store:   s,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Open marks the panel as loading and fetches the first page. Called by
// the root model each time the panel becomes visible.
func (m Model) Open() (Model, tea.Cmd) {
	m.loading = true
	m.loadErr = nil
	return m, tea.Batch(m.spinner.Tick, m.load())
}

// Loading reports whether the initial page is still being fetched.
func (m Model) Loading() bool {
	return m.loading
}

// Update handles messages for the notification panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.refreshing = false
		m.loadErr = msg.Err
		return m.refreshItems()

	case loadedMoreMsg:
		m.loadingMore = false
		return m.refreshItems()

	case mutationDoneMsg:
		return m.refreshItems()

	case spinner.TickMsg:
		if m.loading || m.refreshing || m.loadingMore {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the panel.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextCategory):
		m.catIndex = (m.catIndex + 1) % len(model.Categories)
		return m.applyFilters()

	case key.Matches(msg, m.keys.PrevCategory):
		m.catIndex--
		if m.catIndex < 0 {
			m.catIndex = len(model.Categories) - 1
		}
		return m.applyFilters()

	case key.Matches(msg, m.keys.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		return m.applyFilters()

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing || m.loading {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.spinner.Tick, m.load())

	case key.Matches(msg, m.keys.MarkRead):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.markRead(item.Notification.ID)

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.deleteOne(item.Notification.ID)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.DeleteAllRead):
		return m, m.deleteAllRead()

	case key.Matches(msg, m.keys.Open):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		n := item.Notification
		return m, func() tea.Msg {
			return OpenRequestMsg{Notification: n}
		}
	}

	// Delegate navigation keys (up/down/pgup/pgdn) to the list, then
	// handle the seen transition and the infinite-scroll trigger for
	// the new cursor position.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	cmds := []tea.Cmd{cmd}
	if seenCmd := m.markSelectedSeen(); seenCmd != nil {
		cmds = append(cmds, seenCmd)
	}

	if next, moreCmd := m.maybeLoadMore(); moreCmd != nil {
		return next, tea.Batch(append(cmds, moreCmd)...)
	}

	return m, tea.Batch(cmds...)
}

// applyFilters pushes the tab state into the feed store and rebuilds
// the visible items. Pure client-side: no re-fetch.
func (m Model) applyFilters() (Model, tea.Cmd) {
	m.store.SetFilters(feed.Filters{
		Category:   model.Categories[m.catIndex],
		UnreadOnly: m.unreadOnly,
	})
	return m.refreshItems()
}

// refreshItems rebuilds the list from the store's filtered view.
func (m Model) refreshItems() (Model, tea.Cmd) {
	view := m.store.View()
	items := make([]list.Item, len(view))
	for i, n := range view {
		items[i] = NotificationItem{Notification: n}
	}
	cmd := m.list.SetItems(items)
	return m, cmd
}

// Refresh rebuilds the visible items after an external change, such as
// a push event merged by the root model.
func (m Model) Refresh() (Model, tea.Cmd) {
	return m.refreshItems()
}

// selected returns the notification under the cursor.
func (m Model) selected() (NotificationItem, bool) {
	item, ok := m.list.SelectedItem().(NotificationItem)
	return item, ok
}

// maybeLoadMore requests the next page when the cursor is near the tail
// and no pagination fetch is already in flight.
func (m Model) maybeLoadMore() (Model, tea.Cmd) {
	if m.loadingMore || m.loading || !m.store.HasMore() {
		return m, nil
	}
	if m.list.Index() < len(m.list.Items())-loadMoreThreshold {
		return m, nil
	}

	m.loadingMore = true
	s := m.store
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		err := s.LoadMore(context.Background())
		if err == nil {
			// Newly appended rows may still be undelivered.
			_ = s.MarkVisibleDelivered(context.Background())
		}
		return loadedMoreMsg{err: err}
	})
}

// markSelectedSeen advances the notification under the cursor to seen.
func (m Model) markSelectedSeen() tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	if item.Notification.Status.AtLeast(model.StatusSeen) {
		return nil
	}

	s := m.store
	id := item.Notification.ID
	return func() tea.Msg {
		_ = s.MarkSeen(context.Background(), id)
		return mutationDoneMsg{}
	}
}

// load fetches the first page and promotes the visible batch to
// delivered.
func (m Model) load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.Load(context.Background())
		if err == nil {
			_ = s.MarkVisibleDelivered(context.Background())
		}
		return LoadedMsg{Err: err}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_ = s.MarkAsRead(context.Background(), id)
		return mutationDoneMsg{}
	}
}

func (m Model) deleteOne(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_ = s.DeleteNotification(context.Background(), id)
		return mutationDoneMsg{}
	}
}

func (m Model) markAllRead() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_ = s.MarkAllAsRead(context.Background())
		return mutationDoneMsg{}
	}
}

func (m Model) deleteAllRead() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_ = s.DeleteAllRead(context.Background())
		return mutationDoneMsg{}
	}
}

// View renders the panel: category tabs, the list, and a footer line.
func (m Model) View() string {
	tabs := m.renderTabs()

	var body string
	switch {
	case m.loading:
		body = fmt.Sprintf("\n %s loading notifications...", m.spinner.View())
	case m.loadErr != nil:
		body = theme.WarningStyle.Render(
			"\n Could not load notifications. Press r to retry.",
		)
	case len(m.list.Items()) == 0:
		body = m.renderEmptyState()
	default:
		body = m.list.View()
	}

	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, tabs, body, footer)
}

// renderTabs draws one tab per category with its unread count.
func (m Model) renderTabs() string {
	var tabs []string
	for i, cat := range model.Categories {
		label := string(cat)
		if count := m.store.GetCategoryCount(cat); count > 0 {
			label = fmt.Sprintf("%s %d", cat, count)
		}

		if i == m.catIndex {
			tabs = append(tabs, theme.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, theme.TabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.unreadOnly {
		row = lipgloss.JoinHorizontal(
			lipgloss.Top, row, theme.UnreadStyle.Render(" [unread only]"),
		)
	}
	return row
}

// renderEmptyState shows guidance text when no notifications match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.unreadOnly || model.Categories[m.catIndex] != model.CategoryAll {
		return style.Render("No matching notifications.\nTry adjusting your filters.")
	}

	return style.Render("You're all caught up.")
}

// renderFooter shows pagination state beneath the list.
func (m Model) renderFooter() string {
	switch {
	case m.loadingMore:
		return theme.DimmedStyle.Render(
			fmt.Sprintf(" %s loading more...", m.spinner.View()),
		)
	case m.refreshing:
		return theme.DimmedStyle.Render(
			fmt.Sprintf(" %s refreshing...", m.spinner.View()),
		)
	case m.store.HasMore():
		return theme.DimmedStyle.Render(" scroll for more")
	default:
		return ""
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-4)
}
