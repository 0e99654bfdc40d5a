package app

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkg/browser"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// renderHome renders the landing screen with per-category unread
// counts and the entry hints.
func (m Model) renderHome() string {
	var b strings.Builder

	b.WriteString(theme.HeaderStyle.Render("Inbox") + "\n\n")

	counts := m.feed.ServerUnreadCounts()
	total := m.unreadTotal()
	if total == 0 {
		b.WriteString(theme.DimmedStyle.Render("You're all caught up.") + "\n")
	} else {
		for _, cat := range model.Categories {
			if cat == model.CategoryAll {
				continue
			}
			n, ok := counts[cat]
			if !ok {
				n = m.feed.GetCategoryCount(cat)
			}
			if n == 0 {
				continue
			}
			line := fmt.Sprintf("  %s %d unread",
				theme.CategoryStyle(string(cat)).Render(string(cat)), n)
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + theme.HelpStyle.Render(
		"press n to open notifications, s for settings"))

	return theme.PanelStyle.Render(b.String())
}

// resolveTarget picks the browser destination for a notification: its
// explicit action URL when present, otherwise a path derived from the
// referenced entity.
func resolveTarget(baseURL string, n model.Notification) string {
	if n.ActionURL != "" {
		if strings.HasPrefix(n.ActionURL, "http://") ||
			strings.HasPrefix(n.ActionURL, "https://") {
			return n.ActionURL
		}
		return strings.TrimSuffix(baseURL, "/") + "/" +
			strings.TrimPrefix(n.ActionURL, "/")
	}

	if n.EntityType == "" || n.EntityID == "" {
		return strings.TrimSuffix(baseURL, "/")
	}
	return fmt.Sprintf("%s/%ss/%s",
		strings.TrimSuffix(baseURL, "/"), n.EntityType, n.EntityID)
}

// openTarget opens a URL in the default browser. Failures are logged;
// navigation must never take the UI down.
func openTarget(url string) {
	if url == "" {
		return
	}
	if err := browser.OpenURL(url); err != nil {
		log.Printf("open %s: %v", url, err)
	}
}
