package help

import (
	"strings"
	"testing"

	"github.com/nhle/notification-center/internal/keys"
)

func TestViewRendersShortcutsAndLegend(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)

	out := m.View()
	if !strings.Contains(out, "Keyboard Shortcuts") {
		t.Error("shortcut section missing")
	}
	if !strings.Contains(out, "Indicators") {
		t.Error("indicator legend missing")
	}
	for _, entry := range legend {
		if !strings.Contains(out, entry[1]) {
			t.Errorf("legend entry %q missing from view", entry[1])
		}
	}
}
