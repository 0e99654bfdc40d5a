package push

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// streamHandler serves a scripted event-stream response, then holds the
// connection open until the client goes away.
func streamHandler(t *testing.T, lines []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", r.Header.Get("Accept"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("user_id") != "u1" {
			t.Errorf("user_id = %q, want u1", r.URL.Query().Get("user_id"))
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer is not a flusher")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		flusher.Flush()

		<-r.Context().Done()
	}
}

// next runs the wait command with a deadline so a broken stream fails
// the test instead of hanging it.
func next(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream message")
		return nil
	}
}

func TestSubscriberStreamsEvents(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, []string{
		`data: {"eventType":"INSERT","new":{"id":"n1","type":"mention","title":"hi"}}`,
		"",
		": keepalive comment",
		`data: {"eventType":"DELETE","old":{"id":"n0"}}`,
	}))
	defer srv.Close()

	s := NewSubscriber(srv.URL, "tok", "u1", "w1", "d1")
	cmd := s.Start()
	defer s.Stop()

	if msg, ok := next(t, cmd).(ConnStateMsg); !ok || msg.State != StateConnecting {
		t.Fatalf("first message = %#v, want connecting", msg)
	}
	if msg, ok := next(t, s.WaitForNextMsg()).(ConnStateMsg); !ok || msg.State != StateConnected {
		t.Fatalf("second message = %#v, want connected", msg)
	}

	ev, ok := next(t, s.WaitForNextMsg()).(EventMsg)
	if !ok {
		t.Fatal("third message is not an EventMsg")
	}
	if ev.Event.Type != EventInsert || ev.Event.New == nil || ev.Event.New.ID != "n1" {
		t.Errorf("insert event = %#v", ev.Event)
	}

	// Blank lines and comment lines are skipped, so the delete arrives
	// next.
	ev, ok = next(t, s.WaitForNextMsg()).(EventMsg)
	if !ok {
		t.Fatal("fourth message is not an EventMsg")
	}
	if ev.Event.Type != EventDelete || ev.Event.Old == nil || ev.Event.Old.ID != "n0" {
		t.Errorf("delete event = %#v", ev.Event)
	}
}

func TestSubscriberStopEndsStream(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, nil))
	defer srv.Close()

	s := NewSubscriber(srv.URL, "tok", "u1", "w1", "d1")
	cmd := s.Start()

	if msg, ok := next(t, cmd).(ConnStateMsg); !ok || msg.State != StateConnecting {
		t.Fatalf("first message = %#v, want connecting", msg)
	}
	if msg, ok := next(t, s.WaitForNextMsg()).(ConnStateMsg); !ok || msg.State != StateConnected {
		t.Fatalf("second message = %#v, want connected", msg)
	}

	s.Stop()
	if got := s.State(); got != StateDisconnected {
		t.Errorf("state after stop = %s, want disconnected", got)
	}

	// The stream goroutine closes the channel; the wait command drains
	// any trailing state message and then yields nil.
	for i := 0; i < 4; i++ {
		if next(t, s.WaitForNextMsg()) == nil {
			return
		}
	}
	t.Error("message channel never closed after stop")
}

func TestSubscriberRestart(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, nil))
	defer srv.Close()

	s := NewSubscriber(srv.URL, "tok", "u1", "w1", "d1")

	cmd := s.Start()
	next(t, cmd) // connecting
	s.Stop()

	// A stopped subscriber starts cleanly on a fresh channel pair.
	cmd = s.Start()
	defer s.Stop()
	if msg, ok := next(t, cmd).(ConnStateMsg); !ok || msg.State != StateConnecting {
		t.Fatalf("restart first message = %#v, want connecting", msg)
	}
}
