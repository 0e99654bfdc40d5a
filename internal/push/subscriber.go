package push

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-center/internal/model"
)

// EventType identifies the kind of change a push event describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one change record emitted by the notification stream. New is
// set for inserts and updates, Old for updates and deletes.
type Event struct {
	Type EventType           `json:"eventType"`
	New  *model.Notification `json:"new,omitempty"`
	Old  *model.Notification `json:"old,omitempty"`
}

// ConnState is the lifecycle state of the stream connection.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the display label for a connection state.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventMsg is a tea.Msg carrying one stream event.
type EventMsg struct {
	Event Event
}

// ConnStateMsg is a tea.Msg sent when the connection state changes.
type ConnStateMsg struct {
	State ConnState
}

// maxBackoff caps the reconnect delay between stream attempts.
const maxBackoff = 30 * time.Second

// Subscriber maintains a server-sent-event subscription to the
// notification stream for one (user, workspace) pair. It is acquired
// when the notification panel opens and released when it closes, so
// channels do not accumulate across open/close cycles.
type Subscriber struct {
	baseURL     string
	token       string
	userID      string
	workspaceID string
	deviceID    string

	httpClient *http.Client

	mu      sync.Mutex
	running bool
	state   ConnState
	stopCh  chan struct{}
	msgCh   chan tea.Msg
}

// NewSubscriber creates a stream subscriber. The deviceID distinguishes
// this profile's subscription from the same user's other devices.
func NewSubscriber(baseURL, token, userID, workspaceID, deviceID string) *Subscriber {
	return &Subscriber{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		userID:      userID,
		workspaceID: workspaceID,
		deviceID:    deviceID,
		httpClient:  &http.Client{},
	}
}

// State returns the current connection state.
func (s *Subscriber) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins streaming and returns a tea.Cmd that waits for the first
// message. Calling Start while already running returns the wait command
// without spawning a second stream.
func (s *Subscriber) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return s.waitForMsg()
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.msgCh = make(chan tea.Msg, 64)
	s.mu.Unlock()

	go s.run(s.stopCh, s.msgCh)

	return s.waitForMsg()
}

// Stop tears the subscription down. Pending events are discarded; the
// stream goroutine exits on its next select. Safe to call when not
// running.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopCh)
	s.running = false
	s.state = StateDisconnected
}

// WaitForNextMsg returns a tea.Cmd that waits for the next stream
// message. Call after processing an EventMsg or ConnStateMsg to keep
// listening.
func (s *Subscriber) WaitForNextMsg() tea.Cmd {
	return s.waitForMsg()
}

func (s *Subscriber) waitForMsg() tea.Cmd {
	s.mu.Lock()
	ch := s.msgCh
	s.mu.Unlock()
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// run is the stream loop: connect, read events until the connection
// drops, then reconnect with capped exponential backoff.
func (s *Subscriber) run(stopCh chan struct{}, msgCh chan tea.Msg) {
	defer close(msgCh)

	backoff := time.Second
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		s.setState(StateConnecting, stopCh, msgCh)

		err := s.streamOnce(stopCh, msgCh)
		if err != nil {
			log.Printf("notification stream: %v", err)
		}

		s.setState(StateDisconnected, stopCh, msgCh)

		select {
		case <-stopCh:
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// streamOnce opens the stream and reads events until it ends. A nil
// return means the server closed the stream cleanly.
func (s *Subscriber) streamOnce(stopCh chan struct{}, msgCh chan tea.Msg) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the in-flight request when the subscriber is stopped.
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	params := url.Values{}
	params.Set("user_id", s.userID)
	params.Set("workspace_id", s.workspaceID)
	params.Set("device_id", s.deviceID)

	streamURL := fmt.Sprintf(
		"%s/api/v1/notifications/stream?%s", s.baseURL, params.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting notification stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	s.setState(StateConnected, stopCh, msgCh)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Printf("notification stream: bad event payload: %v", err)
			continue
		}

		select {
		case msgCh <- EventMsg{Event: ev}:
		case <-stopCh:
			return nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading notification stream: %w", err)
	}

	return nil
}

// setState records the new connection state and notifies the UI.
func (s *Subscriber) setState(state ConnState, stopCh chan struct{}, msgCh chan tea.Msg) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()

	if !changed {
		return
	}

	select {
	case msgCh <- ConnStateMsg{State: state}:
	case <-stopCh:
	}
}
