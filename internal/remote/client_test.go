package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")

	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.Get(context.Background(), "/thing", &result); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !result.OK {
		t.Error("response not unmarshaled")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	if err := c.Get(context.Background(), "/thing", nil); err == nil {
		t.Fatal("Get returned nil, want rate-limit error")
	}
}

func TestClientAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-token")
	err := c.Get(context.Background(), "/thing", nil)
	if !IsAuthError(err) {
		t.Fatalf("Get = %v, want AuthError", err)
	}
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.Get(context.Background(), "/missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v, want ErrNotFound in chain", err)
	}
}

func TestClientSendsAuthAndContentHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	body := map[string]string{"k": "v"}
	if err := c.Post(context.Background(), "/thing", body, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestFeedUnsupportedMapping(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	svc := NewHubService(NewClient(srv.URL, "tok"), "u1", "w1")
	_, err := svc.FetchFeed(context.Background(), ListQuery{Limit: 10})
	if !errors.Is(err, ErrFeedUnsupported) {
		t.Fatalf("FetchFeed = %v, want ErrFeedUnsupported", err)
	}
}
