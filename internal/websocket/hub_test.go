package websocket

import (
	"testing"
	"time"

	"github.com/clipforge/api/internal/model"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *Hub) sessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) hasUserEntry(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// A session with an unbuffered, never-drained channel gets dropped on the
// first broadcast; a ping reply arriving after the drop must be a no-op,
// not a send on a closed channel.
func TestPingReplyAfterSlowDropDoesNotPanic(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{UserID: "u1", Send: make(chan []byte)}
	h.Register(client)
	waitFor(t, "registration", func() bool { return h.sessionCount("u1") == 1 })

	h.JobStatusChanged("u1", "job-1", model.JobStatusProcessing, "")
	waitFor(t, "slow drop", func() bool { return h.sessionCount("u1") == 0 })

	if client.trySend([]byte(`{"type":"pong"}`)) {
		t.Error("trySend succeeded on a dropped session")
	}
}

func TestSlowDropRemovesEmptyUserEntry(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{UserID: "u2", Send: make(chan []byte)}
	h.Register(client)
	waitFor(t, "registration", func() bool { return h.sessionCount("u2") == 1 })

	h.JobCompleted("u2", "job-1", "TikTok")
	waitFor(t, "user entry removal", func() bool { return !h.hasUserEntry("u2") })
}

// Dropping and unregistering the same session, in either order, must close
// its channel exactly once.
func TestCloseSendIsIdempotent(t *testing.T) {
	c := &Client{UserID: "u3", Send: make(chan []byte, 1)}
	c.closeSend()
	c.closeSend()
	if c.trySend([]byte("x")) {
		t.Error("trySend succeeded on a closed session")
	}
}

func TestUnregisterAfterSlowDropDoesNotPanic(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{UserID: "u4", Send: make(chan []byte)}
	h.Register(client)
	waitFor(t, "registration", func() bool { return h.sessionCount("u4") == 1 })

	h.BatchCompleted("u4", []string{"job-1"})
	waitFor(t, "slow drop", func() bool { return !h.hasUserEntry("u4") })

	// The reader loop always unregisters on exit, including for sessions
	// the hub already dropped.
	h.Unregister(client)
	waitFor(t, "unregister handled", func() bool { return !h.hasUserEntry("u4") })
}

func TestBroadcastDeliversToHealthySession(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{UserID: "u5", Send: make(chan []byte, 4)}
	h.Register(client)
	waitFor(t, "registration", func() bool { return h.sessionCount("u5") == 1 })

	h.JobStatusChanged("u5", "job-9", model.JobStatusFailed, "boom")

	select {
	case data := <-client.Send:
		if len(data) == 0 {
			t.Error("empty broadcast payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast delivered")
	}
	if h.sessionCount("u5") != 1 {
		t.Error("healthy session was dropped")
	}
}
