package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/familybook/internal/playback"
	"github.com/princekumarofficial/familybook/internal/types"
)

type memoryStories struct {
	mu      sync.Mutex
	stories []types.Story
}

func (m *memoryStories) ListStories(_ context.Context, _ string) ([]types.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Story(nil), m.stories...), nil
}

func (m *memoryStories) SoftDelete(_ context.Context, _, rowID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.stories {
		if s.ID == rowID {
			m.stories = append(m.stories[:i:i], m.stories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStories) prepend(s types.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories = append([]types.Story{s}, m.stories...)
}

type wireEvent struct {
	Type types.EventType `json:"type"`
	Data json.RawMessage `json:"data"`
}

// peer is the browser side of a live session. The write pump may pack several
// events into one frame, separated by newlines.
type peer struct {
	conn    *websocket.Conn
	pending []wireEvent
}

func (p *peer) next(t *testing.T) wireEvent {
	t.Helper()
	for len(p.pending) == 0 {
		p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		for _, line := range bytes.Split(msg, []byte{'\n'}) {
			var e wireEvent
			if err := json.Unmarshal(line, &e); err != nil {
				t.Fatalf("bad event json %q: %v", line, err)
			}
			p.pending = append(p.pending, e)
		}
	}
	e := p.pending[0]
	p.pending = p.pending[1:]
	return e
}

func (p *peer) frame(t *testing.T, match func(types.PlaybackFrame) bool) types.PlaybackFrame {
	t.Helper()
	for i := 0; i < 50; i++ {
		e := p.next(t)
		if e.Type != types.EventPlaybackFrame {
			continue
		}
		var f types.PlaybackFrame
		if err := json.Unmarshal(e.Data, &f); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
	t.Fatal("expected frame never arrived")
	return types.PlaybackFrame{}
}

func (p *peer) notice(t *testing.T) string {
	t.Helper()
	for i := 0; i < 50; i++ {
		e := p.next(t)
		if e.Type != types.EventPlaybackNotice {
			continue
		}
		var n types.PlaybackNotice
		if err := json.Unmarshal(e.Data, &n); err != nil {
			t.Fatalf("bad notice: %v", err)
		}
		return n.Message
	}
	t.Fatal("expected notice never arrived")
	return ""
}

func (p *peer) send(t *testing.T, raw string) {
	t.Helper()
	if err := p.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func storyID(f types.PlaybackFrame) string {
	if f.Story == nil {
		return ""
	}
	return f.Story.ID
}

func TestLiveSession(t *testing.T) {
	hub := runHub(t)
	store := &memoryStories{stories: []types.Story{
		{ID: "s1", AccountID: "acc", AuthorID: "u2"},
		{ID: "s2", AccountID: "acc", AuthorID: "u1"},
	}}

	deleted := make(chan types.Story, 1)
	finished := make(chan struct{})
	var player *playback.Player

	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(conn, "u1", nil)
		player = playback.NewPlayer(
			playback.NewController(nil, time.Hour, 2*time.Hour),
			playback.WithObserver(FrameObserver(client, "acc")),
		)
		live := NewLiveSession(client, playback.NewViewer(store, player, nil), "acc", "u1", nil)
		live.OnDeleted = func(s types.Story) { deleted <- s }

		go func() {
			live.Run(context.Background(), hub)
			close(finished)
		}()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	p := &peer{conn: conn}

	p.frame(t, func(f types.PlaybackFrame) bool { return f.Total == 2 && f.Index == 0 && storyID(f) == "s1" })

	p.send(t, `{"action":"next"}`)
	moved := p.frame(t, func(f types.PlaybackFrame) bool { return f.Index == 1 })
	if storyID(moved) != "s2" {
		t.Fatalf("expected s2 after next, got %+v", moved)
	}

	p.send(t, `{"action":"rewind"}`)
	if msg := p.notice(t); msg != "unknown action rewind" {
		t.Fatalf("unexpected notice %q", msg)
	}
	p.send(t, `not json`)
	if msg := p.notice(t); msg != "malformed command" {
		t.Fatalf("unexpected notice %q", msg)
	}

	p.send(t, `{"action":"delete"}`)
	after := p.frame(t, func(f types.PlaybackFrame) bool { return f.Total == 1 })
	if after.Index != 0 || storyID(after) != "s1" {
		t.Fatalf("expected Showing(0) on s1 after delete, got %+v", after)
	}
	select {
	case s := <-deleted:
		if s.ID != "s2" {
			t.Fatalf("expected s2 reported deleted, got %q", s.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("OnDeleted was not called")
	}

	// s1 belongs to u2.
	p.send(t, `{"action":"delete"}`)
	if msg := p.notice(t); msg != playback.ErrNotAuthor.Error() {
		t.Fatalf("expected the author notice, got %q", msg)
	}

	store.prepend(types.Story{ID: "s3", AccountID: "acc", AuthorID: "u3"})
	hub.NotifyAccount(types.NewEvent(types.EventStoryPosted, "acc", nil))
	posted := p.frame(t, func(f types.PlaybackFrame) bool { return f.Total == 2 })
	if storyID(posted) != "s3" {
		t.Fatalf("expected the new story first after a refresh, got %+v", posted)
	}

	conn.Close()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("live session did not end when the socket closed")
	}
	if player.Running() {
		t.Fatal("playback must stop with the session")
	}
}

func TestLiveSessionEndsWhenHubStops(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	defer cancel()

	finished := make(chan struct{})
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(conn, "u1", nil)
		player := playback.NewPlayer(playback.NewController(nil, time.Hour, 2*time.Hour))
		live := NewLiveSession(client, playback.NewViewer(&memoryStories{}, player, nil), "acc", "u1", nil)
		go func() {
			live.Run(context.Background(), hub)
			close(finished)
		}()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("live session outlived the hub")
	}
}
