package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/playback"
	"github.com/princekumarofficial/familybook/internal/types"
)

// Live viewer commands sent by the client as {"action": "..."}.
const (
	ActionNext    = "next"
	ActionPrev    = "prev"
	ActionDelete  = "delete"
	ActionRefresh = "refresh"
)

type Command struct {
	Action string `json:"action"`
}

// LiveSession streams one account's stories to one socket. Commands from the
// socket and story events for the account are applied one at a time on the
// session goroutine.
type LiveSession struct {
	client    *Client
	viewer    *playback.Viewer
	accountID string
	userID    string
	commands  chan string
	logger    *zap.Logger

	// OnDeleted runs after the viewer soft-deletes a story.
	OnDeleted func(types.Story)
}

func NewLiveSession(client *Client, viewer *playback.Viewer, accountID, userID string, logger *zap.Logger) *LiveSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveSession{
		client:    client,
		viewer:    viewer,
		accountID: accountID,
		userID:    userID,
		commands:  make(chan string, 16),
		logger:    logger.With(zap.String("account_id", accountID), zap.String("user_id", userID)),
	}
}

// FrameObserver builds the Player observer that pushes playback frames to
// client.
func FrameObserver(client *Client, accountID string) func(playback.Snapshot) {
	return func(snap playback.Snapshot) {
		client.SendEvent(types.NewEvent(types.EventPlaybackFrame, accountID, snap.Frame()))
	}
}

// Run loads the stories, starts playback and serves commands until the socket
// closes, ctx is done or the hub stops. Playback is stopped before Run returns.
func (s *LiveSession) Run(ctx context.Context, hub *Hub) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopWatching := hub.WatchAccount(s.accountID, func(e *types.Event) {
		switch e.Type {
		case types.EventStoryPosted, types.EventStoryDeleted:
			s.enqueue(ActionRefresh)
		}
	})
	defer stopWatching()

	s.client.Start(s.onMessage, cancel)

	player := s.viewer.Player()
	if err := s.viewer.Load(ctx, s.accountID); err != nil {
		s.notice(err)
	}
	player.Start(ctx)
	defer player.Stop()

	for {
		select {
		case <-ctx.Done():
			s.client.Close()
			s.logger.Debug("live session closed")
			return
		case <-hub.Stopped():
			s.client.Close()
			return
		case <-s.client.Done():
			return
		case action := <-s.commands:
			s.handle(ctx, action)
		}
	}
}

func (s *LiveSession) onMessage(raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.send(types.EventPlaybackNotice, types.PlaybackNotice{Message: "malformed command"})
		return
	}
	s.enqueue(cmd.Action)
}

// enqueue drops the command when the session is backed up; a refresh or a
// tap that gets lost is harmless.
func (s *LiveSession) enqueue(action string) {
	select {
	case s.commands <- action:
	default:
		s.logger.Warn("live session command dropped", zap.String("action", action))
	}
}

func (s *LiveSession) handle(ctx context.Context, action string) {
	switch action {
	case ActionNext:
		s.viewer.Next()
	case ActionPrev:
		s.viewer.Prev()
	case ActionRefresh:
		if err := s.viewer.Refresh(ctx); err != nil {
			s.notice(err)
		}
	case ActionDelete:
		story, err := s.viewer.Delete(ctx, s.userID)
		if err != nil && story.ID == "" {
			s.notice(err)
			return
		}
		s.logger.Info("story deleted from live viewer", zap.String("story_id", story.ID))
		if s.OnDeleted != nil {
			s.OnDeleted(story)
		}
		if err != nil {
			s.notice(err)
		}
	default:
		s.send(types.EventPlaybackNotice, types.PlaybackNotice{Message: "unknown action " + action})
	}
}

func (s *LiveSession) notice(err error) {
	if errors.Is(err, playback.ErrStaleSelection) {
		return
	}
	if !playback.IsNotice(err) {
		s.logger.Warn("live session operation failed", zap.Error(err))
	}
	s.send(types.EventPlaybackNotice, types.PlaybackNotice{Message: err.Error()})
}

func (s *LiveSession) send(t types.EventType, data interface{}) {
	if err := s.client.SendEvent(types.NewEvent(t, s.accountID, data)); err != nil {
		s.logger.Debug("live session send failed", zap.Error(err))
	}
}
