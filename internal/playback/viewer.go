package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

var (
	ErrNoSelection    = errors.New("no account selected")
	ErrStaleSelection = errors.New("response belongs to a previous selection")
	ErrNothingShowing = errors.New("no story is showing")
	ErrNotAuthor      = errors.New("only the author can delete a story")
)

// StoryStore is the slice of storage the viewer reads and soft-deletes through.
type StoryStore interface {
	ListStories(ctx context.Context, accountID string) ([]types.Story, error)
	SoftDelete(ctx context.Context, table, rowID string) (bool, error)
}

// Notice is a non-fatal viewer error. The previously loaded list stays in place.
type Notice struct {
	Op  string
	Err error
}

func (n *Notice) Error() string { return n.Op + ": " + n.Err.Error() }

func (n *Notice) Unwrap() error { return n.Err }

// IsNotice reports whether err is a non-fatal viewer notice.
func IsNotice(err error) bool {
	var n *Notice
	return errors.As(err, &n)
}

// Viewer binds a Player to one account's stories. Every fetch is tagged with
// the selection active when it was issued; a response for an older selection
// is discarded so it cannot overwrite the current one.
type Viewer struct {
	store  StoryStore
	player *Player
	logger *zap.Logger

	mu        sync.Mutex
	accountID string
	selection uint64
}

func NewViewer(store StoryStore, player *Player, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{store: store, player: player, logger: logger}
}

func (v *Viewer) Player() *Player { return v.player }

func (v *Viewer) AccountID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accountID
}

// Load selects accountID and fetches its stories.
func (v *Viewer) Load(ctx context.Context, accountID string) error {
	v.mu.Lock()
	v.selection++
	v.accountID = accountID
	key := v.selection
	v.mu.Unlock()

	return v.fetch(ctx, "load", accountID, key)
}

// Refresh refetches the current selection. A failed fetch returns a *Notice
// and keeps the list on screen.
func (v *Viewer) Refresh(ctx context.Context) error {
	v.mu.Lock()
	accountID, key := v.accountID, v.selection
	v.mu.Unlock()

	if accountID == "" {
		return ErrNoSelection
	}
	return v.fetch(ctx, "refresh", accountID, key)
}

func (v *Viewer) fetch(ctx context.Context, op, accountID string, key uint64) error {
	stories, err := v.store.ListStories(ctx, accountID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if key != v.selection {
		v.logger.Debug("dropping stale stories response",
			zap.String("account_id", accountID),
			zap.Uint64("selection", key),
			zap.Uint64("current", v.selection))
		return ErrStaleSelection
	}
	if err != nil {
		v.logger.Warn("stories fetch failed, keeping previous list",
			zap.String("op", op),
			zap.String("account_id", accountID),
			zap.Error(err))
		return &Notice{Op: op, Err: err}
	}

	// Still under v.mu, so a concurrent Load cannot interleave a newer list
	// before this one.
	v.player.Replace(stories)
	return nil
}

func (v *Viewer) Next() Snapshot { return v.player.Next() }

func (v *Viewer) Prev() Snapshot { return v.player.Prev() }

func (v *Viewer) Snapshot() Snapshot { return v.player.Snapshot() }

// Delete soft-deletes the story on screen if actingUserID wrote it, then
// refetches. Either way the player lands on Showing(0) or Empty without the
// deleted story: a failed refetch drops it from the list already loaded and
// the *Notice is still returned.
func (v *Viewer) Delete(ctx context.Context, actingUserID string) (types.Story, error) {
	story, ok := v.player.Snapshot().Current()
	if !ok {
		return types.Story{}, ErrNothingShowing
	}
	if story.AuthorID != actingUserID {
		return types.Story{}, ErrNotAuthor
	}

	if _, err := v.store.SoftDelete(ctx, storage.TableStories, story.ID); err != nil {
		return types.Story{}, fmt.Errorf("delete story %s: %w", story.ID, err)
	}

	if err := v.Refresh(ctx); err != nil {
		if IsNotice(err) {
			v.drop(story.ID)
		}
		return story, err
	}
	return story, nil
}

func (v *Viewer) drop(storyID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	current := v.player.Snapshot().Stories
	kept := make([]types.Story, 0, len(current))
	for _, s := range current {
		if s.ID != storyID {
			kept = append(kept, s)
		}
	}
	v.player.Replace(kept)
}
