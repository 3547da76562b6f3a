package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

type fakeStoryStore struct {
	mu      sync.Mutex
	stories map[string][]types.Story
	err     error
	deleted []string
	// gate, when set for an account, blocks ListStories until it is closed.
	gate map[string]chan struct{}
}

func newFakeStoryStore() *fakeStoryStore {
	return &fakeStoryStore{
		stories: make(map[string][]types.Story),
		gate:    make(map[string]chan struct{}),
	}
}

func (f *fakeStoryStore) ListStories(ctx context.Context, accountID string) ([]types.Story, error) {
	f.mu.Lock()
	gate := f.gate[accountID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]types.Story(nil), f.stories[accountID]...), nil
}

func (f *fakeStoryStore) SoftDelete(ctx context.Context, table, rowID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if table != storage.TableStories {
		return false, errors.New("unexpected table " + table)
	}
	for account, list := range f.stories {
		for i, s := range list {
			if s.ID == rowID {
				f.stories[account] = append(list[:i:i], list[i+1:]...)
				f.deleted = append(f.deleted, rowID)
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStoryStore) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func newTestViewer(store StoryStore) *Viewer {
	ctrl := NewController(nil, time.Hour, 2*time.Hour)
	return NewViewer(store, NewPlayer(ctrl), nil)
}

func TestViewerLoad(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc-1"] = makeStories("s3", "s2", "s1")
	v := newTestViewer(store)

	if err := v.Refresh(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection before Load, got %v", err)
	}

	if err := v.Load(context.Background(), "acc-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := v.Snapshot()
	if snap.Index != 0 || len(snap.Stories) != 3 {
		t.Fatalf("expected Showing(0) of 3, got index=%d len=%d", snap.Index, len(snap.Stories))
	}
	if story, _ := snap.Current(); story.ID != "s3" {
		t.Fatalf("expected the list order from storage, got %q first", story.ID)
	}
	if v.AccountID() != "acc-1" {
		t.Fatalf("unexpected account %q", v.AccountID())
	}
}

func TestViewerDropsStaleSelection(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["old"] = makeStories("old-1")
	store.stories["new"] = makeStories("new-1", "new-2")
	gate := make(chan struct{})
	store.gate["old"] = gate
	v := newTestViewer(store)

	errc := make(chan error, 1)
	go func() { errc <- v.Load(context.Background(), "old") }()

	// Wait until the slow load has taken its selection before switching.
	deadline := time.Now().Add(time.Second)
	for v.AccountID() != "old" {
		if time.Now().After(deadline) {
			t.Fatal("slow load never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := v.Load(context.Background(), "new"); err != nil {
		t.Fatalf("load new: %v", err)
	}
	close(gate)

	if err := <-errc; !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("expected ErrStaleSelection for the old response, got %v", err)
	}

	snap := v.Snapshot()
	if len(snap.Stories) != 2 {
		t.Fatalf("stale response overwrote the current list: %+v", snap.Stories)
	}
	if story, _ := snap.Current(); story.ID != "new-1" {
		t.Fatalf("expected new-1 showing, got %q", story.ID)
	}
}

func TestViewerRefreshFailureKeepsList(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("a", "b")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.Next()

	boom := errors.New("connection reset")
	store.setErr(boom)

	err := v.Refresh(context.Background())
	if !IsNotice(err) {
		t.Fatalf("expected a notice, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("notice should wrap the cause, got %v", err)
	}

	snap := v.Snapshot()
	if len(snap.Stories) != 2 || snap.Index != 1 {
		t.Fatalf("expected list and position kept, got len=%d index=%d", len(snap.Stories), snap.Index)
	}
}

func TestViewerDeleteRequiresAuthor(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("a", "b")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := v.Delete(context.Background(), "someone-else"); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("nothing should be deleted, got %v", store.deleted)
	}
}

func TestViewerDeleteRefetches(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("a", "b", "c")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.Next()

	deleted, err := v.Delete(context.Background(), "author-b")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != "b" {
		t.Fatalf("expected b deleted, got %q", deleted.ID)
	}

	snap := v.Snapshot()
	if snap.Index != 0 || len(snap.Stories) != 2 {
		t.Fatalf("expected Showing(0) of 2 after delete, got index=%d len=%d", snap.Index, len(snap.Stories))
	}
	for _, s := range snap.Stories {
		if s.ID == "b" {
			t.Fatal("deleted story still listed")
		}
	}
}

func TestViewerDeleteLastStoryGoesEmpty(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("only")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := v.Delete(context.Background(), "author-only"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if snap := v.Snapshot(); !snap.Empty() || snap.Index != -1 {
		t.Fatalf("expected Empty, got %+v", snap)
	}

	if _, err := v.Delete(context.Background(), "author-only"); !errors.Is(err, ErrNothingShowing) {
		t.Fatalf("expected ErrNothingShowing on Empty, got %v", err)
	}
}

func TestViewerDeleteWithFailedRefetchDropsStory(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("a", "b")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}
	v.Next()

	boom := errors.New("boom")
	store.setErr(boom)

	deleted, err := v.Delete(context.Background(), "author-b")
	if deleted.ID != "b" {
		t.Fatalf("expected b deleted, got %q", deleted.ID)
	}
	if !IsNotice(err) || !errors.Is(err, boom) {
		t.Fatalf("expected a notice wrapping the refetch error, got %v", err)
	}

	snap := v.Snapshot()
	if snap.Index != 0 || len(snap.Stories) != 1 {
		t.Fatalf("expected Showing(0) of 1, got index=%d len=%d", snap.Index, len(snap.Stories))
	}
	if story, _ := snap.Current(); story.ID != "a" {
		t.Fatalf("deleted story still showing: %q", story.ID)
	}
}

func TestViewerDeleteLastStoryWithFailedRefetchGoesEmpty(t *testing.T) {
	store := newFakeStoryStore()
	store.stories["acc"] = makeStories("only")
	v := newTestViewer(store)
	if err := v.Load(context.Background(), "acc"); err != nil {
		t.Fatalf("load: %v", err)
	}
	store.setErr(errors.New("boom"))

	if _, err := v.Delete(context.Background(), "author-only"); !IsNotice(err) {
		t.Fatalf("expected a notice, got %v", err)
	}
	if snap := v.Snapshot(); !snap.Empty() || snap.Index != -1 {
		t.Fatalf("expected Empty, got %+v", snap)
	}
}
