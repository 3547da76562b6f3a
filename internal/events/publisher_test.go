package events

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/princekumarofficial/familybook/internal/types"
)

type sent struct {
	userIDs []string
	event   *types.Event
}

type fakeHub struct {
	sent     []sent
	notified []*types.Event
}

func (h *fakeHub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *fakeHub) BroadcastToUsers(userIDs []string, event *types.Event) {
	h.sent = append(h.sent, sent{userIDs: append([]string(nil), userIDs...), event: event})
}

func (h *fakeHub) NotifyAccount(event *types.Event) {
	h.notified = append(h.notified, event)
}

type fakeAudience struct {
	ids []string
	err error
}

func (a fakeAudience) ListMemberUserIDs(context.Context, string) ([]string, error) {
	return append([]string(nil), a.ids...), a.err
}

func TestPublishStoryPosted(t *testing.T) {
	hub := &fakeHub{}
	p := NewEventPublisher(hub, fakeAudience{ids: []string{"1", "2"}}, nil)

	p.PublishStoryPosted(context.Background(), types.Story{ID: "9", AccountID: "acc", AuthorID: "1"})

	if len(hub.sent) != 1 || len(hub.sent[0].userIDs) != 2 {
		t.Fatalf("expected one broadcast to both members, got %+v", hub.sent)
	}
	e := hub.sent[0].event
	if e.Type != types.EventStoryPosted || e.AccountID != "acc" {
		t.Fatalf("unexpected event %+v", e)
	}
	if data, ok := e.Data.(*types.StoryEvent); !ok || data.StoryID != "9" {
		t.Fatalf("unexpected payload %#v", e.Data)
	}
	if len(hub.notified) != 1 {
		t.Fatal("live viewers of the account must be notified")
	}
}

func TestPublishStillNotifiesWhenAudienceFails(t *testing.T) {
	hub := &fakeHub{}
	p := NewEventPublisher(hub, fakeAudience{err: errors.New("db down")}, nil)

	p.PublishStoryDeleted(context.Background(), types.Story{ID: "9", AccountID: "acc"})

	if len(hub.sent) != 0 {
		t.Fatalf("nothing to broadcast without an audience, got %+v", hub.sent)
	}
	if len(hub.notified) != 1 || hub.notified[0].Type != types.EventStoryDeleted {
		t.Fatalf("expected live viewers notified, got %+v", hub.notified)
	}
}

func TestPublishMemberUpdatedReachesEditedUser(t *testing.T) {
	hub := &fakeHub{}
	p := NewEventPublisher(hub, fakeAudience{ids: []string{"1", "2"}}, nil)

	p.PublishMemberUpdated(context.Background(), "acc", types.MemberUpdate{UserID: "3", Role: types.RolePending})
	p.PublishMemberUpdated(context.Background(), "acc", types.MemberUpdate{UserID: "2", Role: types.RoleGuest})

	got := hub.sent[0].userIDs
	sort.Strings(got)
	if len(got) != 3 || got[2] != "3" {
		t.Fatalf("expected members plus the edited pending user, got %v", got)
	}
	if again := hub.sent[1].userIDs; len(again) != 2 {
		t.Fatalf("edited member must not be listed twice, got %v", again)
	}
}

func TestPublishMemberRequestedGoesToOwner(t *testing.T) {
	hub := &fakeHub{}
	p := NewEventPublisher(hub, fakeAudience{}, nil)

	p.PublishMemberRequested(context.Background(), types.Account{ID: "acc", OwnerID: "1"}, "5")

	if len(hub.sent) != 1 || len(hub.sent[0].userIDs) != 1 || hub.sent[0].userIDs[0] != "1" {
		t.Fatalf("expected a single event to the owner, got %+v", hub.sent)
	}
	if hub.sent[0].event.Type != types.EventMemberRequested {
		t.Fatalf("unexpected type %s", hub.sent[0].event.Type)
	}
	if len(hub.notified) != 0 {
		t.Fatal("join requests are not account-wide")
	}
}
