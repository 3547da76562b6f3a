package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishStoryPosted(ctx context.Context, story types.Story)
	PublishStoryDeleted(ctx context.Context, story types.Story)
	PublishMemberRequested(ctx context.Context, account types.Account, userID string)
	PublishMemberUpdated(ctx context.Context, accountID string, update types.MemberUpdate)
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	BroadcastToUsers(userIDs []string, event *types.Event)
	NotifyAccount(event *types.Event)
}

// Audience resolves who may see an account's events.
type Audience interface {
	ListMemberUserIDs(ctx context.Context, accountID string) ([]string, error)
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub      WebSocketHub
	audience Audience
	logger   *zap.Logger
}

var _ Publisher = (*EventPublisher)(nil)

func NewEventPublisher(hub WebSocketHub, audience Audience, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{
		hub:      hub,
		audience: audience,
		logger:   logger,
	}
}

// toAccount sends event to every non-pending member and to live viewers of
// the account. Delivery is best effort.
func (p *EventPublisher) toAccount(ctx context.Context, event *types.Event, extra ...string) {
	userIDs, err := p.audience.ListMemberUserIDs(ctx, event.AccountID)
	if err != nil {
		p.logger.Warn("resolve event audience failed",
			zap.String("account_id", event.AccountID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
	userIDs = append(userIDs, extra...)

	if len(userIDs) > 0 {
		p.hub.BroadcastToUsers(dedupe(userIDs), event)
	}
	p.hub.NotifyAccount(event)
}

func (p *EventPublisher) PublishStoryPosted(ctx context.Context, story types.Story) {
	p.toAccount(ctx, types.NewEvent(types.EventStoryPosted, story.AccountID, &types.StoryEvent{
		StoryID:  story.ID,
		AuthorID: story.AuthorID,
	}))
}

func (p *EventPublisher) PublishStoryDeleted(ctx context.Context, story types.Story) {
	p.toAccount(ctx, types.NewEvent(types.EventStoryDeleted, story.AccountID, &types.StoryEvent{
		StoryID:  story.ID,
		AuthorID: story.AuthorID,
	}))
}

// PublishMemberRequested tells the owner that someone used the invite code.
func (p *EventPublisher) PublishMemberRequested(ctx context.Context, account types.Account, userID string) {
	p.hub.BroadcastToUser(account.OwnerID, types.NewEvent(types.EventMemberRequested, account.ID, &types.MemberEvent{
		UserID: userID,
		Role:   types.RolePending,
	}))
}

// PublishMemberUpdated reaches the account and the edited user, who may have
// just been let in or moved back to pending.
func (p *EventPublisher) PublishMemberUpdated(ctx context.Context, accountID string, update types.MemberUpdate) {
	p.toAccount(ctx, types.NewEvent(types.EventMemberUpdated, accountID, &types.MemberEvent{
		UserID: update.UserID,
		Role:   update.Role,
	}), update.UserID)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
