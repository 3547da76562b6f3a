package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/types"
)

// Hub maintains the set of active clients and fans events out to them. A user
// may hold several connections at once, one per open tab.
type Hub struct {
	// Registered clients grouped by user ID
	clients map[string]map[*Client]struct{}

	// Account watchers, keyed by account then watcher id
	watchers  map[string]map[uint64]func(*types.Event)
	watcherID uint64

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	// stopped is closed when Run returns
	stopped chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger
}

// BroadcastMessage represents a message to be broadcast to specific users
type BroadcastMessage struct {
	UserIDs []string     `json:"user_ids"`
	Event   *types.Event `json:"event"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		watchers:   make(map[string]map[uint64]func(*types.Event)),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done, closing every
// client still connected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					c.Close()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("websocket client connected", zap.String("user_id", client.userID))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.broadcastToUsers(message.UserIDs, message.Event)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
	h.logger.Info("websocket client disconnected", zap.String("user_id", client.userID))
}

// RegisterClient registers a new client. After the hub stops the client is
// closed instead.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
		client.Close()
	}
}

// Stopped is closed once Run has returned.
func (h *Hub) Stopped() <-chan struct{} { return h.stopped }

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// BroadcastToUsers sends an event to specific users
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	message := &BroadcastMessage{
		UserIDs: userIDs,
		Event:   event,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel is full, dropping message", zap.String("type", string(event.Type)))
	}
}

// BroadcastToUser sends an event to a specific user
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *Hub) broadcastToUsers(userIDs []string, event *types.Event) {
	var failed []*Client

	h.mu.RLock()
	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			if err := client.SendEvent(event); err != nil {
				h.logger.Warn("failed to send event to client",
					zap.String("user_id", userID),
					zap.Error(err))
				failed = append(failed, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.remove(c)
	}
}

// WatchAccount calls fn for every event published to accountID until the
// returned cancel func is called. fn runs on the publisher's goroutine and
// must not block.
func (h *Hub) WatchAccount(accountID string, fn func(*types.Event)) (cancel func()) {
	h.mu.Lock()
	h.watcherID++
	id := h.watcherID
	set, ok := h.watchers[accountID]
	if !ok {
		set = make(map[uint64]func(*types.Event))
		h.watchers[accountID] = set
	}
	set[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.watchers[accountID], id)
			if len(h.watchers[accountID]) == 0 {
				delete(h.watchers, accountID)
			}
		})
	}
}

// NotifyAccount hands event to the watchers of its account.
func (h *Hub) NotifyAccount(event *types.Event) {
	h.mu.RLock()
	fns := make([]func(*types.Event), 0, len(h.watchers[event.AccountID]))
	for _, fn := range h.watchers[event.AccountID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// GetClientCount returns the number of open connections
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
