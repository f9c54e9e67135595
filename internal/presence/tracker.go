package presence

import (
	"context"
	"log"
	"sync"

	"messenger/internal/models"
	"messenger/internal/observability"
)

// Broadcaster delivers a payload to the live connections of a set of
// users. Satisfied by ws.Router.
type Broadcaster interface {
	SendToUsers(userIDs []int, payload interface{})
}

// StatusStore persists the online flag and last-seen timestamp.
type StatusStore interface {
	SetOnline(ctx context.Context, userID int, online bool) error
}

// PeerSource lists the users sharing at least one chat with a user.
type PeerSource interface {
	PeerIDs(ctx context.Context, userID int) ([]int, error)
}

// Tracker reference-counts live connections per user. A user goes online
// on the first connection and offline only when the last one closes, so a
// second device disconnecting never flips an active user offline.
type Tracker struct {
	mu     sync.Mutex
	live   map[int]int
	users  StatusStore
	peers  PeerSource
	router Broadcaster
}

// NewTracker constructs a Tracker.
func NewTracker(users StatusStore, peers PeerSource, router Broadcaster) *Tracker {
	return &Tracker{
		live:   make(map[int]int),
		users:  users,
		peers:  peers,
		router: router,
	}
}

// Connect records a new live connection for the user.
//
// The transition runs while the tracker mutex is held so that transitions
// for one user reach the store and the peers in refcount order; a 1->0
// followed by a 0->1 must never persist offline last.
func (t *Tracker) Connect(ctx context.Context, userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.live[userID]++
	if t.live[userID] != 1 {
		return
	}
	observability.IncOnlineUsers()
	t.transition(ctx, userID, true)
}

// Disconnect records a closed connection for the user.
func (t *Tracker) Disconnect(ctx context.Context, userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count, ok := t.live[userID]
	if !ok {
		return
	}
	count--
	if count <= 0 {
		delete(t.live, userID)
	} else {
		t.live[userID] = count
		return
	}
	observability.DecOnlineUsers()
	t.transition(ctx, userID, false)
}

// Online reports whether the user has at least one live connection.
func (t *Tracker) Online(userID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[userID] > 0
}

func (t *Tracker) transition(ctx context.Context, userID int, online bool) {
	if err := t.users.SetOnline(ctx, userID, online); err != nil {
		log.Printf("set online=%v for user %d: %v", online, userID, err)
	}

	eventType := models.EventUserOffline
	routingKey := "presence.offline"
	if online {
		eventType = models.EventUserOnline
		routingKey = "presence.online"
	}

	peerIDs, err := t.peers.PeerIDs(ctx, userID)
	if err != nil {
		log.Printf("list peers for user %d: %v", userID, err)
	} else if len(peerIDs) > 0 {
		t.router.SendToUsers(peerIDs, models.ServerEvent{Type: eventType, UserID: userID})
	}

	_ = observability.PublishEvent(ctx, routingKey, observability.EventEnvelope{
		EventType: "presence",
		EventName: eventType,
		Payload:   map[string]interface{}{"user_id": userID, "online": online},
	}, nil)
}
