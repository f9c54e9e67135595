package ws

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrNotMember = errors.New("not a chat member")

// MembershipChecker gates room subscriptions. Satisfied by the chat
// repository.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
}

// Conn is the subset of a websocket connection the router writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type connection struct {
	id     string
	userID int
	conn   Conn
	rooms  map[int]struct{}

	// serializes writes: gorilla connections do not allow concurrent writers
	writeMu sync.Mutex
}

func (c *connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *connection) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.Close()
}

// Router owns the live connection and room tables and fans events out to
// subscribers. Authorization is checked against the membership store before
// the tables are touched; no storage call happens under the lock.
type Router struct {
	mu        sync.RWMutex
	conns     map[string]*connection
	rooms     map[int]map[string]*connection
	userConns map[int]map[string]*connection
	members   MembershipChecker
}

// NewRouter creates an empty router.
func NewRouter(members MembershipChecker) *Router {
	return &Router{
		conns:     make(map[string]*connection),
		rooms:     make(map[int]map[string]*connection),
		userConns: make(map[int]map[string]*connection),
		members:   members,
	}
}

// Register binds a connection to its authenticated user for the
// connection's lifetime.
func (r *Router) Register(connID string, userID int, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &connection{id: connID, userID: userID, conn: conn, rooms: make(map[int]struct{})}
	r.conns[connID] = c
	if _, ok := r.userConns[userID]; !ok {
		r.userConns[userID] = make(map[string]*connection)
	}
	r.userConns[userID][connID] = c
}

// JoinRoom subscribes the connection to the chat's room after checking
// membership. The joined ack goes to the caller alone; a denial changes
// nothing and is signalled to the caller only.
func (r *Router) JoinRoom(ctx context.Context, connID string, chatID int) error {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	member, err := r.members.IsParticipant(ctx, chatID, c.userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}

	r.mu.Lock()
	// the connection may have been dropped while the membership check ran
	c, ok = r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if _, ok := r.rooms[chatID]; !ok {
		r.rooms[chatID] = make(map[string]*connection)
	}
	r.rooms[chatID][connID] = c
	c.rooms[chatID] = struct{}{}
	r.mu.Unlock()
	return nil
}

// LeaveRoom unsubscribes the connection from the room. Leaving needs no
// membership check and leaving a room never joined is a no-op.
func (r *Router) LeaveRoom(connID string, chatID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conns, ok := r.rooms[chatID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.rooms, chatID)
		}
	}
	if c, ok := r.conns[connID]; ok {
		delete(c.rooms, chatID)
	}
}

// Broadcast sends payload to every connection subscribed to the chat's
// room except the excluded one. Connections that fail to write are closed
// and dropped.
func (r *Router) Broadcast(chatID int, payload interface{}, excludeConnID string) {
	r.mu.RLock()
	targets := make([]*connection, 0, len(r.rooms[chatID]))
	for id, c := range r.rooms[chatID] {
		if id == excludeConnID {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			c.close()
			r.DropConnection(c.id)
		}
	}
}

// SendToUsers delivers payload to every live connection of the given
// users. Used for presence fanout, which is user-addressed rather than
// room-addressed.
func (r *Router) SendToUsers(userIDs []int, payload interface{}) {
	r.mu.RLock()
	var targets []*connection
	for _, userID := range userIDs {
		for _, c := range r.userConns[userID] {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			c.close()
			r.DropConnection(c.id)
		}
	}
}

// SendToConn delivers payload to a single connection, if still registered.
func (r *Router) SendToConn(connID string, payload interface{}) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.writeJSON(payload); err != nil {
		log.Printf("websocket write error: %v", err)
		c.close()
		r.DropConnection(c.id)
	}
}

// DropConnection removes the connection from every room and from the
// connection tables. Idempotent: dropping twice or dropping an unknown id
// is a no-op.
func (r *Router) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	for chatID := range c.rooms {
		if conns, ok := r.rooms[chatID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.rooms, chatID)
			}
		}
	}
	if conns, ok := r.userConns[c.userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.userConns, c.userID)
		}
	}
	delete(r.conns, connID)
}

// RoomSize reports the number of subscribers in a room.
func (r *Router) RoomSize(chatID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[chatID])
}
