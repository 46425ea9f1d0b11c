package hub

import "sync"

// Conn is one live socket, addressable by its session id.
type Conn interface {
	SessionID() string
	Emit(event string, args ...any) error
	EmitBinary(event string, arg any, attachment []byte) error
	Close() error
}

// Hub routes server-to-client events: unicast by session id, broadcast to a
// plot room, or broadcast to every connected session. Room membership is
// driven by the engine and kept in lockstep with plot occupancy.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	rooms map[string]map[string]Conn
}

func New() *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]Conn),
	}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.SessionID()] = c
}

func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, sessionID)
	for plotID, room := range h.rooms {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(h.rooms, plotID)
		}
	}
}

func (h *Hub) Join(plotID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[sessionID]
	if !ok {
		return
	}
	room := h.rooms[plotID]
	if room == nil {
		room = make(map[string]Conn)
		h.rooms[plotID] = room
	}
	room[sessionID] = c
}

func (h *Hub) Leave(plotID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[plotID]
	if !ok {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, plotID)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send emits to one session; unknown sessions are a no-op.
func (h *Hub) Send(sessionID, event string, args ...any) {
	h.mu.RLock()
	c, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.Emit(event, args...); err != nil {
		h.drop(c)
	}
}

// BroadcastAll emits to every connected session except the given one (pass
// "" to include everyone).
func (h *Hub) BroadcastAll(exceptSessionID, event string, args ...any) {
	for _, c := range h.snapshot(h.connsLocked, exceptSessionID) {
		if err := c.Emit(event, args...); err != nil {
			h.drop(c)
		}
	}
}

// BroadcastRoom emits to the plot room, optionally excluding one session.
func (h *Hub) BroadcastRoom(plotID, exceptSessionID, event string, args ...any) {
	for _, c := range h.snapshot(func() map[string]Conn { return h.rooms[plotID] }, exceptSessionID) {
		if err := c.Emit(event, args...); err != nil {
			h.drop(c)
		}
	}
}

// BroadcastRoomBinary emits a binary event (JSON header + one attachment)
// to the plot room.
func (h *Hub) BroadcastRoomBinary(plotID, exceptSessionID, event string, arg any, attachment []byte) {
	for _, c := range h.snapshot(func() map[string]Conn { return h.rooms[plotID] }, exceptSessionID) {
		if err := c.EmitBinary(event, arg, attachment); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) connsLocked() map[string]Conn { return h.conns }

func (h *Hub) snapshot(source func() map[string]Conn, except string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := source()
	out := make([]Conn, 0, len(set))
	for sid, c := range set {
		if sid == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (h *Hub) drop(c Conn) {
	_ = c.Close()
	h.Unregister(c.SessionID())
}
