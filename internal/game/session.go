package game

import (
	"log"

	"phantom-world/internal/model"
	"phantom-world/internal/world"
)

// Connect runs the wallet handshake for an already-registered connection.
// A blank public key is ignored; the client never gets an init payload and
// stays invisible to everyone else.
func (e *Engine) Connect(sessionID, publicKey string) {
	e.post(func() {
		if publicKey == "" {
			log.Printf("connect without public key, session %s ignored", sessionID)
			return
		}

		// A repeated handshake resets the session to the world map; if the
		// old user was inside a plot, its occupancy must go with it.
		if prev, ok := e.users[sessionID]; ok && prev.CurrentPlot != "" {
			plotID := prev.CurrentPlot
			e.leaveRoom(plotID, sessionID)
			e.hub.BroadcastRoom(plotID, sessionID, "playerLeftPlot", sessionID)
		}

		u := &model.User{
			SessionID: sessionID,
			PublicKey: publicKey,
			Color:     world.WalletColor(publicKey),
			PlotX:     plotSpawnX,
			PlotY:     plotSpawnY,
			PlotZ:     plotSpawnZ,
		}

		if saved, ok := e.store.SavedPosition(publicKey); ok {
			u.WorldX = saved.WorldX
			u.WorldY = saved.WorldY
			u.PlotX = saved.PlotX
			u.PlotY = saved.PlotY
			u.PlotZ = saved.PlotZ
			u.PlotRotY = saved.PlotRotY
		} else {
			start := e.store.World().StartPosition
			u.WorldX = start.X
			u.WorldY = start.Y
		}
		// Sessions always begin on the world map, whatever the wallet was
		// doing when it left.
		u.CurrentPlot = ""

		e.users[sessionID] = u
		e.persistPosition(u)

		e.hub.Send(sessionID, "init", e.initPayload(u))
		e.hub.BroadcastAll(sessionID, "userJoined", u)
		log.Printf("user connected: %s (%s)", sessionID, shortKey(publicKey))
	})
}

func (e *Engine) initPayload(u *model.User) InitPayload {
	m := e.store.World()

	worldMap := make([]model.Plot, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		if p, ok := e.store.Plot(n.ID); ok {
			worldMap = append(worldMap, p)
		}
	}

	// Only users roaming the world map are visible at connect time; plot
	// occupants appear when the new user enters their plot.
	others := make([]*model.User, 0, len(e.users))
	for id, other := range e.users {
		if id == u.SessionID || other.CurrentPlot != "" {
			continue
		}
		others = append(others, other)
	}

	return InitPayload{User: u, WorldMap: worldMap, Users: others}
}

// WorldMove updates a user's world map position and fans it out. In strict
// mode positions off the node/corridor graph are dropped.
func (e *Engine) WorldMove(sessionID string, x, y float64) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok {
			return
		}
		if e.strict && !world.ValidPosition(e.store.World(), e.params, x, y) {
			return
		}

		u.WorldX = x
		u.WorldY = y
		u.LastMoveTime = e.nowMillis()

		e.hub.BroadcastAll(sessionID, "userWorldMoved", WorldMovedPayload{
			SessionID: sessionID,
			X:         x,
			Y:         y,
		})
		e.persistPosition(u)
	})
}

// Disconnect tears the session down: plot cleanup first, then the global
// departure broadcast.
func (e *Engine) Disconnect(sessionID string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok {
			return
		}

		if u.CurrentPlot != "" {
			plotID := u.CurrentPlot
			e.leaveRoom(plotID, sessionID)
			u.CurrentPlot = ""
			e.hub.BroadcastRoom(plotID, sessionID, "playerLeftPlot", sessionID)
		}

		e.persistPosition(u)
		delete(e.users, sessionID)

		e.hub.BroadcastAll(sessionID, "userLeft", sessionID)
		log.Printf("user disconnected: %s", sessionID)
	})
}

func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
