package game

import (
	"log"

	"phantom-world/internal/model"
)

// EnterPlot moves the session from the world map into a plot. Unknown plot
// ids and double-enters are ignored.
func (e *Engine) EnterPlot(sessionID, plotID string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot != "" {
			return
		}
		plot, ok := e.store.Plot(plotID)
		if !ok {
			return
		}

		u.CurrentPlot = plotID
		u.PlotX = plotSpawnX
		u.PlotY = plotSpawnY
		u.PlotZ = plotSpawnZ
		u.PlotRotY = 0

		e.joinRoom(plotID, sessionID)

		e.hub.Send(sessionID, "enteredPlot", EnteredPlotPayload{
			PlotID:   plotID,
			PlotData: plot,
			Players:  e.roomUsers(plotID),
		})
		e.hub.BroadcastRoom(plotID, sessionID, "playerJoinedPlot", u)
		e.hub.BroadcastAll(sessionID, "userEnteredPlot", UserEnteredPlotPayload{
			SessionID: sessionID,
			PlotID:    plotID,
		})
		e.persistPosition(u)
		log.Printf("user %s entered plot %s", sessionID, plotID)
	})
}

// ExitPlot returns the session to the world map at its last world position.
func (e *Engine) ExitPlot(sessionID string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot == "" {
			return
		}

		plotID := u.CurrentPlot
		e.leaveRoom(plotID, sessionID)
		u.CurrentPlot = ""

		e.hub.BroadcastRoom(plotID, sessionID, "playerLeftPlot", sessionID)
		e.hub.Send(sessionID, "exitedPlot")
		e.hub.BroadcastAll(sessionID, "userExitedPlot", UserExitedPlotPayload{
			SessionID: sessionID,
		})
		e.persistPosition(u)
		log.Printf("user %s exited plot %s", sessionID, plotID)
	})
}

// PlotMove applies a binary movement record. State always updates; the
// broadcast is throttled per session so a fast client cannot flood the
// room. The raw record is relayed untouched.
func (e *Engine) PlotMove(sessionID string, data []byte) {
	rec, err := DecodeMoveRecord(data)
	if err != nil {
		return
	}
	buf := append([]byte(nil), data...)

	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot == "" {
			return
		}

		u.PlotX = float64(rec.X)
		u.PlotY = float64(rec.Y)
		u.PlotZ = float64(rec.Z)
		u.PlotRotY = float64(rec.RotY)

		now := e.nowMillis()
		u.LastMoveTime = now
		if now-u.LastBroadcastTime > e.throttle.Milliseconds() {
			u.LastBroadcastTime = now
			e.hub.BroadcastRoomBinary(u.CurrentPlot, sessionID, "userPlotMovedBinary",
				map[string]any{"sessionId": sessionID}, buf)
		}
	})
}

type PlaceObjectRequest struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Color  string  `json:"color"`
}

// PlaceObject appends a geometric object to the session's current plot.
// Coordinates are stored as sent; the client owns placement bounds. Missing
// fields fall back to a 2x2x2 cube in the placer's wallet color.
func (e *Engine) PlaceObject(sessionID string, req PlaceObjectRequest) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot == "" {
			return
		}
		plotID := u.CurrentPlot

		kind := model.ObjectKind(req.Type)
		if kind == "" {
			kind = model.KindCube
		}
		width, height, depth := req.Width, req.Height, req.Depth
		if width <= 0 {
			width = 2
		}
		if height <= 0 {
			height = 2
		}
		if depth <= 0 {
			depth = 2
		}
		color := req.Color
		if color == "" {
			color = u.Color
		}

		obj := model.NewGeometricObject(kind,
			req.X, req.Y, req.Z,
			width, height, depth, color, u.PublicKey, e.nowMillis())

		if err := e.store.AppendObject(plotID, obj); err != nil {
			log.Printf("place object on %s: %v", plotID, err)
			return
		}
		// The placer is in the room, so this reaches everyone including them.
		e.hub.BroadcastRoom(plotID, "", "objectPlaced", ObjectPlacedPayload{
			PlotID: plotID,
			Object: obj,
		})
	})
}

// RequestPlotSync re-sends the current plot's objects and occupants to one
// client, for recovery after a missed broadcast.
func (e *Engine) RequestPlotSync(sessionID string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot == "" {
			return
		}
		plot, ok := e.store.Plot(u.CurrentPlot)
		if !ok {
			return
		}
		e.hub.Send(sessionID, "plotSyncResponse", PlotSyncPayload{
			PlotID:  plot.ID,
			Objects: plot.Objects,
			Players: e.roomUsers(plot.ID),
		})
	})
}
