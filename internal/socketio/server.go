package socketio

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"phantom-world/internal/game"
	"phantom-world/internal/hub"
)

const (
	maxPayload   int64         = 1000000
	writeTimeout time.Duration = 10 * time.Second

	// Outbound frames queue here between the engine and the socket. A client
	// that falls this far behind is dropped rather than allowed to stall the
	// broadcast path.
	sendBuffer = 64
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

type Deps struct {
	Engine *game.Engine
	Hub    *hub.Hub
}

// Server speaks the engine.io/socket.io websocket protocol and translates
// client events into engine commands. All game state lives in the engine;
// the server only owns transport concerns.
type Server struct {
	engine *game.Engine
	hub    *hub.Hub

	upgrader websocket.Upgrader
}

func NewServer(deps Deps) *Server {
	return &Server{
		engine: deps.Engine,
		hub:    deps.Hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ws.SetReadLimit(maxPayload)

	c := newConn(ws)
	defer s.dropConn(c)
	go c.writeLoop()

	open := map[string]any{
		"sid":          c.sid,
		"upgrades":     []string{},
		"pingInterval": 25000,
		"pingTimeout":  20000,
		"maxPayload":   maxPayload,
	}
	openBytes, _ := json.Marshal(open)
	_ = c.writeText(string(engineOpen) + string(openBytes))

	go c.pingLoop()
	c.readLoop(func(messageType int, data []byte) {
		if messageType == websocket.BinaryMessage {
			s.handleBinaryFrame(c, data)
			return
		}
		s.handleMessage(c, string(data))
	})
}

func (s *Server) dropConn(c *conn) {
	if c.connected.Load() {
		s.engine.Disconnect(c.sid)
		s.hub.Unregister(c.sid)
	}
	c.close()
}

func (s *Server) handleMessage(c *conn, msg string) {
	if msg == "" {
		return
	}

	switch enginePacketType(msg[0]) {
	case enginePong:
		c.markPong()
		return
	case engineMessage:
		s.handleSocketPayload(c, msg[1:])
		return
	case engineClose:
		c.close()
		return
	default:
		return
	}
}

func (s *Server) handleSocketPayload(c *conn, payload string) {
	if payload == "" {
		return
	}

	switch socketPacketType(payload[0]) {
	case socketConnect:
		s.handleConnect(c)
		return
	case socketEvent:
		pkt, err := parseSocketEventPacket(payload)
		if err != nil {
			return
		}
		s.handleEvent(c, pkt.Event, pkt.Args)
		return
	case socketBinaryEvent:
		pkt, err := parseSocketBinaryEventPacket(payload)
		if err != nil {
			return
		}
		c.beginBinaryEvent(pkt)
		return
	default:
		return
	}
}

// handleConnect acknowledges the namespace connect and registers the
// connection for unicast delivery. The user itself is not created until the
// wallet handshake event arrives.
func (s *Server) handleConnect(c *conn) {
	if c.connected.Swap(true) {
		return
	}
	s.hub.Register(c)

	connectPayload, err := buildSocketConnectPacket("/", c.sid)
	if err != nil {
		return
	}
	_ = c.writeText(string(engineMessage) + connectPayload)
}

// handleBinaryFrame attaches a raw frame to the pending binary event and
// dispatches once all attachments have arrived.
func (s *Server) handleBinaryFrame(c *conn, data []byte) {
	pkt, ok := c.appendAttachment(data)
	if !ok {
		return
	}
	s.handleBinaryEvent(c, pkt)
}

func (s *Server) handleBinaryEvent(c *conn, pkt pendingBinaryEvent) {
	switch pkt.event {
	case "plotMoveBinary":
		data, ok := binaryArg(pkt.args, pkt.attachments)
		if !ok {
			return
		}
		s.engine.PlotMove(c.sid, data)
	default:
		return
	}
}

// binaryArg resolves the event's first argument against the received
// attachments via its placeholder index.
func binaryArg(args []json.RawMessage, attachments [][]byte) ([]byte, bool) {
	if len(args) < 1 {
		return nil, false
	}
	num, ok := placeholderIndex(args[0])
	if !ok || num < 0 || num >= len(attachments) {
		return nil, false
	}
	return attachments[num], true
}

func (s *Server) handleEvent(c *conn, event string, args []json.RawMessage) {
	if !c.connected.Load() {
		return
	}

	switch event {
	case "connectWallet":
		key, ok := stringArg(args, "publicKey")
		if !ok {
			return
		}
		s.engine.Connect(c.sid, key)

	case "worldMove":
		var body struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}
		if !objectArg(args, &body) {
			return
		}
		s.engine.WorldMove(c.sid, body.X, body.Y)

	case "enterPlot":
		plotID, ok := stringArg(args, "plotId")
		if !ok {
			return
		}
		s.engine.EnterPlot(c.sid, plotID)

	case "exitPlot":
		s.engine.ExitPlot(c.sid)

	case "placeObject":
		var req game.PlaceObjectRequest
		if !objectArg(args, &req) {
			return
		}
		s.engine.PlaceObject(c.sid, req)

	case "addNFTToInventory":
		pubkey, ok := stringArg(args, "nftPubkey")
		if !ok {
			return
		}
		s.engine.AddNFT(c.sid, pubkey)

	case "placeNFTModel":
		var req game.PlaceNFTModelRequest
		if !objectArg(args, &req) {
			return
		}
		s.engine.PlaceNFTModel(c.sid, req)

	case "requestInventory":
		s.engine.RequestInventory(c.sid)

	case "requestPlotSync":
		s.engine.RequestPlotSync(c.sid)

	default:
		return
	}
}

// stringArg accepts either a bare JSON string or an object carrying the
// value under field; the original web client has sent both shapes.
func stringArg(args []json.RawMessage, field string) (string, bool) {
	if len(args) < 1 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(args[0], &s); err == nil {
		return s, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &obj); err != nil {
		return "", false
	}
	raw, ok := obj[field]
	if !ok {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func objectArg(args []json.RawMessage, dst any) bool {
	if len(args) < 1 {
		return false
	}
	return json.Unmarshal(args[0], dst) == nil
}

type pendingBinaryEvent struct {
	event       string
	expected    int
	args        []json.RawMessage
	attachments [][]byte
}

// outMsg is one unit of outbound work; a binary event carries its header and
// attachment in one message so the write loop cannot interleave another
// frame between them.
type outMsg struct {
	frames []outFrame
}

type outFrame struct {
	messageType int
	data        []byte
}

type conn struct {
	ws *websocket.Conn

	sid string

	connected atomic.Bool

	send chan outMsg
	done chan struct{}

	binaryMu sync.Mutex
	pending  *pendingBinaryEvent

	pingMu       sync.Mutex
	awaitingPong bool
	pingSentAt   time.Time
	nextPingAt   time.Time

	closed atomic.Bool
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:         ws,
		sid:        uuid.NewString(),
		send:       make(chan outMsg, sendBuffer),
		done:       make(chan struct{}),
		nextPingAt: time.Now().Add(25 * time.Second),
	}
}

func (c *conn) SessionID() string { return c.sid }

func (c *conn) Close() error {
	c.close()
	return nil
}

// Emit sends a plain socket.io event to this connection.
func (c *conn) Emit(event string, args ...any) error {
	packet, err := buildSocketEventPacket("/", nil, event, args...)
	if err != nil {
		return err
	}
	return c.writeText(string(engineMessage) + packet)
}

// EmitBinary sends a binary event: the header text frame announces one
// attachment delivered as the following binary frame, with the placeholder
// sitting in the arg's "data" field. Both frames ride one queue entry so a
// concurrent Emit cannot split the pair.
func (c *conn) EmitBinary(event string, arg any, attachment []byte) error {
	fields, _ := arg.(map[string]any)
	packet, err := buildSocketBinaryEventPacket("/", event, fields, "data")
	if err != nil {
		return err
	}
	return c.enqueue(
		outFrame{websocket.TextMessage, []byte(string(engineMessage) + packet)},
		outFrame{websocket.BinaryMessage, attachment},
	)
}

// beginBinaryEvent stages an inbound binary event until its attachments
// arrive. A new header while one is pending discards the unfinished event.
func (c *conn) beginBinaryEvent(pkt socketBinaryEventPacket) {
	c.binaryMu.Lock()
	c.pending = &pendingBinaryEvent{
		event:       pkt.Event,
		expected:    pkt.Attachments,
		args:        pkt.Args,
		attachments: make([][]byte, 0, pkt.Attachments),
	}
	c.binaryMu.Unlock()
}

func (c *conn) appendAttachment(data []byte) (pendingBinaryEvent, bool) {
	c.binaryMu.Lock()
	defer c.binaryMu.Unlock()

	if c.pending == nil {
		return pendingBinaryEvent{}, false
	}
	c.pending.attachments = append(c.pending.attachments, append([]byte(nil), data...))
	if len(c.pending.attachments) < c.pending.expected {
		return pendingBinaryEvent{}, false
	}
	done := *c.pending
	c.pending = nil
	return done, true
}

func (c *conn) close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.done)
	_ = c.ws.Close()
}

func (c *conn) writeText(msg string) error {
	return c.enqueue(outFrame{websocket.TextMessage, []byte(msg)})
}

// enqueue hands frames to the write loop without blocking. A client too slow
// to drain its buffer is dropped so a stalled socket cannot back-pressure
// the engine goroutine.
func (c *conn) enqueue(frames ...outFrame) error {
	select {
	case c.send <- outMsg{frames: frames}:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		c.close()
		return errSendBufferFull
	}
}

// writeLoop owns the socket's write side; every outbound frame leaves
// through here.
func (c *conn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			for _, fr := range msg.frames {
				if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					c.close()
					return
				}
				if err := c.ws.WriteMessage(fr.messageType, fr.data); err != nil {
					c.close()
					return
				}
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) readLoop(onMessage func(int, []byte)) {
	defer c.close()
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		onMessage(messageType, data)
	}
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if c.closed.Load() {
			return
		}
		now := time.Now()
		c.pingMu.Lock()
		awaiting := c.awaitingPong
		pingSentAt := c.pingSentAt
		nextPingAt := c.nextPingAt
		if awaiting && now.Sub(pingSentAt) > 20*time.Second {
			c.pingMu.Unlock()
			c.close()
			return
		}
		if !awaiting && !now.Before(nextPingAt) {
			c.awaitingPong = true
			c.pingSentAt = now
			c.nextPingAt = now.Add(25 * time.Second)
			c.pingMu.Unlock()
			_ = c.writeText(string(enginePing))
			continue
		}
		c.pingMu.Unlock()
	}
}

func (c *conn) markPong() {
	c.pingMu.Lock()
	c.awaitingPong = false
	c.pingMu.Unlock()
}
