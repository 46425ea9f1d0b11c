package socketio

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// newTestWS dials a real websocket against a server that never reads back,
// giving tests a conn whose peer just sits there.
func newTestWS(t *testing.T) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestEmitNeverBlocksAndDropsSlowConn(t *testing.T) {
	c := newConn(newTestWS(t))
	// No write loop: nothing drains the queue, standing in for a client
	// whose socket has stalled.

	for i := 0; i < sendBuffer; i++ {
		if err := c.Emit("tick", i); err != nil {
			t.Fatalf("Emit %d: %v", i, err)
		}
	}

	err := c.Emit("tick", sendBuffer)
	if !errors.Is(err, errSendBufferFull) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if !c.closed.Load() {
		t.Fatalf("overflowing conn must be closed")
	}
	if err := c.Emit("tick", 0); !errors.Is(err, errConnClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestEmitBinaryQueuesPairedFrames(t *testing.T) {
	c := newConn(newTestWS(t))

	if err := c.EmitBinary("userPlotMovedBinary", map[string]any{"sessionId": "s1"}, []byte{1, 2, 3}); err != nil {
		t.Fatalf("EmitBinary: %v", err)
	}

	msg := <-c.send
	if len(msg.frames) != 2 {
		t.Fatalf("expected header+attachment in one entry, got %d frames", len(msg.frames))
	}
	if msg.frames[0].messageType != websocket.TextMessage || msg.frames[1].messageType != websocket.BinaryMessage {
		t.Fatalf("unexpected frame types %d/%d", msg.frames[0].messageType, msg.frames[1].messageType)
	}
	if !strings.HasPrefix(string(msg.frames[0].data), "451-") {
		t.Fatalf("unexpected header %q", msg.frames[0].data)
	}
}
