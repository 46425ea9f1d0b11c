package hub

import (
	"errors"
	"testing"
)

type testConn struct {
	sid    string
	events []string
	binary int
	fail   bool
	closed bool
}

func (c *testConn) SessionID() string { return c.sid }

func (c *testConn) Emit(event string, args ...any) error {
	if c.fail {
		return errors.New("write failed")
	}
	c.events = append(c.events, event)
	return nil
}

func (c *testConn) EmitBinary(event string, arg any, attachment []byte) error {
	if c.fail {
		return errors.New("write failed")
	}
	c.binary++
	return nil
}

func (c *testConn) Close() error {
	c.closed = true
	return nil
}

func TestHub_BroadcastAllExceptsSender(t *testing.T) {
	h := New()
	a := &testConn{sid: "a"}
	b := &testConn{sid: "b"}
	h.Register(a)
	h.Register(b)

	h.BroadcastAll("a", "userJoined")
	if len(a.events) != 0 {
		t.Fatalf("sender should not receive, got %v", a.events)
	}
	if len(b.events) != 1 || b.events[0] != "userJoined" {
		t.Fatalf("expected userJoined at b, got %v", b.events)
	}
}

func TestHub_RoomScoping(t *testing.T) {
	h := New()
	a := &testConn{sid: "a"}
	b := &testConn{sid: "b"}
	c := &testConn{sid: "c"}
	h.Register(a)
	h.Register(b)
	h.Register(c)
	h.Join("plot_1", "a")
	h.Join("plot_1", "b")

	h.BroadcastRoom("plot_1", "", "objectPlaced")
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("room members should receive: a=%v b=%v", a.events, b.events)
	}
	if len(c.events) != 0 {
		t.Fatalf("non-member received: %v", c.events)
	}

	h.Leave("plot_1", "b")
	h.BroadcastRoom("plot_1", "", "objectPlaced")
	if len(b.events) != 1 {
		t.Fatalf("left member should not receive, got %v", b.events)
	}
}

func TestHub_BinaryRoomBroadcastExcludesSender(t *testing.T) {
	h := New()
	a := &testConn{sid: "a"}
	b := &testConn{sid: "b"}
	h.Register(a)
	h.Register(b)
	h.Join("plot_1", "a")
	h.Join("plot_1", "b")

	h.BroadcastRoomBinary("plot_1", "a", "userPlotMovedBinary", nil, make([]byte, 16))
	if a.binary != 0 || b.binary != 1 {
		t.Fatalf("unexpected binary counts a=%d b=%d", a.binary, b.binary)
	}
}

func TestHub_DropsFailedConnections(t *testing.T) {
	h := New()
	a := &testConn{sid: "a", fail: true}
	h.Register(a)
	h.Join("plot_1", "a")

	h.BroadcastAll("", "x")
	if !a.closed {
		t.Fatalf("failed conn should be closed")
	}
	if h.Count() != 0 {
		t.Fatalf("failed conn should be unregistered")
	}

	h.BroadcastRoom("plot_1", "", "x")
	h.Send("a", "x")
}

func TestHub_UnregisterClearsRooms(t *testing.T) {
	h := New()
	a := &testConn{sid: "a"}
	h.Register(a)
	h.Join("plot_1", "a")
	h.Unregister("a")

	h.BroadcastRoom("plot_1", "", "x")
	if len(a.events) != 0 {
		t.Fatalf("unregistered conn received: %v", a.events)
	}
}
