package game

import (
	"context"
	"time"

	"phantom-world/internal/hub"
	"phantom-world/internal/model"
	"phantom-world/internal/store"
	"phantom-world/internal/world"
)

// Spawn coordinates for a user entering a plot.
const (
	plotSpawnX = 50
	plotSpawnY = 1.7
	plotSpawnZ = 50
)

// defaultBroadcastInterval caps plot movement broadcasts at roughly 60/s
// per session.
const defaultBroadcastInterval = 17 * time.Millisecond

// NFTLoader fetches and normalizes NFT metadata. Load never fails; on any
// error it returns a fallback record carrying the default model.
type NFTLoader interface {
	Load(ctx context.Context, pubkey string) model.NFTRecord
}

type Options struct {
	Store  *store.Store
	Hub    *hub.Hub
	Loader NFTLoader

	WorldParams      world.Params
	StrictWorldMoves bool

	// BroadcastInterval overrides the plot movement throttle; zero means
	// the default.
	BroadcastInterval time.Duration
}

// Engine is the authoritative game state machine. All session and occupancy
// state is owned by the single goroutine spun up by Run; every external
// entry point posts a command onto cmds rather than touching state
// directly, so handlers never need locks.
type Engine struct {
	store  *store.Store
	hub    *hub.Hub
	loader NFTLoader

	params world.Params
	strict bool

	throttle time.Duration
	now      func() time.Time

	cmds chan func()
	done chan struct{}

	// Owned by the run loop.
	users     map[string]*model.User
	occupants map[string]map[string]struct{}
}

func New(opts Options) *Engine {
	throttle := opts.BroadcastInterval
	if throttle <= 0 {
		throttle = defaultBroadcastInterval
	}
	return &Engine{
		store:     opts.Store,
		hub:       opts.Hub,
		loader:    opts.Loader,
		params:    opts.WorldParams,
		strict:    opts.StrictWorldMoves,
		throttle:  throttle,
		now:       time.Now,
		cmds:      make(chan func(), 256),
		done:      make(chan struct{}),
		users:     make(map[string]*model.User),
		occupants: make(map[string]map[string]struct{}),
	}
}

// Run executes commands until ctx is cancelled. It must be called exactly
// once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			cmd()
		}
	}
}

// post schedules fn on the run loop. Commands posted after shutdown are
// dropped.
func (e *Engine) post(fn func()) {
	select {
	case e.cmds <- fn:
	case <-e.done:
	}
}

// call runs fn on the loop and waits for it to finish.
func (e *Engine) call(fn func()) {
	ran := make(chan struct{})
	e.post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-e.done:
	}
}

// OnlineUsers reports the number of connected sessions.
func (e *Engine) OnlineUsers() int {
	var n int
	e.call(func() { n = len(e.users) })
	return n
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

// roomUsers lists the sessions currently inside the plot.
func (e *Engine) roomUsers(plotID string) []*model.User {
	ids := e.occupants[plotID]
	out := make([]*model.User, 0, len(ids))
	for id := range ids {
		if u, ok := e.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (e *Engine) joinRoom(plotID, sessionID string) {
	room, ok := e.occupants[plotID]
	if !ok {
		room = make(map[string]struct{})
		e.occupants[plotID] = room
	}
	room[sessionID] = struct{}{}
	e.hub.Join(plotID, sessionID)
}

func (e *Engine) leaveRoom(plotID, sessionID string) {
	if room, ok := e.occupants[plotID]; ok {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(e.occupants, plotID)
		}
	}
	e.hub.Leave(plotID, sessionID)
}

// persistPosition snapshots the user's position into the write-behind
// store. Called on every state change worth surviving a restart.
func (e *Engine) persistPosition(u *model.User) {
	e.store.SetPosition(u.PublicKey, model.SavedPosition{
		WorldX:      u.WorldX,
		WorldY:      u.WorldY,
		PlotX:       u.PlotX,
		PlotY:       u.PlotY,
		PlotZ:       u.PlotZ,
		PlotRotY:    u.PlotRotY,
		CurrentPlot: u.CurrentPlot,
	})
}
