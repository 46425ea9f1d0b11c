package store

import (
	"errors"
	"sort"
	"sync"

	"phantom-world/internal/model"
)

// Document names one of the five persisted JSON stores.
type Document string

const (
	DocWorld           Document = "world.json"
	DocPlots           Document = "plots.json"
	DocUsers           Document = "users.json"
	DocNFTInventory    Document = "nft_inventory.json"
	DocUserInventories Document = "user_inventories.json"
)

var allDocuments = []Document{DocWorld, DocPlots, DocUsers, DocNFTInventory, DocUserInventories}

var ErrUnknownPlot = errors.New("unknown plot")

// Store owns the persisted world state: topology, per-plot object lists,
// last-known positions, the shared NFT model cache and per-wallet
// inventories. In-memory state is authoritative; files are a write-behind
// snapshot flushed by Run.
type Store struct {
	mu sync.RWMutex

	dataDir string

	world       model.WorldMap
	hasWorld    bool
	plots       map[string]*model.Plot
	positions   map[string]model.SavedPosition
	nftCache    map[string]model.NFTRecord
	inventories map[string]map[string]struct{}

	persistMu sync.Mutex

	dirtyMu sync.Mutex
	dirty   map[Document]struct{}
	kick    chan struct{}
}

// Open loads all five documents from dataDir; missing files are not an
// error.
func Open(dataDir string) (*Store, error) {
	s := &Store{
		dataDir:     dataDir,
		plots:       make(map[string]*model.Plot),
		positions:   make(map[string]model.SavedPosition),
		nftCache:    make(map[string]model.NFTRecord),
		inventories: make(map[string]map[string]struct{}),
		dirty:       make(map[Document]struct{}),
		kick:        make(chan struct{}, 1),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) markDirty(doc Document) {
	s.dirtyMu.Lock()
	s.dirty[doc] = struct{}{}
	s.dirtyMu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Store) takeDirty() []Document {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()

	docs := make([]Document, 0, len(s.dirty))
	for doc := range s.dirty {
		docs = append(docs, doc)
	}
	s.dirty = make(map[Document]struct{})
	return docs
}

func (s *Store) HasWorld() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasWorld
}

func (s *Store) World() model.WorldMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

func (s *Store) SetWorld(m model.WorldMap) {
	s.mu.Lock()
	s.world = m
	s.hasWorld = true
	s.mu.Unlock()
	s.markDirty(DocWorld)
}

// InitPlots creates one plot per world node, seeded with the exit marker.
// Plots already loaded from disk are kept as-is.
func (s *Store) InitPlots() {
	s.mu.Lock()
	created := false
	for _, n := range s.world.Nodes {
		if _, ok := s.plots[n.ID]; ok {
			continue
		}
		s.plots[n.ID] = &model.Plot{
			ID:          n.ID,
			X:           n.X,
			Y:           n.Y,
			Color:       n.Color,
			Connections: append([]string(nil), n.Connections...),
			Objects:     []model.PlacedObject{model.NewExitObject(45, 0, 45)},
		}
		created = true
	}
	s.mu.Unlock()
	if created {
		s.markDirty(DocPlots)
	}
}

func (s *Store) PlotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plots)
}

func (s *Store) HasPlot(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.plots[id]
	return ok
}

// Plot returns a copy of the plot; the object slice is cloned so callers can
// hold it across engine commands.
func (s *Store) Plot(id string) (model.Plot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plots[id]
	if !ok {
		return model.Plot{}, false
	}
	return clonePlot(p), true
}

func clonePlot(p *model.Plot) model.Plot {
	out := *p
	out.Objects = append([]model.PlacedObject(nil), p.Objects...)
	out.Connections = append([]string(nil), p.Connections...)
	return out
}

// AppendObject appends to the plot's object list. Objects are append-only;
// there is no removal path.
func (s *Store) AppendObject(plotID string, obj model.PlacedObject) error {
	s.mu.Lock()
	p, ok := s.plots[plotID]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownPlot
	}
	p.Objects = append(p.Objects, obj)
	s.mu.Unlock()

	s.markDirty(DocPlots)
	return nil
}

func (s *Store) SavedPosition(publicKey string) (model.SavedPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[publicKey]
	return pos, ok
}

func (s *Store) SetPosition(publicKey string, pos model.SavedPosition) {
	if publicKey == "" {
		return
	}
	s.mu.Lock()
	s.positions[publicKey] = pos
	s.mu.Unlock()
	s.markDirty(DocUsers)
}

func (s *Store) NFTRecord(pubkey string) (model.NFTRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.nftCache[pubkey]
	return rec, ok
}

// PutNFTRecord caches a record with first-write-wins semantics: when two
// concurrent loads race, the earlier commit sticks and the later one is
// returned instead of the argument.
func (s *Store) PutNFTRecord(rec model.NFTRecord) (model.NFTRecord, bool) {
	s.mu.Lock()
	if existing, ok := s.nftCache[rec.Pubkey]; ok {
		s.mu.Unlock()
		return existing, false
	}
	s.nftCache[rec.Pubkey] = rec
	s.mu.Unlock()

	s.markDirty(DocNFTInventory)
	return rec, true
}

func (s *Store) NFTCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nftCache)
}

// AddToInventory records that the wallet owns the NFT. Growth is monotonic;
// the second add of the same key reports false.
func (s *Store) AddToInventory(userKey, nftPubkey string) bool {
	s.mu.Lock()
	inv, ok := s.inventories[userKey]
	if !ok {
		inv = make(map[string]struct{})
		s.inventories[userKey] = inv
	}
	if _, exists := inv[nftPubkey]; exists {
		s.mu.Unlock()
		return false
	}
	inv[nftPubkey] = struct{}{}
	s.mu.Unlock()

	s.markDirty(DocUserInventories)
	return true
}

func (s *Store) InInventory(userKey, nftPubkey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inventories[userKey][nftPubkey]
	return ok
}

func (s *Store) Inventory(userKey string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.inventories[userKey]))
	for k := range s.inventories[userKey] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
