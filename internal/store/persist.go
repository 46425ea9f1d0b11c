package store

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"phantom-world/internal/model"
)

// Mutations are flushed in batches: a dirty mark arms a short coalescing
// window so bursts (movement persistence fires on every step) collapse into
// one write per document.
const coalesceDelay = 500 * time.Millisecond

func (s *Store) loadAll() error {
	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return err
	}

	var world model.WorldMap
	ok, err := s.readDocument(DocWorld, &world)
	if err != nil {
		return err
	}
	if ok {
		s.world = world
		s.hasWorld = true
		log.Printf("store: loaded world map (%d nodes)", len(world.Nodes))
	}

	plots := make(map[string]model.Plot)
	if ok, err := s.readDocument(DocPlots, &plots); err != nil {
		return err
	} else if ok {
		for id, p := range plots {
			plot := p
			s.plots[id] = &plot
		}
		log.Printf("store: loaded %d plots", len(plots))
	}

	positions := make(map[string]model.SavedPosition)
	if ok, err := s.readDocument(DocUsers, &positions); err != nil {
		return err
	} else if ok {
		s.positions = positions
		log.Printf("store: position data available for %d users", len(positions))
	}

	nfts := make(map[string]model.NFTRecord)
	if ok, err := s.readDocument(DocNFTInventory, &nfts); err != nil {
		return err
	} else if ok {
		s.nftCache = nfts
		log.Printf("store: loaded %d NFT models", len(nfts))
	}

	inventories := make(map[string][]string)
	if ok, err := s.readDocument(DocUserInventories, &inventories); err != nil {
		return err
	} else if ok {
		for userKey, nftKeys := range inventories {
			set := make(map[string]struct{}, len(nftKeys))
			for _, k := range nftKeys {
				set[k] = struct{}{}
			}
			s.inventories[userKey] = set
		}
		log.Printf("store: loaded inventories for %d users", len(inventories))
	}

	return nil
}

func (s *Store) readDocument(doc Document, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, string(doc)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) snapshotDocument(doc Document) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch doc {
	case DocWorld:
		return s.world
	case DocPlots:
		plots := make(map[string]model.Plot, len(s.plots))
		for id, p := range s.plots {
			plots[id] = clonePlot(p)
		}
		return plots
	case DocUsers:
		positions := make(map[string]model.SavedPosition, len(s.positions))
		for k, v := range s.positions {
			positions[k] = v
		}
		return positions
	case DocNFTInventory:
		nfts := make(map[string]model.NFTRecord, len(s.nftCache))
		for k, v := range s.nftCache {
			nfts[k] = v
		}
		return nfts
	case DocUserInventories:
		inventories := make(map[string][]string, len(s.inventories))
		for userKey := range s.inventories {
			inventories[userKey] = s.inventorySnapshotLocked(userKey)
		}
		return inventories
	}
	return nil
}

func (s *Store) inventorySnapshotLocked(userKey string) []string {
	keys := make([]string, 0, len(s.inventories[userKey]))
	for k := range s.inventories[userKey] {
		keys = append(keys, k)
	}
	return keys
}

// writeDocument rewrites the whole document atomically: marshal, write to a
// temp file in the same directory, fsync, rename.
func (s *Store) writeDocument(doc Document) error {
	snapshot := s.snapshotDocument(doc)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := filepath.Join(s.dataDir, string(doc))
	tmp, err := os.CreateTemp(s.dataDir, string(doc)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// FlushDirty writes every document marked since the previous flush. Write
// failures are logged and the mark restored so the next cycle retries.
func (s *Store) FlushDirty() {
	for _, doc := range s.takeDirty() {
		if err := s.writeDocument(doc); err != nil {
			log.Printf("store: flush %s failed: %v", doc, err)
			s.dirtyMu.Lock()
			s.dirty[doc] = struct{}{}
			s.dirtyMu.Unlock()
		}
	}
}

// FlushAll rewrites all five documents regardless of dirty state.
func (s *Store) FlushAll() error {
	var g errgroup.Group
	for _, doc := range allDocuments {
		doc := doc
		g.Go(func() error { return s.writeDocument(doc) })
	}
	return g.Wait()
}

// Run services the write-behind queue until ctx is cancelled: a periodic
// full-interval flush plus coalesced flushes shortly after each mutation.
// A final flush runs on shutdown.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if err := s.FlushAll(); err != nil {
				log.Printf("store: shutdown flush failed: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
			s.FlushDirty()
		case <-s.kick:
			if pending == nil {
				pending = time.After(coalesceDelay)
			}
		case <-pending:
			pending = nil
			s.FlushDirty()
		}
	}
}
