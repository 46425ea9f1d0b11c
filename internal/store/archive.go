package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"phantom-world/internal/model"
)

type archiveBundle struct {
	Version         int                            `json:"version"`
	SavedAt         int64                          `json:"savedAt"`
	World           model.WorldMap                 `json:"world"`
	Plots           map[string]model.Plot          `json:"plots"`
	Users           map[string]model.SavedPosition `json:"users"`
	NFTInventory    map[string]model.NFTRecord     `json:"nftInventory"`
	UserInventories map[string][]string            `json:"userInventories"`
}

// WriteArchive bundles all five stores into one zstd-compressed JSON file,
// used as a shutdown backup. Returns the written path.
func (s *Store) WriteArchive(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	bundle := archiveBundle{
		Version:         1,
		SavedAt:         time.Now().UnixMilli(),
		World:           s.snapshotDocument(DocWorld).(model.WorldMap),
		Plots:           s.snapshotDocument(DocPlots).(map[string]model.Plot),
		Users:           s.snapshotDocument(DocUsers).(map[string]model.SavedPosition),
		NFTInventory:    s.snapshotDocument(DocNFTInventory).(map[string]model.NFTRecord),
		UserInventories: s.snapshotDocument(DocUserInventories).(map[string][]string),
	}

	path := filepath.Join(dir, fmt.Sprintf("phantom-world-%d.json.zst", bundle.SavedAt))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return "", err
	}
	enc := json.NewEncoder(zw)
	if err := enc.Encode(bundle); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// ReadArchive loads a bundle written by WriteArchive.
func ReadArchive(path string) (map[Document]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var bundle archiveBundle
	if err := json.NewDecoder(zr).Decode(&bundle); err != nil {
		return nil, err
	}
	return map[Document]any{
		DocWorld:           bundle.World,
		DocPlots:           bundle.Plots,
		DocUsers:           bundle.Users,
		DocNFTInventory:    bundle.NFTInventory,
		DocUserInventories: bundle.UserInventories,
	}, nil
}
