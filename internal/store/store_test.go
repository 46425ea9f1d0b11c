package store

import (
	"encoding/json"
	"testing"

	"phantom-world/internal/model"
)

func testWorld() model.WorldMap {
	return model.WorldMap{
		Nodes: []model.WorldNode{
			{ID: "node_0", X: 100, Y: 100, Color: "hsl(10, 60%, 55%)", Connections: []string{"node_1"}},
			{ID: "node_1", X: 300, Y: 100, Color: "hsl(200, 60%, 55%)", Connections: []string{"node_0"}},
		},
		StartPosition: model.Point{X: 100, Y: 100},
	}
}

func TestStore_InitPlotsSeedsExit(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetWorld(testWorld())
	s.InitPlots()

	if s.PlotCount() != 2 {
		t.Fatalf("expected 2 plots, got %d", s.PlotCount())
	}
	p, ok := s.Plot("node_0")
	if !ok {
		t.Fatalf("expected plot node_0")
	}
	if len(p.Objects) != 1 || p.Objects[0].Kind != model.KindExit {
		t.Fatalf("expected seeded exit object, got %+v", p.Objects)
	}
	if p.Objects[0].X != 45 || p.Objects[0].Z != 45 {
		t.Fatalf("exit object misplaced: %+v", p.Objects[0])
	}
}

func TestStore_AppendObjectIsolatedFromCopies(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetWorld(testWorld())
	s.InitPlots()

	before, _ := s.Plot("node_0")
	obj := model.NewGeometricObject(model.KindCube, 10, 1, 10, 2, 2, 2, "#00ff00", "wallet", 42)
	if err := s.AppendObject("node_0", obj); err != nil {
		t.Fatalf("AppendObject: %v", err)
	}

	if len(before.Objects) != 1 {
		t.Fatalf("copy mutated: %d objects", len(before.Objects))
	}
	after, _ := s.Plot("node_0")
	if len(after.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(after.Objects))
	}
	if err := s.AppendObject("nope", obj); err != ErrUnknownPlot {
		t.Fatalf("expected ErrUnknownPlot, got %v", err)
	}
}

func TestStore_PositionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetWorld(testWorld())
	s.SetPosition("wallet-a", model.SavedPosition{WorldX: 123, WorldY: 456, PlotX: 50, PlotY: 1.7, PlotZ: 50})
	if err := s.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(reload): %v", err)
	}
	pos, ok := reloaded.SavedPosition("wallet-a")
	if !ok {
		t.Fatalf("expected saved position")
	}
	if pos.WorldX != 123 || pos.WorldY != 456 || pos.PlotY != 1.7 {
		t.Fatalf("unexpected position %+v", pos)
	}
	if reloaded.World().Nodes[0].ID != "node_0" {
		t.Fatalf("world not reloaded")
	}
}

func TestStore_NFTRecordFirstWriteWins(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	first := model.NFTRecord{Pubkey: "nft-1", Name: "first", LoadedAt: 1}
	second := model.NFTRecord{Pubkey: "nft-1", Name: "second", LoadedAt: 2}

	got, stored := s.PutNFTRecord(first)
	if !stored || got.Name != "first" {
		t.Fatalf("expected first write to stick, got %+v stored=%v", got, stored)
	}
	got, stored = s.PutNFTRecord(second)
	if stored || got.Name != "first" {
		t.Fatalf("expected first-write-wins, got %+v stored=%v", got, stored)
	}
}

func TestStore_InventoryIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !s.AddToInventory("wallet-a", "nft-1") {
		t.Fatalf("expected first add to report true")
	}
	if s.AddToInventory("wallet-a", "nft-1") {
		t.Fatalf("expected duplicate add to report false")
	}
	inv := s.Inventory("wallet-a")
	if len(inv) != 1 || inv[0] != "nft-1" {
		t.Fatalf("unexpected inventory %v", inv)
	}
	if !s.InInventory("wallet-a", "nft-1") {
		t.Fatalf("expected membership")
	}
	if s.InInventory("wallet-b", "nft-1") {
		t.Fatalf("unexpected membership for other wallet")
	}
}

func TestStore_FlushDirtyOnlyWritesMarked(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AddToInventory("wallet-a", "nft-1")
	s.takeDirty() // reset marks
	s.SetPosition("wallet-a", model.SavedPosition{WorldX: 1})

	docs := s.takeDirty()
	if len(docs) != 1 || docs[0] != DocUsers {
		t.Fatalf("expected only users dirty, got %v", docs)
	}
}

func TestStore_ArchiveRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetWorld(testWorld())
	s.InitPlots()
	s.AddToInventory("wallet-a", "nft-1")
	s.PutNFTRecord(model.NFTRecord{
		Pubkey:    "nft-1",
		Name:      "model",
		ModelData: model.ModelData{Vertices: []model.Vertex{{Pos: [3]float64{0, 0, 0}, Size: 1, Color: json.RawMessage(`[1,0,0]`)}}, Edges: []string{"0-0"}},
	})

	path, err := s.WriteArchive(t.TempDir())
	if err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	bundle, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}

	world := bundle[DocWorld].(model.WorldMap)
	if len(world.Nodes) != 2 {
		t.Fatalf("expected 2 nodes in archive, got %d", len(world.Nodes))
	}
	plots := bundle[DocPlots].(map[string]model.Plot)
	if len(plots) != 2 {
		t.Fatalf("expected 2 plots in archive, got %d", len(plots))
	}
	inv := bundle[DocUserInventories].(map[string][]string)
	if len(inv["wallet-a"]) != 1 {
		t.Fatalf("expected inventory in archive, got %v", inv)
	}
}
