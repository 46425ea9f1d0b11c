package world

import (
	"fmt"
	"math"
	"math/rand"

	"phantom-world/internal/model"
)

// Params control world-map generation and the walkability predicate.
type Params struct {
	NumNodes    int
	MapWidth    float64
	MapHeight   float64
	MinDistance float64

	// Walkability: a point is valid within NodeRadius of a node or within
	// CorridorWidth of a connection segment.
	NodeRadius    float64
	CorridorWidth float64
}

func DefaultParams() Params {
	return Params{
		NumNodes:      12,
		MapWidth:      1200,
		MapHeight:     900,
		MinDistance:   150,
		NodeRadius:    25,
		CorridorWidth: 40,
	}
}

// Generate builds a random node graph: nodes scattered with a minimum
// spacing, each wired to its 2-3 nearest neighbors with symmetric
// connections. The start position is the highest-degree node.
func Generate(rng *rand.Rand, p Params) model.WorldMap {
	nodes := make([]model.WorldNode, 0, p.NumNodes)

	for i := 0; i < p.NumNodes; i++ {
		var x, y float64
		valid := false
		for attempts := 0; attempts < 200 && !valid; attempts++ {
			x = rng.Float64()*(p.MapWidth-300) + 150
			y = rng.Float64()*(p.MapHeight-300) + 150

			valid = true
			for _, n := range nodes {
				if math.Hypot(x-n.X, y-n.Y) < p.MinDistance {
					valid = false
					break
				}
			}
		}
		if !valid {
			continue
		}
		nodes = append(nodes, model.WorldNode{
			ID:          fmt.Sprintf("node_%d", i),
			X:           x,
			Y:           y,
			Color:       fmt.Sprintf("hsl(%d, 60%%, 55%%)", rng.Intn(360)),
			Connections: []string{},
		})
	}

	for i := range nodes {
		type candidate struct {
			idx  int
			dist float64
		}
		candidates := make([]candidate, 0, len(nodes)-1)
		for j := range nodes {
			if i == j {
				continue
			}
			candidates = append(candidates, candidate{j, math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y)})
		}
		for a := 1; a < len(candidates); a++ {
			for b := a; b > 0 && candidates[b].dist < candidates[b-1].dist; b-- {
				candidates[b], candidates[b-1] = candidates[b-1], candidates[b]
			}
		}

		numConnections := 2 + rng.Intn(2)
		if numConnections > len(candidates) {
			numConnections = len(candidates)
		}
		for k := 0; k < numConnections; k++ {
			target := &nodes[candidates[k].idx]
			if !contains(nodes[i].Connections, target.ID) {
				nodes[i].Connections = append(nodes[i].Connections, target.ID)
				if !contains(target.Connections, nodes[i].ID) {
					target.Connections = append(target.Connections, nodes[i].ID)
				}
			}
		}
	}

	start := 0
	for i := range nodes {
		if len(nodes[i].Connections) > len(nodes[start].Connections) {
			start = i
		}
	}

	return model.WorldMap{
		Nodes:         nodes,
		StartPosition: model.Point{X: nodes[start].X, Y: nodes[start].Y},
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
