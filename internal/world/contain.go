package world

import (
	"math"

	"phantom-world/internal/model"
)

// ValidPosition reports whether (x, y) is walkable: within NodeRadius of
// some node, or within CorridorWidth of a segment between connected nodes.
// The client runs the same check before sending a worldMove; the server only
// re-runs it when strict validation is enabled.
func ValidPosition(m model.WorldMap, p Params, x, y float64) bool {
	if len(m.Nodes) == 0 {
		return false
	}

	for _, n := range m.Nodes {
		if math.Hypot(x-n.X, y-n.Y) < p.NodeRadius {
			return true
		}
	}

	byID := make(map[string]model.WorldNode, len(m.Nodes))
	for _, n := range m.Nodes {
		byID[n.ID] = n
	}
	for _, n := range m.Nodes {
		for _, connID := range n.Connections {
			conn, ok := byID[connID]
			if !ok {
				continue
			}
			if distanceToSegment(x, y, n.X, n.Y, conn.X, conn.Y) < p.CorridorWidth {
				return true
			}
		}
	}
	return false
}

func distanceToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	length2 := dx*dx + dy*dy
	if length2 == 0 {
		return math.Hypot(px-x1, py-y1)
	}

	t := ((px-x1)*dx + (py-y1)*dy) / length2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
