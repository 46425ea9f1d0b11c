package model

import "encoding/json"

// User is the live state of one connected wallet. It is keyed by the
// ephemeral socket session id; the public key is the stable identity that
// survives reconnects.
type User struct {
	SessionID string `json:"sessionId"`
	PublicKey string `json:"publicKey"`
	Color     string `json:"color"`

	WorldX float64 `json:"worldX"`
	WorldY float64 `json:"worldY"`

	CurrentPlot string `json:"currentPlot,omitempty"`

	PlotX    float64 `json:"plotX"`
	PlotY    float64 `json:"plotY"`
	PlotZ    float64 `json:"plotZ"`
	PlotRotY float64 `json:"plotRotY"`

	LastMoveTime      int64 `json:"lastMoveTime"`
	LastBroadcastTime int64 `json:"lastBroadcastTime"`
}

// SavedPosition is the persisted last-known position of a wallet, keyed by
// public key in the users document.
type SavedPosition struct {
	WorldX      float64 `json:"worldX"`
	WorldY      float64 `json:"worldY"`
	PlotX       float64 `json:"plotX"`
	PlotY       float64 `json:"plotY"`
	PlotZ       float64 `json:"plotZ"`
	PlotRotY    float64 `json:"plotRotY"`
	CurrentPlot string  `json:"currentPlot,omitempty"`
}

type WorldNode struct {
	ID          string   `json:"id"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Color       string   `json:"color"`
	Connections []string `json:"connections"`
}

type WorldMap struct {
	Nodes         []WorldNode `json:"nodes"`
	StartPosition Point       `json:"startPosition"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Plot is the persisted per-node scene: the node's own fields plus the
// append-only object list. Occupancy is runtime state and lives in the
// engine, never here.
type Plot struct {
	ID          string         `json:"id"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Color       string         `json:"color"`
	Connections []string       `json:"connections"`
	Objects     []PlacedObject `json:"objects"`
}

type ObjectKind string

const (
	KindExit     ObjectKind = "exit"
	KindCube     ObjectKind = "cube"
	KindNFTModel ObjectKind = "nft_model"
)

// PlacedObject is a tagged variant: the Kind determines which of the
// optional fields are set. Exit and cube carry geometry, nft_model carries
// an embedded snapshot of the source model.
type PlacedObject struct {
	Kind ObjectKind `json:"type"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
	Color  string  `json:"color,omitempty"`

	NFTPubkey string     `json:"nftPubkey,omitempty"`
	ModelData *ModelData `json:"modelData,omitempty"`
	Name      string     `json:"name,omitempty"`
	RotY      float64    `json:"rotY,omitempty"`
	Scale     float64    `json:"scale,omitempty"`

	Owner     string `json:"owner,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func NewExitObject(x, y, z float64) PlacedObject {
	return PlacedObject{
		Kind: KindExit,
		X:    x, Y: y, Z: z,
		Width: 3, Height: 3, Depth: 3,
		Color: "#ff0000",
	}
}

func NewGeometricObject(kind ObjectKind, x, y, z, width, height, depth float64, color, owner string, timestamp int64) PlacedObject {
	return PlacedObject{
		Kind: kind,
		X:    x, Y: y, Z: z,
		Width: width, Height: height, Depth: depth,
		Color:     color,
		Owner:     owner,
		Timestamp: timestamp,
	}
}

func NewNFTModelObject(pubkey, name string, data ModelData, x, y, z, rotY float64, owner string, timestamp int64) PlacedObject {
	snapshot := data.Clone()
	return PlacedObject{
		Kind:      KindNFTModel,
		NFTPubkey: pubkey,
		ModelData: &snapshot,
		Name:      name,
		X:         x, Y: y, Z: z,
		RotY:      rotY,
		Scale:     1,
		Owner:     owner,
		Timestamp: timestamp,
	}
}

// ModelData is a wireframe model: vertices plus "i-j" edge pairs indexing
// into them.
type ModelData struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []string `json:"edges"`
}

// Vertex color is either an RGB triple or a color string; it is kept raw so
// placed copies round-trip byte-identical to the source metadata.
type Vertex struct {
	Pos   [3]float64      `json:"pos"`
	Size  float64         `json:"size"`
	Color json.RawMessage `json:"color"`
}

// Clone deep-copies the model so embedded snapshots are decoupled from the
// shared cache entry.
func (m ModelData) Clone() ModelData {
	out := ModelData{
		Vertices: make([]Vertex, len(m.Vertices)),
		Edges:    make([]string, len(m.Edges)),
	}
	copy(out.Edges, m.Edges)
	for i, v := range m.Vertices {
		cv := v
		cv.Color = append(json.RawMessage(nil), v.Color...)
		out.Vertices[i] = cv
	}
	return out
}

// NFTRecord is the shared server-side cache entry for one NFT, written once
// on first load and never refreshed.
type NFTRecord struct {
	Pubkey          string    `json:"pubkey"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ModelData       ModelData `json:"modelData"`
	ModelDataSource string    `json:"modelDataSource"`
	OriginalURI     string    `json:"originalUri,omitempty"`
	Error           string    `json:"error,omitempty"`
	LoadedAt        int64     `json:"loadedAt"`
}
