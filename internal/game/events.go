package game

import "phantom-world/internal/model"

// Payloads emitted back to clients. Field names mirror the wire contract
// the web client expects, so the json tags here are load-bearing.

type InitPayload struct {
	User     *model.User   `json:"user"`
	WorldMap []model.Plot  `json:"worldMap"`
	Users    []*model.User `json:"users"`
}

type WorldMovedPayload struct {
	SessionID string  `json:"sessionId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type EnteredPlotPayload struct {
	PlotID   string        `json:"plotId"`
	PlotData model.Plot    `json:"plotData"`
	Players  []*model.User `json:"players"`
}

type UserEnteredPlotPayload struct {
	SessionID string `json:"sessionId"`
	PlotID    string `json:"plotId"`
}

type UserExitedPlotPayload struct {
	SessionID string `json:"sessionId"`
}

type ObjectPlacedPayload struct {
	PlotID string             `json:"plotId"`
	Object model.PlacedObject `json:"object"`
}

type PlotSyncPayload struct {
	PlotID  string               `json:"plotId"`
	Objects []model.PlacedObject `json:"objects"`
	Players []*model.User        `json:"players"`
}

type NFTStatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type NFTAddedPayload struct {
	Pubkey          string          `json:"pubkey"`
	Name            string          `json:"name"`
	ModelData       model.ModelData `json:"modelData"`
	Description     string          `json:"description,omitempty"`
	ModelDataSource string          `json:"modelDataSource"`
	HasError        bool            `json:"hasError"`
}

type NFTPlaceErrorPayload struct {
	Message string `json:"message"`
}

type InventoryItem struct {
	Pubkey    string          `json:"pubkey"`
	Name      string          `json:"name"`
	ModelData model.ModelData `json:"modelData"`
}

type InventoryPayload struct {
	Inventory []InventoryItem `json:"inventory"`
}
