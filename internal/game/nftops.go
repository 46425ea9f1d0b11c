package game

import (
	"context"
	"log"

	"phantom-world/internal/model"
	"phantom-world/internal/nft"
)

// AddNFT resolves an NFT and adds it to the session wallet's inventory.
// Metadata fetches run off the loop; only the commit of the result comes
// back as a command, so a slow RPC node never stalls movement.
func (e *Engine) AddNFT(sessionID, pubkey string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok {
			return
		}
		if !nft.ValidPubkey(pubkey) {
			e.hub.Send(sessionID, "nftLoadStatus", NFTStatusPayload{
				Status:  "error",
				Message: "Invalid NFT public key format",
			})
			return
		}

		ownerKey := u.PublicKey
		if rec, ok := e.store.NFTRecord(pubkey); ok {
			e.addToInventory(sessionID, ownerKey, rec)
			return
		}

		e.hub.Send(sessionID, "nftLoadStatus", NFTStatusPayload{
			Status:  "loading",
			Message: "Loading NFT " + shortKey(pubkey) + "...",
		})

		go func() {
			rec := e.loader.Load(context.Background(), pubkey)
			e.post(func() {
				// First committed load wins; a racing duplicate request
				// adopts whatever is already cached.
				rec, stored := e.store.PutNFTRecord(rec)
				if stored {
					if rec.Error != "" {
						e.hub.Send(sessionID, "nftLoadStatus", NFTStatusPayload{
							Status:  "warning",
							Message: "Loaded with default model: " + rec.Error,
						})
					} else {
						e.hub.Send(sessionID, "nftLoadStatus", NFTStatusPayload{
							Status:  "success",
							Message: "Loaded: " + rec.Name,
						})
					}
				}
				e.addToInventory(sessionID, ownerKey, rec)
			})
		}()
	})
}

// addToInventory runs on the loop. The session may already be gone; the
// wallet keeps the NFT either way and the emits fall on deaf ears.
func (e *Engine) addToInventory(sessionID, ownerKey string, rec model.NFTRecord) {
	if !e.store.AddToInventory(ownerKey, rec.Pubkey) {
		e.hub.Send(sessionID, "nftLoadStatus", NFTStatusPayload{
			Status:  "info",
			Message: "NFT already in your inventory",
		})
		return
	}
	e.hub.Send(sessionID, "nftAddedToInventory", NFTAddedPayload{
		Pubkey:          rec.Pubkey,
		Name:            rec.Name,
		ModelData:       rec.ModelData,
		Description:     rec.Description,
		ModelDataSource: rec.ModelDataSource,
		HasError:        rec.Error != "",
	})
	log.Printf("nft %s added to inventory of %s", shortKey(rec.Pubkey), shortKey(ownerKey))
}

type PlaceNFTModelRequest struct {
	NFTPubkey string  `json:"nftPubkey"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	RotY      float64 `json:"rotY"`
}

// PlaceNFTModel places an owned NFT's wireframe in the current plot. The
// placed object embeds a snapshot of the model, so later cache changes
// never rewrite history.
func (e *Engine) PlaceNFTModel(sessionID string, req PlaceNFTModelRequest) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok || u.CurrentPlot == "" {
			return
		}
		if !e.store.InInventory(u.PublicKey, req.NFTPubkey) {
			e.hub.Send(sessionID, "nftPlaceError", NFTPlaceErrorPayload{
				Message: "NFT not in your inventory",
			})
			return
		}
		rec, ok := e.store.NFTRecord(req.NFTPubkey)
		if !ok {
			e.hub.Send(sessionID, "nftPlaceError", NFTPlaceErrorPayload{
				Message: "NFT data not found",
			})
			return
		}

		plotID := u.CurrentPlot
		obj := model.NewNFTModelObject(rec.Pubkey, rec.Name, rec.ModelData,
			req.X, req.Y, req.Z,
			req.RotY, u.PublicKey, e.nowMillis())

		if err := e.store.AppendObject(plotID, obj); err != nil {
			log.Printf("place nft model on %s: %v", plotID, err)
			return
		}
		e.hub.BroadcastRoom(plotID, "", "nftModelPlaced", ObjectPlacedPayload{
			PlotID: plotID,
			Object: obj,
		})
	})
}

// RequestInventory sends the wallet's inventory back to the requester.
// Keys without a cache entry are skipped rather than surfaced as errors.
func (e *Engine) RequestInventory(sessionID string) {
	e.post(func() {
		u, ok := e.users[sessionID]
		if !ok {
			return
		}

		keys := e.store.Inventory(u.PublicKey)
		items := make([]InventoryItem, 0, len(keys))
		for _, key := range keys {
			rec, ok := e.store.NFTRecord(key)
			if !ok {
				continue
			}
			items = append(items, InventoryItem{
				Pubkey:    rec.Pubkey,
				Name:      rec.Name,
				ModelData: rec.ModelData,
			})
		}
		e.hub.Send(sessionID, "inventoryData", InventoryPayload{Inventory: items})
	})
}
