package nft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Asset is the resolved on-chain record for an NFT: enough to locate its
// metadata document.
type Asset struct {
	Name string
	URI  string
}

// AssetResolver maps an NFT public key to its metadata URI. Implementations
// are fallible, latency-bearing network dependencies.
type AssetResolver interface {
	ResolveAsset(ctx context.Context, pubkey string) (Asset, error)
}

// RPCResolver resolves assets through a DAS-compatible JSON-RPC endpoint
// (getAsset).
type RPCResolver struct {
	Endpoint string
	Client   *http.Client
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type getAssetResponse struct {
	Result *struct {
		Content struct {
			JSONURI  string `json:"json_uri"`
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *RPCResolver) ResolveAsset(ctx context.Context, pubkey string) (Asset, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAsset",
		Params:  map[string]string{"id": pubkey},
	})
	if err != nil {
		return Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var parsed getAssetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Asset{}, err
	}
	if parsed.Error != nil {
		return Asset{}, fmt.Errorf("rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Result == nil {
		return Asset{}, errors.New("asset not found")
	}
	return Asset{
		Name: parsed.Result.Content.Metadata.Name,
		URI:  parsed.Result.Content.JSONURI,
	}, nil
}
