package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"phantom-world/internal/model"
)

// Model data source tags recorded in cached records.
const (
	SourceProperties      = "properties.modelData"
	SourceAttributes      = "attributes.modelData"
	SourceExtensions      = "extensions.model"
	SourceDefault         = "default_generated"
	SourceDefaultFallback = "default_fallback"
	SourceErrorFallback   = "error_fallback"
)

const fetchTimeout = 10 * time.Second

const maxMetadataBytes = 4 << 20

// Loader fetches an NFT's metadata and extracts a validated wireframe
// model. It never fails hard: every upstream error degrades to a fallback
// record carrying the error string.
type Loader struct {
	Resolver AssetResolver
	Client   *http.Client
}

func NewLoader(rpcEndpoint string) *Loader {
	client := &http.Client{Timeout: fetchTimeout}
	return &Loader{
		Resolver: &RPCResolver{Endpoint: rpcEndpoint, Client: client},
		Client:   client,
	}
}

// Load resolves, fetches and validates one NFT. The returned record is
// always usable; inspect Error/ModelDataSource for degraded loads.
func (l *Loader) Load(ctx context.Context, pubkey string) model.NFTRecord {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rec, err := l.load(ctx, pubkey)
	if err != nil {
		log.Printf("nft: load %s failed: %v", shortKey(pubkey), err)
		return FallbackRecord(pubkey, err)
	}
	return rec
}

func (l *Loader) load(ctx context.Context, pubkey string) (model.NFTRecord, error) {
	asset, err := l.Resolver.ResolveAsset(ctx, pubkey)
	if err != nil {
		return model.NFTRecord{}, err
	}
	if asset.URI == "" {
		return model.NFTRecord{}, errors.New("NFT does not have a metadata URI")
	}

	meta, err := l.fetchMetadata(ctx, asset.URI)
	if err != nil {
		return model.NFTRecord{}, fmt.Errorf("failed to fetch or parse metadata: %w", err)
	}

	data, source := extractModelData(meta)

	name := meta.Name
	if name == "" {
		name = fmt.Sprintf("NFT %s", shortKey(pubkey))
	}
	return model.NFTRecord{
		Pubkey:          pubkey,
		Name:            name,
		Description:     meta.Description,
		ModelData:       data,
		ModelDataSource: source,
		OriginalURI:     asset.URI,
		LoadedAt:        time.Now().UnixMilli(),
	}, nil
}

type metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Properties  struct {
		ModelData json.RawMessage `json:"modelData"`
	} `json:"properties"`
	Attributes []attribute `json:"attributes"`
	Extensions struct {
		Model json.RawMessage `json:"model"`
	} `json:"extensions"`
}

type attribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value"`
}

func (l *Loader) fetchMetadata(ctx context.Context, uri string) (metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return metadata{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NFTLoader/1.0)")

	resp, err := l.Client.Do(req)
	if err != nil {
		return metadata{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return metadata{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return metadata{}, err
	}
	var meta metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return metadata{}, err
	}
	return meta, nil
}

// extractModelData tries the metadata fields in fixed order:
// properties.modelData (JSON string or object), an attributes entry named
// modelData/model_data, then extensions.model. A candidate that fails the
// structural rule falls back to the default model rather than trying later
// fields.
func extractModelData(meta metadata) (model.ModelData, string) {
	var raw json.RawMessage
	source := ""

	if len(meta.Properties.ModelData) > 0 {
		if candidate, ok := rawOrEmbeddedJSON(meta.Properties.ModelData); ok {
			raw = candidate
			source = SourceProperties
		}
	}

	if raw == nil {
		for _, attr := range meta.Attributes {
			if attr.TraitType != "modelData" && attr.TraitType != "model_data" {
				continue
			}
			if candidate, ok := rawOrEmbeddedJSON(attr.Value); ok {
				raw = candidate
				source = SourceAttributes
			}
			break
		}
	}

	if raw == nil && len(meta.Extensions.Model) > 0 {
		raw = meta.Extensions.Model
		source = SourceExtensions
	}

	if raw == nil {
		return DefaultModel(), SourceDefault
	}
	data, ok := ParseModelData(raw)
	if !ok {
		return DefaultModel(), SourceDefaultFallback
	}
	return data, source
}

// rawOrEmbeddedJSON unwraps a value that is either a JSON object or a JSON
// string containing serialized JSON.
func rawOrEmbeddedJSON(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		if !json.Valid([]byte(inner)) {
			return nil, false
		}
		return json.RawMessage(inner), true
	}
	return raw, true
}

// ErrNoModelData marks metadata without an embedded wireframe. The editor's
// strict load surfaces it as not-found instead of degrading to a default.
var ErrNoModelData = errors.New("NFT does not contain 3D model data")

// StrictModel is the editor-facing load result: only NFTs whose
// properties.modelData parses as a valid wireframe qualify.
type StrictModel struct {
	Name        string
	Description string
	Image       string
	ModelData   model.ModelData
}

// LoadStrict resolves one NFT for the editor. Unlike Load it propagates
// every failure and accepts only the properties.modelData field.
func (l *Loader) LoadStrict(ctx context.Context, pubkey string) (StrictModel, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	asset, err := l.Resolver.ResolveAsset(ctx, pubkey)
	if err != nil {
		return StrictModel{}, err
	}
	if asset.URI == "" {
		return StrictModel{}, errors.New("NFT has no metadata URI")
	}

	meta, err := l.fetchMetadata(ctx, asset.URI)
	if err != nil {
		return StrictModel{}, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	if len(meta.Properties.ModelData) == 0 {
		return StrictModel{}, ErrNoModelData
	}
	raw, ok := rawOrEmbeddedJSON(meta.Properties.ModelData)
	if !ok {
		return StrictModel{}, ErrNoModelData
	}
	data, ok := ParseModelData(raw)
	if !ok {
		return StrictModel{}, errors.New("model data failed validation")
	}

	return StrictModel{
		Name:        meta.Name,
		Description: meta.Description,
		Image:       meta.Image,
		ModelData:   data,
	}, nil
}

// FallbackRecord synthesizes the record for an NFT that could not be
// loaded.
func FallbackRecord(pubkey string, cause error) model.NFTRecord {
	return model.NFTRecord{
		Pubkey:          pubkey,
		Name:            fmt.Sprintf("Fallback NFT %s", shortKey(pubkey)),
		Description:     "This NFT could not be loaded, showing default model",
		ModelData:       DefaultModel(),
		ModelDataSource: SourceErrorFallback,
		Error:           cause.Error(),
		LoadedAt:        time.Now().UnixMilli(),
	}
}

func shortKey(pubkey string) string {
	if len(pubkey) <= 8 {
		return pubkey
	}
	return pubkey[:8]
}
