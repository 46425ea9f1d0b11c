package nft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPubkey = "7sK2mPdXg81qLbVjPzrtWmNs4aGyQcTf3hRuAeB9JxYn"

type staticResolver struct {
	asset Asset
	err   error
}

func (r staticResolver) ResolveAsset(context.Context, string) (Asset, error) {
	return r.asset, r.err
}

func metadataServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

const validModelJSON = `{
  "vertices": [
    {"pos": [0, 0, 0], "size": 1, "color": [1, 0, 0]},
    {"pos": [1, 1, 1], "size": 2, "color": "#00ff00"}
  ],
  "edges": ["0-1"]
}`

func TestLoad_PropertiesModelDataString(t *testing.T) {
	embedded, _ := json.Marshal(validModelJSON)
	srv := metadataServer(t, `{"name":"Wire","description":"d","properties":{"modelData":`+string(embedded)+`}}`)
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Empty(t, rec.Error)
	require.Equal(t, "Wire", rec.Name)
	require.Equal(t, SourceProperties, rec.ModelDataSource)
	require.Len(t, rec.ModelData.Vertices, 2)
	require.Equal(t, []string{"0-1"}, rec.ModelData.Edges)
}

func TestLoad_AttributesFallbackOrder(t *testing.T) {
	srv := metadataServer(t, `{"name":"Attr","attributes":[
		{"trait_type":"Type","value":"3D Model"},
		{"trait_type":"model_data","value":`+validModelJSON+`}
	]}`)
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceAttributes, rec.ModelDataSource)
	require.Len(t, rec.ModelData.Vertices, 2)
}

func TestLoad_ExtensionsModel(t *testing.T) {
	srv := metadataServer(t, `{"name":"Ext","extensions":{"model":`+validModelJSON+`}}`)
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceExtensions, rec.ModelDataSource)
}

func TestLoad_NoModelDataSynthesizesDefault(t *testing.T) {
	srv := metadataServer(t, `{"name":"Plain"}`)
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Empty(t, rec.Error)
	require.Equal(t, SourceDefault, rec.ModelDataSource)
	require.Len(t, rec.ModelData.Vertices, 5)
	require.Len(t, rec.ModelData.Edges, 8)
}

func TestLoad_InvalidStructureFallsBack(t *testing.T) {
	// Parses as JSON but the edge references a missing vertex.
	srv := metadataServer(t, `{"name":"Bad","properties":{"modelData":{
		"vertices":[{"pos":[0,0,0],"size":1,"color":[1,0,0]}],
		"edges":["0-7"]
	}}}`)
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceDefaultFallback, rec.ModelDataSource)
	require.Len(t, rec.ModelData.Vertices, 5)
}

func TestLoad_ResolveFailureYieldsErrorFallback(t *testing.T) {
	l := &Loader{Resolver: staticResolver{err: errors.New("asset not found")}, Client: http.DefaultClient}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceErrorFallback, rec.ModelDataSource)
	require.NotEmpty(t, rec.Error)
	require.Contains(t, rec.Name, "Fallback NFT")
	require.Len(t, rec.ModelData.Vertices, 5)
}

func TestLoad_MetadataHTTPErrorYieldsErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	l := &Loader{Resolver: staticResolver{asset: Asset{URI: srv.URL}}, Client: srv.Client()}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceErrorFallback, rec.ModelDataSource)
	require.Contains(t, rec.Error, "502")
}

func TestLoad_MissingURIYieldsErrorFallback(t *testing.T) {
	l := &Loader{Resolver: staticResolver{asset: Asset{Name: "n"}}, Client: http.DefaultClient}
	rec := l.Load(context.Background(), testPubkey)

	require.Equal(t, SourceErrorFallback, rec.ModelDataSource)
	require.Contains(t, rec.Error, "metadata URI")
}

func TestRPCResolver_GetAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getAsset", req.Method)
		_, _ = w.Write([]byte(`{"result":{"content":{"json_uri":"https://example.com/meta.json","metadata":{"name":"Asset"}}}}`))
	}))
	defer srv.Close()

	r := &RPCResolver{Endpoint: srv.URL, Client: srv.Client()}
	asset, err := r.ResolveAsset(context.Background(), testPubkey)
	require.NoError(t, err)
	require.Equal(t, "Asset", asset.Name)
	require.Equal(t, "https://example.com/meta.json", asset.URI)
}

func TestRPCResolver_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":-32000,"message":"asset not found"}}`))
	}))
	defer srv.Close()

	r := &RPCResolver{Endpoint: srv.URL, Client: srv.Client()}
	_, err := r.ResolveAsset(context.Background(), testPubkey)
	require.Error(t, err)
	require.Contains(t, err.Error(), "asset not found")
}
