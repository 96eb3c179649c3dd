package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHeliusClient_GetTokenMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req heliusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getAsset", req.Method)
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.True(t, req.Params.DisplayOptions.ShowFungible)

		if req.Params.ID != "CatMint" {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"Asset not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{
			"id":"CatMint",
			"content":{
				"metadata":{"name":"Cat","symbol":"CAT","description":"meow"},
				"json_uri":"ipfs://QmCat",
				"files":[{"uri":"ipfs://QmImg","cdn_uri":"https://cdn/img.png"}]
			},
			"creators":[{"address":"Creator111","verified":true}]
		}}`))
	}))
	defer srv.Close()

	c := NewHeliusClient(srv.URL, nil, zap.NewNop())

	md, err := c.GetTokenMetadata(context.Background(), "CatMint")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "Cat", md.Name)
	assert.Equal(t, "CAT", md.Symbol)
	assert.Equal(t, "meow", md.Description)
	assert.Equal(t, "ipfs://QmCat", md.URI)
	assert.Equal(t, "https://cdn/img.png", md.Image)
	assert.Equal(t, "Creator111", md.Creator)

	md, err = c.GetTokenMetadata(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestHeliusClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHeliusClient(srv.URL, nil, zap.NewNop())
	_, err := c.GetTokenMetadata(context.Background(), "CatMint")
	assert.Error(t, err)
}
