package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractIPFSHash(t *testing.T) {
	tests := []struct {
		uri  string
		hash string
		ok   bool
	}{
		{"ipfs://QmHash", "QmHash", true},
		{"ipfs://ipfs/QmHash", "QmHash", true},
		{"https://cf-ipfs.com/ipfs/QmHash", "QmHash", true},
		{"https://gateway.example/ipfs/QmHash?x=1", "QmHash", true},
		{"https://arweave.net/abc", "", false},
		{"ipfs://", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			hash, ok := ExtractIPFSHash(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.hash, hash)
		})
	}
}

func TestFetchMetadata_GatewayFallback(t *testing.T) {
	var badHits int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&badHits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ipfs/QmCat", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Cat","symbol":"CAT","twitter":"@cat"}`))
	}))
	defer good.Close()

	c := NewIPFSClient([]string{bad.URL + "/ipfs", good.URL + "/ipfs/"}, nil, zap.NewNop())
	md := c.FetchMetadata(context.Background(), "ipfs://QmCat")

	require.NotNil(t, md)
	assert.Equal(t, "Cat", md.Name)
	assert.Equal(t, "@cat", md.Twitter)
	assert.Equal(t, int32(1), atomic.LoadInt32(&badHits))
}

func TestFetchMetadata_DirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Direct"}`))
	}))
	defer srv.Close()

	c := NewIPFSClient(nil, nil, zap.NewNop())
	md := c.FetchMetadata(context.Background(), srv.URL+"/meta.json")

	require.NotNil(t, md)
	assert.Equal(t, "Direct", md.Name)
}

func TestFetchMetadata_Unresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewIPFSClient([]string{srv.URL + "/ipfs/"}, nil, zap.NewNop())
	assert.Nil(t, c.FetchMetadata(context.Background(), ""))
	assert.Nil(t, c.FetchMetadata(context.Background(), "ipfs://QmBroken"))
	assert.Nil(t, c.FetchMetadata(context.Background(), "ar://nothing"))
}
