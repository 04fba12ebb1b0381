package endpoints

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/canonical/lxd/shared/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *http.Server {
	return &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})}
}

func TestListenAddress(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1":      "127.0.0.1:9443",
		"127.0.0.1:":     "127.0.0.1:9443",
		"127.0.0.1:0":    "127.0.0.1:0",
		"::1":            "[::1]:9443",
		"[::1]":          "[::1]:9443",
		"[::]:8443":      "[::]:8443",
		"localhost":      "localhost:9443",
		"db.example:123": "db.example:123",
	}

	for address, want := range cases {
		n := NewNetwork(context.Background(), testServer(), address)
		assert.Equal(t, want, n.listenAddress(), address)
	}
}

func TestEndpointsUpDown(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "control.socket")

	socket := NewSocket(ctx, testServer(), *api.NewURL().Scheme("http").Host(path), "")
	network := NewNetwork(ctx, testServer(), "127.0.0.1:0")

	e := NewEndpoints(ctx, map[string]Endpoint{EndpointsUnix: socket, EndpointsNetwork: network})
	require.NoError(t, e.Up())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0660), info.Mode().Perm())

	resp, err := http.Get("http://" + network.Addr().String())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	unixClient := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, "unix", path)
		},
	}}

	resp, err = unixClient.Get("http://control.socket")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Len(t, e.List(EndpointNetwork), 1)
	require.NoError(t, e.Down(EndpointNetwork))
	assert.Empty(t, e.List(EndpointNetwork))
	assert.Len(t, e.List(EndpointControl), 1)

	require.NoError(t, e.Down())
	assert.Empty(t, e.List(EndpointControl))
}

func TestSocketInUse(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "control.socket")

	first := NewSocket(ctx, testServer(), *api.NewURL().Scheme("http").Host(path), "")
	require.NoError(t, first.Listen())
	first.Serve()
	defer first.Close()

	second := NewSocket(ctx, testServer(), *api.NewURL().Scheme("http").Host(path), "")
	assert.Error(t, second.Listen())
}

func TestSocketStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.socket")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	s := NewSocket(context.Background(), testServer(), *api.NewURL().Scheme("http").Host(path), "")
	require.NoError(t, s.Listen())
	assert.NoError(t, s.Close())
}

func TestUpFailureClosesListeners(t *testing.T) {
	ctx := context.Background()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	e := NewEndpoints(ctx, map[string]Endpoint{EndpointsNetwork: NewNetwork(ctx, testServer(), busy.Addr().String())})
	assert.Error(t, e.Up())
	assert.Empty(t, e.List(EndpointNetwork))
}
