// Package client is the public REST client of the sqlbatch daemon.
package client

import (
	"context"

	"github.com/canonical/lxd/shared/api"

	"github.com/canonical/sqlbatch/internal/rest/client"
	"github.com/canonical/sqlbatch/rest/types"
)

// Client is a rest client for the sqlbatch daemon.
type Client struct {
	client.Client
}

// New returns a client for the daemon listening at url, either a unix socket path or an http address.
func New(url api.URL) (*Client, error) {
	c, err := client.New(url)
	if err != nil {
		return nil, err
	}

	return &Client{Client: *c}, nil
}

// Query is a helper for initiating a request on any endpoints defined external to sqlbatch.
func (c *Client) Query(ctx context.Context, method string, path *api.URL, in any, out any) error {
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	return c.QueryStruct(queryCtx, method, types.PublicEndpoint, path, in, out)
}
