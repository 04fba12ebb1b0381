package client

import (
	"context"
	"net/http"

	"github.com/canonical/lxd/shared/api"

	internalTypes "github.com/canonical/sqlbatch/internal/rest/types"
	"github.com/canonical/sqlbatch/rest/types"
)

// GetServer returns information about the daemon.
func (c *Client) GetServer(ctx context.Context) (*internalTypes.Server, error) {
	server := &internalTypes.Server{}

	err := c.QueryStruct(ctx, http.MethodGet, types.PublicEndpoint, nil, nil, server)
	if err != nil {
		return nil, err
	}

	return server, nil
}

// GetServers lists the connection profiles known to the daemon.
func (c *Client) GetServers(ctx context.Context) ([]internalTypes.ServerEntry, error) {
	servers := []internalTypes.ServerEntry{}

	err := c.QueryStruct(ctx, http.MethodGet, types.PublicEndpoint, api.NewURL().Path("servers"), nil, &servers)
	if err != nil {
		return nil, err
	}

	return servers, nil
}

// SubmitBatch starts a batch on the daemon and returns its ID.
func (c *Client) SubmitBatch(ctx context.Context, query internalTypes.SQLQuery) (string, error) {
	batch := &internalTypes.SQLBatch{}

	err := c.QueryStruct(ctx, http.MethodPost, types.PublicEndpoint, api.NewURL().Path("batches"), query, batch)
	if err != nil {
		return "", err
	}

	return batch.ID, nil
}

// GetBatch returns the status of a batch and, once finished, its results.
func (c *Client) GetBatch(ctx context.Context, id string) (*internalTypes.SQLBatch, error) {
	batch := &internalTypes.SQLBatch{}

	err := c.QueryStruct(ctx, http.MethodGet, types.PublicEndpoint, api.NewURL().Path("batches", id), nil, batch)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// DeleteBatch makes the daemon forget a batch.
func (c *Client) DeleteBatch(ctx context.Context, id string) error {
	return c.QueryStruct(ctx, http.MethodDelete, types.PublicEndpoint, api.NewURL().Path("batches", id), nil, nil)
}

// CheckReady returns an error until the daemon has finished starting up.
func (c *Client) CheckReady(ctx context.Context) error {
	return c.QueryStruct(ctx, http.MethodGet, types.PublicEndpoint, api.NewURL().Path("ready"), nil, nil)
}

// ShutdownDaemon asks the daemon to stop.
func (c *Client) ShutdownDaemon(ctx context.Context) error {
	return c.QueryStruct(ctx, http.MethodPost, types.PublicEndpoint, api.NewURL().Path("shutdown"), nil, nil)
}
