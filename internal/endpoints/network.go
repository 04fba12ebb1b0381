package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/canonical/lxd/lxd/util"
	"github.com/canonical/lxd/shared/logger"
)

// DefaultPort is used when the listen address has no port.
const DefaultPort = 9443

// Network represents a TCP listener and its server.
type Network struct {
	address string

	listener net.Listener
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNetwork assigns an address and server to the Network.
func NewNetwork(ctx context.Context, server *http.Server, address string) *Network {
	ctx, cancel := context.WithCancel(ctx)

	return &Network{
		address: address,

		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Type returns the type of the Endpoint.
func (n *Network) Type() EndpointType {
	return EndpointNetwork
}

// listenAddress returns the configured address with the default port filled in.
func (n *Network) listenAddress() string {
	return util.CanonicalNetworkAddress(n.address, DefaultPort)
}

// Listen on the given address.
func (n *Network) Listen() error {
	listenAddress := n.listenAddress()
	protocol := "tcp"
	if strings.HasPrefix(listenAddress, "0.0.0.0") {
		protocol = "tcp4"
	}

	listener, err := net.Listen(protocol, listenAddress)
	if err != nil {
		return fmt.Errorf("Failed to listen on http socket: %w", err)
	}

	n.listener = listener

	return nil
}

// Addr returns the bound address, which differs from the configured one when port 0 was requested.
func (n *Network) Addr() net.Addr {
	if n.listener == nil {
		return nil
	}

	return n.listener.Addr()
}

// Serve binds to the Network's server.
func (n *Network) Serve() {
	if n.listener == nil {
		return
	}

	logger.Info(" - binding http socket", logger.Ctx{"network": n.listener.Addr()})

	go func() {
		err := n.server.Serve(n.listener)
		if err != nil && !errors.Is(err, net.ErrClosed) && n.ctx.Err() == nil {
			logger.Error("Failed to start server", logger.Ctx{"err": err})
		}
	}()
}

// Close the listener.
func (n *Network) Close() error {
	if n.listener == nil {
		return nil
	}

	logger.Info("Stopping REST API handler - closing http socket", logger.Ctx{"address": n.listener.Addr()})
	n.cancel()

	return n.listener.Close()
}
