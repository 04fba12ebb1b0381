package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"
	"strconv"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// Socket represents a unix socket with a given path.
type Socket struct {
	Path  string
	Group string

	listener *net.UnixListener
	server   *http.Server

	ctx context.Context
}

// NewSocket returns a Socket struct with no listener attached yet.
func NewSocket(ctx context.Context, server *http.Server, path api.URL, group string) *Socket {
	return &Socket{
		Path:  path.Hostname(),
		Group: group,

		server: server,
		ctx:    ctx,
	}
}

// Type returns the type of the Endpoint.
func (s *Socket) Type() EndpointType {
	return EndpointControl
}

// Listen on the unix socket path, replacing a stale socket file left by a previous daemon.
func (s *Socket) Listen() error {
	conn, err := net.Dial("unix", s.Path)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("Unix socket at %q is already running", s.Path)
	}

	if shared.PathExists(s.Path) {
		logger.Debug("Detected stale control socket, deleting", logger.Ctx{"socket": s.Path})
		err := os.Remove(s.Path)
		if err != nil {
			return fmt.Errorf("Failed to delete stale local socket: %w", err)
		}
	}

	addr, err := net.ResolveUnixAddr("unix", s.Path)
	if err != nil {
		return fmt.Errorf("Failed to resolve socket address: %w", err)
	}

	s.listener, err = net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("Failed to bind socket: %w", err)
	}

	err = setAccess(s.Path, s.Group)
	if err != nil {
		_ = s.listener.Close()
		return err
	}

	return nil
}

// Serve binds to the Socket's server.
func (s *Socket) Serve() {
	if s.listener == nil {
		return
	}

	logger.Info(" - binding control socket", logger.Ctx{"socket": s.listener.Addr()})

	go func() {
		err := s.server.Serve(s.listener)
		if err != nil && !errors.Is(err, net.ErrClosed) && s.ctx.Err() == nil {
			logger.Error("Failed to start server", logger.Ctx{"err": err})
		}
	}()
}

// Close the Socket's listener.
func (s *Socket) Close() error {
	if s.listener == nil {
		return nil
	}

	logger.Info("Stopping REST API handler - closing socket", logger.Ctx{"socket": s.listener.Addr()})

	return s.listener.Close()
}

// setAccess restricts the socket to the process user and the given group,
// or the process group if group is empty.
func setAccess(path string, group string) error {
	err := os.Chmod(path, 0660)
	if err != nil {
		return fmt.Errorf("Failed to set permissions on local socket: %w", err)
	}

	gid := os.Getgid()
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return fmt.Errorf("Failed to get group ID of %q: %w", group, err)
		}

		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return err
		}
	}

	err = os.Chown(path, os.Getuid(), gid)
	if err != nil {
		return fmt.Errorf("Failed to change ownership on local socket: %w", err)
	}

	return nil
}
