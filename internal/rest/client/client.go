package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlbatch/rest/response"
	"github.com/canonical/sqlbatch/rest/types"
)

// Client is a rest client for the daemon.
type Client struct {
	*http.Client
	url api.URL
}

// New returns a new client for the given url. An absolute path to the control socket selects the
// unix socket, anything else is reached over plain HTTP.
func New(url api.URL) (*Client, error) {
	var httpClient *http.Client

	if strings.HasSuffix(url.String(), "control.socket") && path.IsAbs(url.Hostname()) {
		httpClient = unixHTTPClient(shared.HostPath(url.Hostname()))
		url.Host(filepath.Base(url.Hostname()))
	} else {
		httpClient = &http.Client{Transport: &http.Transport{Proxy: shared.ProxyFromEnvironment, DisableKeepAlives: true}}
	}

	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Replicate the headers
		req.Header = via[len(via)-1].Header

		return nil
	}

	return &Client{
		Client: httpClient,
		url:    url,
	}, nil
}

func unixHTTPClient(path string) *http.Client {
	unixDial := func(ctx context.Context, network string, addr string) (net.Conn, error) {
		raddr, err := net.ResolveUnixAddr("unix", path)
		if err != nil {
			return nil, err
		}

		var d net.Dialer
		return d.DialContext(ctx, "unix", raddr.String())
	}

	return &http.Client{Transport: &http.Transport{DialContext: unixDial, DisableKeepAlives: true}}
}

func (c *Client) rawQuery(ctx context.Context, method string, url *api.URL, data any) (*http.Response, error) {
	// Assign a context timeout if we don't already have one.
	_, ok := ctx.Deadline()
	if !ok {
		timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		ctx = timeoutCtx
		defer cancel()
	}

	var body io.Reader
	if data != nil {
		buf := bytes.Buffer{}
		err := json.NewEncoder(&buf).Encode(data)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(buf.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, method, url.String(), body)
	if err != nil {
		return nil, err
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) mergeURL(endpointType types.EndpointPrefix, endpoint *api.URL) *api.URL {
	localURL := api.NewURL()
	if endpoint != nil {
		// Get a new local struct to avoid modifying the provided one.
		newURL := *endpoint
		localURL = &newURL
	}

	localURL.URL.Host = c.url.URL.Host
	localURL.URL.Scheme = c.url.URL.Scheme
	localURL.URL.Path = filepath.Join("/", string(endpointType), localURL.URL.Path)
	localURL.URL.RawPath = filepath.Join("/", string(endpointType), localURL.URL.RawPath)

	return localURL
}

// QueryStruct sends a request of the specified method to the provided endpoint (optional) on the API matching the endpointType.
// The response gets unpacked into the target struct.
func (c *Client) QueryStruct(ctx context.Context, method string, endpointType types.EndpointPrefix, endpoint *api.URL, data any, target any) error {
	localURL := c.mergeURL(endpointType, endpoint)

	resp, err := c.rawQuery(ctx, method, localURL, data)
	if err != nil {
		return err
	}

	logger.Debug("Got raw response struct from sqlbatch daemon", logger.Ctx{"endpoint": localURL.String(), "method": method})

	parsed, err := response.ParseResponse(resp)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	// Keep numbers as json.Number so integers beyond 2^53 survive the round trip.
	decoder := json.NewDecoder(bytes.NewReader(parsed.Metadata))
	decoder.UseNumber()

	err = decoder.Decode(target)
	if err != nil {
		return fmt.Errorf("Failed to parse response metadata: %w", err)
	}

	return nil
}

// URL returns the address used for the client.
func (c *Client) URL() api.URL {
	return c.url
}
