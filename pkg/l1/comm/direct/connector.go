package direct

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"

	"golang.org/x/net/websocket"

	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/stream"
	wsrw "github.com/robotalks/nunchuk.go/pkg/l1/comm/websocket"
)

// Connector implements l1.Connector against a single direct endpoint.
// The URL scheme selects the transport: tcp://host:port or
// ws://host:port/path.
type Connector struct {
	URL string
}

// NewConnector creates a Connector from an endpoint URL.
func NewConnector(endpointURL string) (*Connector, error) {
	parsed, err := url.Parse(endpointURL)
	if err != nil {
		return nil, err
	}
	switch parsed.Scheme {
	case "tcp", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported direct scheme: %q", parsed.Scheme)
	}
	return &Connector{URL: endpointURL}, nil
}

// Discover implements Connector. A direct endpoint hosts exactly one
// controller and exposes no registry, so nothing is reported.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return nil, nil
}

// Connect implements Connector. The ref is ignored as the endpoint is
// the controller.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return nil, err
	}
	conn := &Conn{}
	switch parsed.Scheme {
	case "tcp":
		raw, err := net.Dial("tcp", parsed.Host)
		if err != nil {
			return nil, err
		}
		conn.raw = raw
		conn.Init(stream.New(raw))
	case "ws", "wss":
		ws, err := websocket.Dial(c.URL, "", "http://"+parsed.Host)
		if err != nil {
			return nil, err
		}
		conn.raw = ws
		conn.Init(wsrw.New(ws))
	default:
		return nil, fmt.Errorf("unsupported direct scheme: %q", parsed.Scheme)
	}
	return conn, nil
}

// Conn implements l1.ControllerConn over a direct connection.
type Conn struct {
	comm.ControllerConn
	raw io.Closer
}

// Close shuts down the connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}
