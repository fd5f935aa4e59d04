package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/schema"
)

// Conn is the slice of a websocket connection the channel needs. The
// indirection exists so tests can drive the read loop with a fake.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Conn to the given URL.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// StatusFetcher supplies a request/response view of the run, used to
// refresh the snapshot after a reconnect.
type StatusFetcher interface {
	Status(ctx context.Context) (schema.StatusReport, error)
}

// ChannelDeps captures optional dependencies for the live channel.
type ChannelDeps struct {
	Dialer Dialer
	Status StatusFetcher
	Logger pslog.Logger
}

// gorillaDialer adapts gorilla/websocket to the Dialer interface.
type gorillaDialer struct {
	dialer *websocket.Dialer
}

func newGorillaDialer(timeout time.Duration) gorillaDialer {
	return gorillaDialer{dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}}
}

func (g gorillaDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := g.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}
