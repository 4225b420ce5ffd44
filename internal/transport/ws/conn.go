package ws

import (
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// conn adapts a *websocket.Conn's message framing to io.ReadWriteCloser:
// Read pulls bytes from the current inbound message, advancing to the
// next one via NextReader when it is exhausted; Write opens one binary
// message per call. Concurrent writers are serialized, matching
// gorilla/websocket's single-writer-at-a-time requirement; concurrent
// readers are likewise serialized by readMu, so the in-flight message
// reader is never shared between two Read calls.
type conn struct {
	ws *websocket.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (c *conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, translateCloseErr(err)
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, translateCloseErr(err)
	}
	return len(p), nil
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// translateCloseErr turns gorilla's normal-closure sentinel into io.EOF,
// the convention the muxer above this connection expects for "remote
// hung up cleanly".
func translateCloseErr(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	return err
}
