package stream

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal transport surface a supervisor needs: text frames
// in, text frames out. Tests inject a scripted implementation.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(payload []byte) error
	Close() error
}

// Dialer opens a Conn to a websocket URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer is the production Dialer, backed by gorilla/websocket.
type WSDialer struct {
	handshakeTimeout time.Duration
}

func NewWSDialer() *WSDialer {
	return &WSDialer{handshakeTimeout: 10 * time.Second}
}

func (d *WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	cctx, cancel := context.WithTimeout(ctx, d.handshakeTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(cctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, b, err := c.conn.ReadMessage()
	return b, err
}

func (c *wsConn) WriteMessage(payload []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Close() error { return c.conn.Close() }
