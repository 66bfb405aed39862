// Package transport provides the participant-facing WebSocket connection
// and the optional payload compressor used for large outbound frames.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Sentinel errors for connection lifecycle misuse.
var (
	ErrAlreadyOpen = errors.New("transport: connection already open")
	ErrClosed      = errors.New("transport: connection closed")
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Connection wraps one accepted gorilla/websocket connection with a
// serialized write path (concurrent writers are not safe on a raw
// *websocket.Conn) and a read loop that decodes frames for the caller.
type Connection struct {
	conn *websocket.Conn
	log  zerolog.Logger

	compressor Compressor

	writeMu sync.Mutex
	closed  bool
	closeMu sync.Mutex
}

// NewConnection wraps an already-upgraded websocket connection.
// compressor may be nil, in which case frames are sent uncompressed.
func NewConnection(conn *websocket.Conn, compressor Compressor, log zerolog.Logger) *Connection {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Connection{conn: conn, compressor: compressor, log: log}
}

// ReadOnce reads and returns a single frame, decompressing it if a
// Compressor is configured. Used for the one-shot handshake read before
// ReadLoop takes over for the connection's remaining lifetime.
func (c *Connection) ReadOnce() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.compressor != nil {
		if decompressed, derr := c.compressor.Decompress(data); derr == nil {
			data = decompressed
		}
	}
	return data, nil
}

// ReadLoop blocks reading frames off the socket and invoking handle for
// each one until the connection closes or ctx is cancelled. A read
// error always ends the loop; callers should treat its return as a
// disconnect signal.
func (c *Connection) ReadLoop(ctx context.Context, handle func(payload []byte) error) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		if c.compressor != nil {
			if decompressed, derr := c.compressor.Decompress(data); derr == nil {
				data = decompressed
			}
		}
		if err := handle(data); err != nil {
			c.log.Debug().Err(err).Msg("dropped malformed inbound frame")
		}
	}
}

// Write serializes one outbound frame, optionally compressing it first.
// Safe for concurrent use; writes are mutex-serialized the way a single
// *websocket.Conn requires.
func (c *Connection) Write(payload []byte) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return ErrClosed
	}

	if c.compressor != nil {
		if compressed, err := c.compressor.Compress(payload); err == nil {
			payload = compressed
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Ping sends a control ping; callers drive this off a ticker at
// pingPeriod to keep intermediaries from closing an idle connection.
func (c *Connection) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying socket. Idempotent.
func (c *Connection) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// PingInterval is exported so callers can drive a ticker at the same
// cadence the connection's read deadline assumes.
func PingInterval() time.Duration { return pingPeriod }
