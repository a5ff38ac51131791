package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendQueueSize bounds the per-connection outbound queue. A full
	// queue drops the message rather than block the sender.
	sendQueueSize = 64

	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	maxFrameSize = 1 << 16 // 64KB, far above any single game event

	// pingPeriod must stay below readTimeout: an idle but healthy client
	// never sends frames on its own, so the server's pings (and their
	// pongs) are what keep the read deadline from lapsing.
	pingPeriod = (readTimeout * 9) / 10
)

// Client wraps a websocket connection with a buffered outbound queue so
// that broadcast fan-out never blocks on a slow peer.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	pingEvery time.Duration
}

// NewClient wraps an upgraded websocket connection.
//
// Precondition: conn must be a freshly upgraded, open connection.
// Postcondition: Returns a Client whose WritePump has not started yet.
func NewClient(id string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		id:        id,
		conn:      conn,
		logger:    logger,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		pingEvery: pingPeriod,
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Enqueue queues a payload for delivery. It never blocks: if the
// connection is closed or the queue is full, the payload is dropped.
func (c *Client) Enqueue(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("outbound queue full, dropping message",
			zap.String("conn_id", c.id))
	}
}

// Close shuts down the connection and stops the write pump. Safe to call
// multiple times and concurrently with Enqueue.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// WritePump drains the outbound queue onto the wire and pings the peer
// on an interval so idle connections are not dropped by the read
// deadline. It runs until Close is called or a write fails, and must be
// started in its own goroutine.
func (c *Client) WritePump() {
	defer c.Close()
	ticker := time.NewTicker(c.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("write failed, closing connection",
					zap.String("conn_id", c.id),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed, closing connection",
					zap.String("conn_id", c.id),
					zap.Error(err))
				return
			}
		}
	}
}
