package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chatlink/internal/app/user"
	"chatlink/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 16384

	sendQueueSize = 256

	// EventRate and EventBurst bound inbound events per connection. Throttled sends are
	// answered with a rate limit error, anything else is dropped.
	EventRate  = 10
	EventBurst = 20
)

var (
	ErrClientClosed  = errors.New("client connection closed")
	ErrSendQueueFull = errors.New("client send queue full")
)

type closeFrame struct {
	code   int
	reason string
}

// Client is a WebSocket Session. ReadPump and WritePump each run on their own goroutine;
// all writes to the connection happen in WritePump.
type Client struct {
	id   string
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	closeReq  chan closeFrame
	closeOnce sync.Once

	// done is closed when WritePump exits.
	done chan struct{}

	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient wraps an upgraded connection. Start WritePump before sending anything.
func NewClient(conn *websocket.Conn) *Client {
	id := uuid.New().String()

	return &Client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		closeReq: make(chan closeFrame, 1),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(rate.Limit(EventRate), EventBurst),
		logger:   logx.Logger().With().Str("component", "ws").Str("session_id", id).Logger(),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send marshals an Outbound frame and queues it without blocking.
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(newOutbound(event, payload))
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("error marshaling outbound event")
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", event).Msg("client send channel full, dropping event")
		return ErrSendQueueFull
	}
}

// SendWait is Send with backpressure: it blocks until the frame fits in the queue, the
// connection closes or ctx ends.
func (c *Client) SendWait(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(newOutbound(event, payload))
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("error marshaling outbound event")
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close asks WritePump to flush queued frames and close with code. Only the first call counts.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeReq <- closeFrame{code: code, reason: reason}
	})
}

// ReadPump reads frames until the connection fails or closes. Frames within the rate limit
// go to handle, the rest to throttled. It runs on the caller's goroutine.
func (c *Client) ReadPump(handle, throttled func(raw []byte)) {
	defer c.Close(websocket.CloseNormalClosure, "")

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("connection closed unexpectedly")
			}
			return
		}

		if !c.limiter.Allow() {
			c.logger.Warn().Msg("client exceeded event rate")
			throttled(raw)
			continue
		}

		handle(raw)
	}
}

// WritePump writes queued frames and heartbeats until Close is requested or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		close(c.done)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case req := <-c.closeReq:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(req.code, req.reason))
			return

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// flush writes whatever is still queued, without waiting for more.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("write failed")
		return false
	}

	return true
}

// Serve runs an authenticated client until its connection ends: connect, read loop, disconnect.
func (g *Gateway) Serve(ctx context.Context, identity user.Identity, c *Client) {
	g.Connect(ctx, identity, c)
	defer g.Disconnect(ctx, identity.ID, c)

	c.ReadPump(
		func(raw []byte) { g.HandleEvent(ctx, c, raw) },
		func(raw []byte) { g.HandleThrottled(c, raw) },
	)
}
