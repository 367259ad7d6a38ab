/*
Package chat is the realtime core of chatlink.

The Gateway owns the connection registry and drives presence, message routing, backlog
replay, read receipts and typing signals for every WebSocket session of the process. It
reaches durable state only through Store and other processes only through Relay.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"chatlink/internal/app/user"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/logx"
)

// DefaultStoreTimeout bounds every Store call when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// Gateway coordinates the sessions of one process.
type Gateway struct {
	registry     Registry
	channels     *Channels
	store        Store
	auth         Authenticator
	relay        Relay
	storeTimeout time.Duration
	meter        metric.Meter
	metrics      *metrics
	logger       zerolog.Logger
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithRegistry replaces the in-process registry, e.g. with a shared implementation.
func WithRegistry(r Registry) Option {
	return func(g *Gateway) { g.registry = r }
}

// WithRelay enables cross-process delivery for users not connected here.
func WithRelay(r Relay) Option {
	return func(g *Gateway) { g.relay = r }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.storeTimeout = d
		}
	}
}

func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) { g.meter = m }
}

// NewGateway wires a gateway around store and auth.
func NewGateway(store Store, auth Authenticator, opts ...Option) *Gateway {
	g := &Gateway{
		channels:     NewChannels(),
		store:        store,
		auth:         auth,
		storeTimeout: DefaultStoreTimeout,
		logger:       logx.Component("gateway"),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.registry == nil {
		g.registry = NewMemoryRegistry()
	}
	g.metrics = newMetrics(g.meter, g.registry)

	return g
}

// Registry exposes the registry for read-only queries such as online flags.
func (g *Gateway) Registry() Registry {
	return g.registry
}

// IsOnline reports whether userID has a live session on this process.
func (g *Gateway) IsOnline(userID int64) bool {
	return g.registry.IsOnline(userID)
}

// Authenticate verifies token. Every failure maps to ErrUnauthorized.
func (g *Gateway) Authenticate(token string) (user.Identity, error) {
	identity, err := g.auth.VerifyToken(token)
	if err != nil {
		g.logger.Debug().Err(err).Msg("connection token rejected")
		return user.Identity{}, errs.NewError(errs.ErrUnauthorized)
	}
	if identity.ID <= 0 {
		return user.Identity{}, errs.NewError(errs.ErrUnauthorized)
	}
	return identity, nil
}

// Reject tells an unauthenticated session why and closes it. No registry entry exists for it.
func (g *Gateway) Reject(s Session, err error) {
	customErr := errs.NewError(errs.ErrUnauthorized)
	var ce *errs.CustomError
	if errors.As(err, &ce) {
		customErr = ce
	}

	if sendErr := s.Send(EventUnauthorized, ErrorPayload{Code: customErr.Code, Message: customErr.Message}); sendErr != nil {
		g.logger.Debug().Err(sendErr).Msg("unauthorized notice not queued")
	}
	s.Close(CloseUnauthorized, "unauthorized")
}

// Connect takes a freshly authenticated session online: it claims the registry slot,
// announces the user to online friends, joins group channels, sends the friends snapshot
// and replays the unread backlog.
func (g *Gateway) Connect(ctx context.Context, identity user.Identity, s Session) {
	if evicted := g.registry.Register(identity.ID, s, identity.DisplayName()); evicted != nil {
		g.metrics.evictions.Add(ctx, 1)
		g.channels.LeaveAll(evicted.ID())
	}

	g.logger.Info().
		Int64("user_id", identity.ID).
		Str("session_id", s.ID()).
		Int("online", g.registry.Count()).
		Msg("user connected")

	g.announceArrival(ctx, identity.ID, s)
	g.replayBacklog(ctx, identity.ID, s)
}

// Disconnect evicts the session and, when it still held the slot, announces the departure.
// Eviction happens even if the store is unavailable.
func (g *Gateway) Disconnect(ctx context.Context, userID int64, s Session) {
	g.channels.LeaveAll(s.ID())

	if !g.registry.Unregister(userID, s.ID()) {
		return
	}

	g.logger.Info().
		Int64("user_id", userID).
		Str("session_id", s.ID()).
		Int("online", g.registry.Count()).
		Msg("user disconnected")

	g.announceDeparture(ctx, userID)
}

// HandleEvent processes one inbound frame from s. Frames from sessions that no longer hold
// a registry slot are dropped.
func (g *Gateway) HandleEvent(ctx context.Context, s Session, raw []byte) {
	entry, ok := g.registry.Entry(s.ID())
	if !ok {
		g.logger.Debug().Str("session_id", s.ID()).Msg("event from unregistered session dropped")
		return
	}

	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		g.logger.Warn().Err(err).Int64("user_id", entry.UserID).Msg("client sent invalid JSON")
		return
	}

	switch in.Type {
	case EventPrivateMessage:
		var p PrivateMessagePayload
		if !g.decode(entry, in, &p) {
			g.sendError(s, EventMessageError, errs.NewError(errs.ErrInvalidParams), in.TempID)
			return
		}
		g.SendPrivate(ctx, entry, in.TempID, p)

	case EventGroupMessage:
		var p GroupMessagePayload
		if !g.decode(entry, in, &p) {
			g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrInvalidParams), in.TempID)
			return
		}
		g.SendGroup(ctx, entry, in.TempID, p)

	case EventTypingStart, EventTypingStop:
		var p TypingPayload
		if g.decode(entry, in, &p) {
			g.RelayTyping(entry.UserID, p.To, in.Type == EventTypingStart)
		}

	case EventMarkMessagesRead:
		var p MarkReadPayload
		if g.decode(entry, in, &p) {
			g.MarkMessagesRead(ctx, entry.UserID, p.From)
		}

	case EventMarkGroupMessagesRead:
		var p MarkGroupReadPayload
		if g.decode(entry, in, &p) {
			g.MarkGroupMessagesRead(ctx, entry, p.GroupID)
		}

	case EventGetUserOnlineStatus:
		var p OnlineStatusQuery
		if g.decode(entry, in, &p) && p.UserID > 0 {
			g.send(s, EventAvailabilityStatus, AvailabilityPayload{UserID: p.UserID, IsOnline: g.registry.IsOnline(p.UserID)})
		}

	default:
		g.logger.Warn().Int64("user_id", entry.UserID).Str("msg_type", in.Type).Msg("client sent unsupported event type")
	}
}

// HandleThrottled answers a frame rejected by the per-connection rate limit. Send events get
// a rate limit error carrying their tempId so every send attempt has an outcome; other
// events are dropped.
func (g *Gateway) HandleThrottled(s Session, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}

	switch in.Type {
	case EventPrivateMessage:
		g.sendError(s, EventMessageError, errs.NewError(errs.ErrRateLimitExceeded), in.TempID)
	case EventGroupMessage:
		g.sendError(s, EventGroupMessageError, errs.NewError(errs.ErrRateLimitExceeded), in.TempID)
	default:
		g.logger.Debug().Str("session_id", s.ID()).Str("msg_type", in.Type).Msg("throttled event dropped")
	}
}

func (g *Gateway) decode(entry Entry, in Inbound, dst any) bool {
	if len(in.Payload) == 0 {
		g.logger.Warn().Int64("user_id", entry.UserID).Str("msg_type", in.Type).Msg("event without payload")
		return false
	}
	if err := json.Unmarshal(in.Payload, dst); err != nil {
		g.logger.Warn().Err(err).Int64("user_id", entry.UserID).Str("msg_type", in.Type).Msg("invalid event payload")
		return false
	}
	return true
}

// DeliverLocal hands an event relayed from another process to the local session of userID.
func (g *Gateway) DeliverLocal(userID int64, event string, payload json.RawMessage) {
	s, ok := g.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := s.Send(event, payload); err != nil {
		g.logger.Warn().Err(err).Int64("user_id", userID).Str("event", event).Msg("relayed event not queued")
		return
	}
	g.metrics.delivered("relay_in")
}

// JoinGroup subscribes the live session of userID to the group's channel.
func (g *Gateway) JoinGroup(userID, groupID int64) {
	if s, ok := g.registry.Lookup(userID); ok {
		g.channels.Join(GroupChannel(groupID), s)
	}
}

// LeaveGroup unsubscribes the live session of userID from the group's channel.
func (g *Gateway) LeaveGroup(userID, groupID int64) {
	if s, ok := g.registry.Lookup(userID); ok {
		g.channels.Leave(GroupChannel(groupID), s.ID())
	}
}

// Shutdown closes every live session with CloseGoingAway. Disconnect callbacks still run
// as each connection winds down.
func (g *Gateway) Shutdown(ctx context.Context) {
	closed := 0
	g.registry.Range(func(e Entry) bool {
		e.Session.Close(CloseGoingAway, "server shutting down")
		closed++
		return ctx.Err() == nil
	})

	g.logger.Info().Int("sessions", closed).Msg("gateway shut down")
}

// push delivers event to userID: locally when connected here, else through the relay.
// It reports whether the event left this process or reached a local session.
func (g *Gateway) push(userID int64, event string, payload any) bool {
	if s, ok := g.registry.Lookup(userID); ok {
		if err := s.Send(event, payload); err != nil {
			g.logger.Warn().Err(err).Int64("user_id", userID).Str("event", event).Msg("push not queued")
			return false
		}
		g.metrics.delivered("local")
		return true
	}

	if g.relay == nil {
		return false
	}

	if err := g.relay.Publish(userID, event, payload); err != nil {
		g.logger.Warn().Err(err).Int64("user_id", userID).Str("event", event).Msg("relay publish failed")
		return false
	}
	g.metrics.delivered("relay_out")
	return true
}

func (g *Gateway) send(s Session, event string, payload any) {
	if err := s.Send(event, payload); err != nil {
		g.logger.Warn().Err(err).Str("session_id", s.ID()).Str("event", event).Msg("event not queued")
	}
}

// sendWait queues with backpressure when s supports it.
func (g *Gateway) sendWait(ctx context.Context, s Session, event string, payload any) error {
	if bs, ok := s.(BlockingSender); ok {
		return bs.SendWait(ctx, event, payload)
	}
	return s.Send(event, payload)
}

func (g *Gateway) sendError(s Session, event string, customErr *errs.CustomError, tempID string) {
	g.send(s, event, ErrorPayload{Code: customErr.Code, Message: customErr.Message, TempID: tempID})
}

// storeCtx bounds a store call by the configured timeout.
func (g *Gateway) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.storeTimeout)
}
