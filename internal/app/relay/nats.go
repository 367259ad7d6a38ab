/*
Package relay forwards realtime events between chatlink processes over NATS.

Each process publishes events for users it cannot reach locally to chatlink.deliver.<userId>
and subscribes to chatlink.deliver.* to pick up events for users connected to it. Delivery is
best effort: persisted messages still reach offline users through backlog replay.
*/
package relay

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"chatlink/internal/pkg/logx"
)

const subjectPrefix = "chatlink.deliver."

// Envelope is the wire form of a relayed event.
type Envelope struct {
	Origin  string          `json:"origin"`
	UserID  int64           `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// DeliverFunc hands a relayed event to the local gateway.
type DeliverFunc func(userID int64, event string, payload json.RawMessage)

// NATS is a relay backed by a NATS connection.
type NATS struct {
	nc     *nats.Conn
	nodeID string
	sub    *nats.Subscription
	logger zerolog.Logger
}

// Connect dials url, retrying until ctx is done. nodeID tags every publication so the
// process can ignore its own traffic.
func Connect(ctx context.Context, url, nodeID string) (*NATS, error) {
	logger := logx.Component("relay")

	var (
		nc  *nats.Conn
		err error
	)
	for attempt := 1; ; attempt++ {
		nc, err = nats.Connect(url,
			nats.Name("chatlink-"+nodeID),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn().Err(err).Msg("nats disconnected")
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
			}),
		)
		if err == nil {
			break
		}

		logger.Info().Err(err).Int("attempt", attempt).Msg("waiting for nats")

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(err, "relay: connect")
		case <-time.After(2 * time.Second):
		}
	}

	logger.Info().Str("url", nc.ConnectedUrl()).Str("node_id", nodeID).Msg("connected to nats")

	return &NATS{nc: nc, nodeID: nodeID, logger: logger}, nil
}

// Subject returns the delivery subject for userID.
func Subject(userID int64) string {
	return subjectPrefix + strconv.FormatInt(userID, 10)
}

// Publish sends event to whichever process holds userID's session.
func (r *NATS) Publish(userID int64, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "relay: encode payload")
	}

	data, err := json.Marshal(Envelope{Origin: r.nodeID, UserID: userID, Event: event, Payload: raw})
	if err != nil {
		return errors.Wrap(err, "relay: encode envelope")
	}

	if err := r.nc.Publish(Subject(userID), data); err != nil {
		return errors.Wrap(err, "relay: publish")
	}

	return nil
}

// Subscribe starts delivering events published by other processes to deliver.
func (r *NATS) Subscribe(deliver DeliverFunc) error {
	sub, err := r.nc.Subscribe(subjectPrefix+"*", func(msg *nats.Msg) {
		r.handle(msg, deliver)
	})
	if err != nil {
		return errors.Wrap(err, "relay: subscribe")
	}

	r.sub = sub
	return nil
}

func (r *NATS) handle(msg *nats.Msg, deliver DeliverFunc) {
	env, ok := decode(msg, r.nodeID)
	if !ok {
		r.logger.Debug().Str("subject", msg.Subject).Msg("relay message skipped")
		return
	}

	deliver(env.UserID, env.Event, env.Payload)
}

// decode parses msg and rejects our own publications, malformed data and subject mismatches.
func decode(msg *nats.Msg, nodeID string) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return env, false
	}

	if env.Origin == nodeID || env.Event == "" {
		return env, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(msg.Subject, subjectPrefix), 10, 64)
	if err != nil || id != env.UserID {
		return env, false
	}

	return env, true
}

// Close drains the subscription and the connection.
func (r *NATS) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if err := r.nc.Drain(); err != nil {
		r.logger.Warn().Err(err).Msg("nats drain failed")
	}
}
