package chat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"chatlink/internal/pkg/logx"
)

type metrics struct {
	persisted     metric.Int64Counter
	deliveries    metric.Int64Counter
	evictions     metric.Int64Counter
	storeFailures metric.Int64Counter
	replayed      metric.Int64Counter
}

func newMetrics(meter metric.Meter, registry Registry) *metrics {
	if meter == nil {
		meter = otel.Meter("chatlink/chat")
	}
	logger := logx.Component("metrics")

	// counter falls back to a no-op instrument so a broken meter never breaks delivery.
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error().Err(err).Str("instrument", name).Msg("failed to create counter")
			c, _ = noop.NewMeterProvider().Meter("chatlink/chat").Int64Counter(name)
		}
		return c
	}

	m := &metrics{
		persisted:     counter("chat_messages_persisted_total", "Messages durably stored, by kind"),
		deliveries:    counter("chat_deliveries_total", "Events pushed to recipients, by path"),
		evictions:     counter("chat_session_evictions_total", "Sessions replaced by a newer connection of the same user"),
		storeFailures: counter("chat_store_failures_total", "Failed store calls, by operation"),
		replayed:      counter("chat_backlog_replayed_total", "Unread messages replayed on connect"),
	}

	online, err := meter.Int64ObservableGauge("chat_online_users",
		metric.WithDescription("Users with a live session on this process"))
	if err != nil {
		logger.Error().Err(err).Str("instrument", "chat_online_users").Msg("failed to create gauge")
		return m
	}

	if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(online, int64(registry.Count()))
		return nil
	}, online); err != nil {
		logger.Error().Err(err).Msg("failed to register online users callback")
	}

	return m
}

func (m *metrics) messagePersisted(kind string) {
	m.persisted.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *metrics) delivered(path string) {
	m.deliveries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("path", path)))
}

func (m *metrics) storeFailed(op string) {
	m.storeFailures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", op)))
}
