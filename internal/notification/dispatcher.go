package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bishalstha/chat-api/internal/config"
	"github.com/bishalstha/chat-api/internal/models"
)

// Notifier is the contract the API layer calls after a state change commits.
// Implementations must never block the caller on network I/O and must never
// surface transport failures to it.
type Notifier interface {
	Notify(recipientID int64, event models.NotificationEvent)
}

// Transport performs one blocking publish attempt. Implemented by Publisher.
type Transport interface {
	Publish(topic string, payload []byte) error
}

// Dispatcher translates committed domain events into (topic, payload) pairs
// and hands each to the transport on its own goroutine. Attempts are tracked
// so Shutdown can drain in-flight publishes; there is no dedup, batching,
// retry, or ordering across attempts.
type Dispatcher struct {
	transport Transport
	namespace string
	logger    zerolog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func NewDispatcher(transport Transport, cfg config.BrokerConfig, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		namespace: cfg.Namespace,
		logger:    logger.With().Str("component", "notification_dispatcher").Logger(),
	}
}

// Topic derives the per-recipient topic: <namespace>/user/<recipient_id>.
// The namespace prefix is the only tenancy isolation on the shared broker.
func (d *Dispatcher) Topic(recipientID int64) string {
	return fmt.Sprintf("%s/user/%d", d.namespace, recipientID)
}

// Notify schedules exactly one publish attempt for event on the recipient's
// topic and returns immediately. Transport failures stay on the background
// goroutine and are reported through logs and counters only.
func (d *Dispatcher) Notify(recipientID int64, event models.NotificationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		// Unreachable for the fixed event shapes; a failure here is a
		// programming error, not a transport problem.
		d.logger.Error().Err(err).
			Str("event_type", event.EventType()).
			Int64("recipient_id", recipientID).
			Msg("failed to encode notification payload")
		return
	}
	topic := d.Topic(recipientID)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn().
			Str("topic", topic).
			Str("event_type", event.EventType()).
			Msg("dispatcher closed, dropping notification")
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	eventType := event.EventType()
	go func() {
		defer d.wg.Done()
		publishAttempts.Inc()

		err := d.transport.Publish(topic, payload)
		switch {
		case err == nil:
			publishSuccesses.Inc()
		case errors.Is(err, ErrAckTimeout):
			publishTimeouts.Inc()
			d.logger.Warn().Err(err).
				Str("topic", topic).
				Str("event_type", eventType).
				Msg("notification publish timed out")
		default:
			publishErrors.Inc()
			d.logger.Error().Err(err).
				Str("topic", topic).
				Str("event_type", eventType).
				Msg("notification publish failed")
		}
	}()
}

// Shutdown stops accepting new notifications and waits for in-flight publish
// attempts until ctx expires. Attempts still running at that point keep
// their sessions' own timeouts; they are not cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
