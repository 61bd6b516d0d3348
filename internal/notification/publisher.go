package notification

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bishalstha/chat-api/internal/config"
)

// ErrAckTimeout is returned when the broker does not acknowledge a QoS 1
// publish within the configured ack timeout. The message may still have been
// delivered; delivery is best effort.
var ErrAckTimeout = errors.New("broker acknowledgment timed out")

// session is the slice of the paho client used for one publish attempt.
// mqtt.Client satisfies it; tests substitute a stub broker.
type session interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesceMs uint)
}

// Publisher delivers one message per call over a short-lived MQTT session.
// Every attempt gets its own connection and a freshly generated client id so
// concurrent publishes never share broker-side identity. The session is torn
// down on every exit path.
type Publisher struct {
	cfg        config.BrokerConfig
	logger     zerolog.Logger
	newSession func(clientID string) session
}

func NewPublisher(cfg config.BrokerConfig, logger zerolog.Logger) *Publisher {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	return &Publisher{
		cfg:    cfg,
		logger: logger.With().Str("component", "mqtt_publisher").Logger(),
		newSession: func(clientID string) session {
			opts := mqtt.NewClientOptions().
				AddBroker(addr).
				SetClientID(clientID).
				SetCleanSession(true).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetAutoReconnect(false)
			return mqtt.NewClient(opts)
		},
	}
}

// Publish connects, delivers a single message to topic, and disconnects.
// With the acknowledged policy it waits up to AckTimeout for the broker ack
// and returns ErrAckTimeout if none arrives before the session is closed.
func (p *Publisher) Publish(topic string, payload []byte) error {
	clientID := fmt.Sprintf("%s-%s", p.cfg.ClientPrefix, uuid.NewString()[:8])
	sess := p.newSession(clientID)
	defer sess.Disconnect(disconnectQuiesceMs)

	if token := sess.Connect(); !token.WaitTimeout(p.cfg.ConnectTimeout) {
		return errors.Errorf("connect to %s:%d timed out", p.cfg.Host, p.cfg.Port)
	} else if err := token.Error(); err != nil {
		return errors.Wrapf(err, "connect to %s:%d", p.cfg.Host, p.cfg.Port)
	}

	token := sess.Publish(topic, p.qos(), false, payload)
	if p.cfg.QoS == config.QoSAcknowledged {
		if !token.WaitTimeout(p.cfg.AckTimeout) {
			p.logger.Warn().
				Str("topic", topic).
				Str("client_id", clientID).
				Dur("ack_timeout", p.cfg.AckTimeout).
				Msg("no broker acknowledgment before timeout, closing session")
			return ErrAckTimeout
		}
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}

	p.logger.Debug().
		Str("topic", topic).
		Str("client_id", clientID).
		Int("payload_bytes", len(payload)).
		Msg("published")
	return nil
}

func (p *Publisher) qos() byte {
	if p.cfg.QoS == config.QoSAcknowledged {
		return 1
	}
	return 0
}

// disconnectQuiesceMs gives paho a moment to flush outbound work before the
// network connection is dropped.
const disconnectQuiesceMs = 250
