package notification

import (
	"fmt"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bishalstha/chat-api/internal/config"
)

type stubToken struct {
	err      error
	timedOut bool
}

func (t *stubToken) Wait() bool                     { return !t.timedOut }
func (t *stubToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *stubToken) Error() error                   { return t.err }
func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type stubSession struct {
	mu           sync.Mutex
	connectToken *stubToken
	publishToken *stubToken

	disconnects int
	topic       string
	payload     []byte
	qos         byte
	published   bool
}

func (s *stubSession) Connect() mqtt.Token {
	return s.connectToken
}

func (s *stubSession) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = true
	s.topic = topic
	s.qos = qos
	s.payload = payload.([]byte)
	return s.publishToken
}

func (s *stubSession) Disconnect(uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func testBrokerConfig(qos string) config.BrokerConfig {
	return config.BrokerConfig{
		Host:           "broker.test",
		Port:           1883,
		Namespace:      "bishal_chat",
		ClientPrefix:   "chat_api_publisher",
		QoS:            qos,
		AckTimeout:     50 * time.Millisecond,
		ConnectTimeout: time.Second,
	}
}

func newTestPublisher(qos string, factory func(clientID string) session) *Publisher {
	p := NewPublisher(testBrokerConfig(qos), zerolog.Nop())
	p.newSession = factory
	return p
}

func TestPublishAcknowledged(t *testing.T) {
	sess := &stubSession{connectToken: &stubToken{}, publishToken: &stubToken{}}
	p := newTestPublisher(config.QoSAcknowledged, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/42", []byte(`{"type":"message_read","message_id":1}`))
	require.NoError(t, err)

	assert.True(t, sess.published)
	assert.Equal(t, "bishal_chat/user/42", sess.topic)
	assert.Equal(t, byte(1), sess.qos)
	assert.Equal(t, 1, sess.disconnects, "session must be closed exactly once")
}

func TestPublishFireAndForget(t *testing.T) {
	// The publish token never resolves; fire-and-forget must not wait on it.
	sess := &stubSession{connectToken: &stubToken{}, publishToken: &stubToken{timedOut: true}}
	p := newTestPublisher(config.QoSFireAndForget, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/5", []byte(`{"type":"message_deleted","message_id":99}`))
	require.NoError(t, err)

	assert.Equal(t, byte(0), sess.qos)
	assert.Equal(t, 1, sess.disconnects)
}

func TestPublishAckTimeoutClosesSession(t *testing.T) {
	sess := &stubSession{connectToken: &stubToken{}, publishToken: &stubToken{timedOut: true}}
	p := newTestPublisher(config.QoSAcknowledged, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/7", []byte(`{}`))
	assert.ErrorIs(t, err, ErrAckTimeout)
	assert.Equal(t, 1, sess.disconnects, "session must be closed even when the ack never arrives")
}

func TestPublishConnectErrorClosesSession(t *testing.T) {
	sess := &stubSession{connectToken: &stubToken{err: fmt.Errorf("connection refused")}}
	p := newTestPublisher(config.QoSAcknowledged, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/7", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, sess.published)
	assert.Equal(t, 1, sess.disconnects)
}

func TestPublishConnectTimeoutClosesSession(t *testing.T) {
	sess := &stubSession{connectToken: &stubToken{timedOut: true}}
	p := newTestPublisher(config.QoSAcknowledged, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/7", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Equal(t, 1, sess.disconnects)
}

func TestPublishErrorClosesSession(t *testing.T) {
	sess := &stubSession{connectToken: &stubToken{}, publishToken: &stubToken{err: fmt.Errorf("not authorized")}}
	p := newTestPublisher(config.QoSAcknowledged, func(string) session { return sess })

	err := p.Publish("bishal_chat/user/7", []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, 1, sess.disconnects)
}

func TestConcurrentAttemptsUseDistinctClientIDs(t *testing.T) {
	var mu sync.Mutex
	clientIDs := make(map[string]struct{})
	sessions := 0

	p := newTestPublisher(config.QoSAcknowledged, func(clientID string) session {
		mu.Lock()
		clientIDs[clientID] = struct{}{}
		sessions++
		mu.Unlock()
		return &stubSession{connectToken: &stubToken{}, publishToken: &stubToken{}}
	})

	const attempts = 50
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := p.Publish(fmt.Sprintf("bishal_chat/user/%d", id), []byte(`{}`))
			assert.NoError(t, err)
		}(i + 1)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, attempts, sessions, "one session per attempt")
	assert.Len(t, clientIDs, attempts, "no two attempts may share a client identity")
	for id := range clientIDs {
		assert.Contains(t, id, "chat_api_publisher-")
	}
}
