package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *recorder) Publish(_ context.Context, e Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiFansOutAndStampsProducer(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMulti("zemen-backend", a, b, Nop{})

	m.Publish(context.Background(), New(OrderCreated, "1", map[string]int{"id": 1}))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "zemen-backend", a.events[0].Producer)
	assert.Equal(t, OrderCreated, b.events[0].EventType)
	assert.NotEmpty(t, a.events[0].EventID)
}

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub(quietLogger())
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, "admin")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), New(ReservationCreated, "3", map[string]string{"name": "Selam"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		EventType string            `json:"event_type"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ReservationCreated, got.EventType)
	assert.Equal(t, "Selam", got.Data["name"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsStalledClientWithoutBlocking(t *testing.T) {
	hub := NewHub(quietLogger())
	// no writer goroutine drains this client
	stalled := &client{username: "slow", send: make(chan []byte, 1)}
	hub.clients[stalled] = struct{}{}

	done := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), New(OrderCreated, "1", nil))
		hub.Publish(context.Background(), New(OrderCreated, "2", nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stalled client")
	}
	assert.Zero(t, hub.Count())

	_, open := <-stalled.send
	assert.True(t, open, "queued event is still readable")
	_, open = <-stalled.send
	assert.False(t, open, "send channel closed on drop")
}

func TestHubCloseSendsGoingAway(t *testing.T) {
	hub := NewHub(quietLogger())
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, "admin")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.Count())
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	block    chan struct{}
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedMessages(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, quietLogger(), 8)

	p.Publish(context.Background(), New(OrderCreated, "42", map[string]int{"id": 42}))
	p.Publish(context.Background(), New(OrderStatusChanged, "42", map[string]string{"status": "confirmed"}))
	p.Close()

	require.Len(t, w.messages, 2)
	assert.True(t, w.closed)
	assert.Equal(t, []byte("42"), w.messages[0].Key)
	assert.Equal(t, "event_type", w.messages[1].Headers[0].Key)
	assert.Equal(t, []byte(OrderStatusChanged), w.messages[1].Headers[0].Value)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &env))
	assert.Equal(t, OrderCreated, env.EventType)

	// publishing after close is a no-op
	p.Publish(context.Background(), New(OrderCreated, "43", nil))
	assert.Len(t, w.messages, 2)
}

func TestKafkaPublisherDropsWhenInboxFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	p := newKafkaPublisher(w, quietLogger(), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			p.Publish(context.Background(), New(OrderCreated, "1", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full inbox")
	}

	close(w.block)
	p.Close()
	assert.LessOrEqual(t, len(w.messages), 2)
	assert.GreaterOrEqual(t, len(w.messages), 1)
}

func TestKafkaPublisherSurvivesWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, quietLogger(), 4)

	p.Publish(context.Background(), New(OrderCreated, "1", nil))
	p.Publish(context.Background(), New(OrderCreated, "2", nil))
	p.Close()

	assert.Len(t, w.messages, 2)
}
