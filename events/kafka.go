package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/config"
)

const (
	defaultInboxSize = 256
	kafkaWriteWait   = 10 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher hands events to a background goroutine through a buffered
// inbox. Publish never waits on the brokers; when the inbox is full the
// event is dropped.
type KafkaPublisher struct {
	w     messageWriter
	inbox chan kafka.Message
	done  chan struct{}
	log   *logrus.Logger

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *logrus.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           kafkaWriteWait,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, log, defaultInboxSize)
}

func newKafkaPublisher(w messageWriter, log *logrus.Logger, buf int) *KafkaPublisher {
	p := &KafkaPublisher{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
		log:   log,
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.done)

	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteWait)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			p.log.WithError(err).WithField("key", string(m.Key)).Warn("Failed to write event to kafka")
		}
		cancel()
	}

	if err := p.w.Close(); err != nil {
		p.log.WithError(err).Warn("Failed to close kafka writer")
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, e Envelope) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).WithField("event_type", e.EventType).Error("Error marshaling kafka event")
		return
	}

	msg := kafka.Message{
		Key:     []byte(e.Key),
		Value:   value,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(e.EventType)}},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.inbox <- msg:
	default:
		p.log.WithField("event_type", e.EventType).Warn("Kafka inbox full, dropping event")
	}
}

// Close flushes the queued events and closes the writer.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
}
