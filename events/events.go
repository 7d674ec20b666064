// Package events carries domain events from the services to the admin live
// feed and, when configured, to Kafka.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated             = "order.created"
	OrderStatusChanged       = "order.status_changed"
	ReservationCreated       = "reservation.created"
	ReservationStatusChanged = "reservation.status_changed"
)

type Envelope struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Producer   string      `json:"producer"`
	Data       interface{} `json:"data"`

	// Key orders events of one entity on the same partition.
	Key string `json:"-"`
}

func New(eventType, key string, data interface{}) Envelope {
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
		Key:        key,
	}
}

// Publisher delivers an event on a best-effort basis. Implementations log
// their own failures and never block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, e Envelope)
}

// Multi stamps the producer name and fans an event out to every publisher.
type Multi struct {
	producer   string
	publishers []Publisher
}

func NewMulti(producer string, publishers ...Publisher) *Multi {
	return &Multi{producer: producer, publishers: publishers}
}

func (m *Multi) Publish(ctx context.Context, e Envelope) {
	if e.Producer == "" {
		e.Producer = m.producer
	}
	for _, p := range m.publishers {
		p.Publish(ctx, e)
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Envelope) {}
