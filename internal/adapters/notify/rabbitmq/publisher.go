package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shelter-partner/internal/domain/animals"
)

const DefaultExchange = "shelter.events"

// channel es lo que usamos de *amqp.Channel (permite fakes en tests).
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publica los resultados de check-in en un exchange topic.
// Implementa animals.Notifier.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type visitMessage struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

type checkInMessage struct {
	Outcome    animals.Outcome `json:"outcome"`
	SocietyID  string          `json:"society_id"`
	AnimalType string          `json:"animal_type"`
	AnimalID   string          `json:"animal_id"`
	Visit      *visitMessage   `json:"visit,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// RoutingKey => animals.checkin.<outcome>
func RoutingKey(o animals.Outcome) string {
	return "animals.checkin." + string(o)
}

func (p *Publisher) Notify(ctx context.Context, e animals.Event) error {
	msg := checkInMessage{
		Outcome:    e.Outcome,
		SocietyID:  e.SocietyID,
		AnimalType: string(e.AnimalType),
		AnimalID:   e.AnimalID,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt.UTC(),
	}
	if e.Visit != nil {
		msg.Visit = &visitMessage{ID: e.Visit.ID, StartTime: e.Visit.StartTime, EndTime: e.Visit.EndTime}
	}
	return p.PublishJSON(ctx, RoutingKey(e.Outcome), msg)
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
