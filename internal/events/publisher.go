// Package events publishes group activity to a RabbitMQ topic exchange so
// other services can react to it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys
const (
	GroupCreated       = "group.created"
	GroupDeleted       = "group.deleted"
	GroupMemberJoined  = "group.member_joined"
	GroupMemberAdded   = "group.member_added"
	GroupMemberRemoved = "group.member_removed"
	GroupMemberLeft    = "group.member_left"
)

// Event is the JSON envelope published for every routing key
type Event struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	GroupID    int64     `json:"group_id"`
	UserID     int64     `json:"user_id,omitempty"`
	ActorID    int64     `json:"actor_id,omitempty"`
}

// NewEvent builds an event stamped with the current time
func NewEvent(routingKey string, groupID, userID, actorID int64) Event {
	return Event{
		EventType:  routingKey,
		OccurredAt: time.Now().UTC(),
		GroupID:    groupID,
		UserID:     userID,
		ActorID:    actorID,
	}
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
	Close() error
}

var publishErrorsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "studygroup_amqp_publish_errors_total",
		Help: "Total number of AMQP publish errors.",
	},
)

func init() {
	prometheus.MustRegister(publishErrorsTotal)
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is
// disabled or unreachable.
func NewPublisher(amqpURL, exchange string, log *zap.Logger) Publisher {
	if amqpURL == "" {
		log.Info("rabbitmq disabled, using noop", zap.String("reason", "empty amqp url"))
		return &noopPublisher{log: log, reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Warn("rabbitmq disabled, using noop", zap.Error(err))
		return &noopPublisher{log: log, reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq disabled, using noop", zap.Error(err))
		_ = conn.Close()
		return &noopPublisher{log: log, reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq disabled, using noop", zap.Error(err))
		_ = ch.Close()
		_ = conn.Close()
		return &noopPublisher{log: log, reason: err.Error()}
	}

	log.Info("rabbitmq connected", zap.String("exchange", exchange))
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, log: log}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		publishErrorsTotal.Inc()
		p.log.Warn("rabbitmq publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	log    *zap.Logger
	reason string
}

func (p *noopPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	p.log.Debug("rabbitmq noop publish",
		zap.String("routing_key", routingKey),
		zap.Int64("group_id", event.GroupID),
	)
	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// Noop returns a publisher that only logs at debug level
func Noop(log *zap.Logger) Publisher {
	return &noopPublisher{log: log, reason: "disabled"}
}

// Mode reports the publisher mode for logging
func Mode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}
