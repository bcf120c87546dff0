// Package notify publishes reservation lifecycle events to RabbitMQ so the
// realtime layer can push them to clients. The publisher is optional: a nil
// *Publisher drops events silently, and publish failures never fail the
// request that produced them.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "warranty.events"

// Event 预留生命周期事件
type Event struct {
	Type          string    `json:"type"` // reservation.created / picked_up / installed / returned / cancelled
	ReservationID string    `json:"reservation_id"`
	CaseLineID    string    `json:"case_line_id"`
	Status        string    `json:"status"`
	ActorID       string    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// NewPublisher 连接 RabbitMQ 并声明事件交换机
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, logger: logger}, nil
}

// Publish 发布事件，失败只记日志不向上抛
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil || p.ch == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	err = p.ch.PublishWithContext(ctx, exchangeName, ev.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
	if err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("type", ev.Type),
			zap.String("reservation_id", ev.ReservationID),
			zap.Error(err),
		)
	}
}

// Close 关闭连接
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
