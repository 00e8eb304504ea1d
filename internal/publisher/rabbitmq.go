package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"commerce_sync/internal/domain"
)

const (
	RoutingInventoryReconcile = "inventory.reconcile"
	RoutingSyncStatus         = "sync.status"
)

type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

type Config struct {
	URL       string
	Exchange  string
	QueueName string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{RoutingInventoryReconcile, RoutingSyncStatus} {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue to %s: %w", key, err)
		}
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
	)

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger.With("component", "publisher"),
	}, nil
}

// InventoryReconcileMessage asks downstream consumers to reconcile stock
// levels after a products export landed.
type InventoryReconcileMessage struct {
	BrandID      string    `json:"brand_id"`
	ConnectionID string    `json:"connection_id"`
	ETLJobID     string    `json:"etl_job_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type SyncStatusMessage struct {
	Status    domain.SyncStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

func (r *RabbitMQ) PublishInventoryReconcile(ctx context.Context, brandID, connectionID, etlJobID string) error {
	msg := InventoryReconcileMessage{
		BrandID:      brandID,
		ConnectionID: connectionID,
		ETLJobID:     etlJobID,
		Timestamp:    time.Now().UTC(),
	}
	if err := r.publish(ctx, RoutingInventoryReconcile, msg); err != nil {
		return err
	}

	r.logger.Debug("published inventory reconcile", "brand_id", brandID, "etl_job_id", etlJobID)
	return nil
}

func (r *RabbitMQ) PublishSyncStatus(ctx context.Context, status domain.SyncStatus) error {
	msg := SyncStatusMessage{Status: status, Timestamp: time.Now().UTC()}
	if err := r.publish(ctx, RoutingSyncStatus, msg); err != nil {
		return err
	}

	r.logger.Debug("published sync status",
		"connection_id", status.ConnectionID,
		"overall_status", status.OverallStatus,
	)
	return nil
}

func (r *RabbitMQ) publish(ctx context.Context, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         routingKey,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Noop drops every event. Used when RabbitMQ is not configured.
type Noop struct{}

func (Noop) PublishInventoryReconcile(context.Context, string, string, string) error { return nil }
func (Noop) PublishSyncStatus(context.Context, domain.SyncStatus) error           { return nil }
func (Noop) Close() error                                                         { return nil }
