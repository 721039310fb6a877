package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyLoanCreated       = "loan.created"
	routingKeyPaymentRegistered = "loan.payment.registered"
	routingKeyLoanDefaulted     = "loan.defaulted"
	routingKeyClientCreated     = "client.created"
	publisherAppID              = "crediflow"
)

type Publisher interface {
	PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error
	PublishPaymentRegistered(ctx context.Context, event PaymentRegisteredEvent) error
	PublishLoanDefaulted(ctx context.Context, event LoanDefaultedEvent) error
	PublishClientCreated(ctx context.Context, event ClientCreatedEvent) error
}

// NoopPublisher is used when no broker is configured. The loan and client
// services never depend on a broker being present.
type NoopPublisher struct{}

func (NoopPublisher) PublishLoanCreated(context.Context, LoanCreatedEvent) error { return nil }
func (NoopPublisher) PublishPaymentRegistered(context.Context, PaymentRegisteredEvent) error {
	return nil
}
func (NoopPublisher) PublishLoanDefaulted(context.Context, LoanDefaultedEvent) error { return nil }
func (NoopPublisher) PublishClientCreated(context.Context, ClientCreatedEvent) error { return nil }

type RabbitMQPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

func NewRabbitMQPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (Publisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = channel.PublishWithContext(ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			AppId:        publisherAppID,
			Body:         body,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish event", slog.Any("error", err))
		return fmt.Errorf("failed to publish event to exchange '%s': %w", p.exchangeName, err)
	}

	logCtx.InfoContext(ctx, "Event published")
	return nil
}

func (p *RabbitMQPublisher) PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error {
	return p.publish(ctx, routingKeyLoanCreated, event)
}

func (p *RabbitMQPublisher) PublishPaymentRegistered(ctx context.Context, event PaymentRegisteredEvent) error {
	return p.publish(ctx, routingKeyPaymentRegistered, event)
}

func (p *RabbitMQPublisher) PublishLoanDefaulted(ctx context.Context, event LoanDefaultedEvent) error {
	return p.publish(ctx, routingKeyLoanDefaulted, event)
}

func (p *RabbitMQPublisher) PublishClientCreated(ctx context.Context, event ClientCreatedEvent) error {
	return p.publish(ctx, routingKeyClientCreated, event)
}
