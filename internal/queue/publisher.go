package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/sponge-stock-api/internal/notify"
)

// Publisher sends JSON messages to durable queues on the default exchange.
// Each publish dials its own connection, so a broker outage never leaves a
// broken channel behind.  Errors are logged and returned so callers can
// ignore them without interrupting the request.
type Publisher struct {
    url string
    log *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) *Publisher {
    return &Publisher{url: url, log: logger}
}

// PublishMovement sends a StockMovementRecorded event.
func (p *Publisher) PublishMovement(ctx context.Context, ev StockMovementRecorded) error {
    return p.publish(ctx, MovementQueue, ev)
}

// Deliver queues a notification for the alert consumer, making Publisher a
// notify.Sink.
func (p *Publisher) Deliver(ctx context.Context, m notify.Message) error {
    return p.publish(ctx, AlertQueue, m)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Error("rabbitmq: dial failed", "queue", queue, "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Error("rabbitmq: channel open failed", "queue", queue, "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        p.log.Error("rabbitmq: queue declare failed", "queue", queue, "err", err)
        return err
    }

    body, err := json.Marshal(v)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        p.log.Error("rabbitmq: publish failed", "queue", queue, "err", err)
        return err
    }
    return nil
}
