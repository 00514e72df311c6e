package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/sponge-stock-api/internal/notify"
)

// StartMovementConsumer appends one line per movement event to
// <dir>/stock.log.  It blocks until ctx is cancelled.
func StartMovementConsumer(ctx context.Context, url, dir string, logger *slog.Logger) error {
    return consume(ctx, url, MovementQueue, logger, func(_ context.Context, body []byte) error {
        return appendMovementLine(dir, body)
    })
}

// StartAlertConsumer hands every queued alert to sink.  Messages the sink
// rejects are dropped, not requeued.
func StartAlertConsumer(ctx context.Context, url string, sink notify.Sink, logger *slog.Logger) error {
    return consume(ctx, url, AlertQueue, logger, func(ctx context.Context, body []byte) error {
        return deliverAlert(ctx, sink, body)
    })
}

// consume runs a reconnect loop with exponential backoff capped at 30s.
func consume(ctx context.Context, url, queue string, logger *slog.Logger, handle func(context.Context, []byte) error) error {
    log := logger.With("consumer", queue)
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("failed to dial broker", "err", err, "retry_in", backoff.String())
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queue, log, handle)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended; reconnecting", "err", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, log *slog.Logger, handle func(context.Context, []byte) error) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handle(ctx, d.Body); err != nil {
                log.Error("handle message failed", "err", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func appendMovementLine(dir string, body []byte) error {
    var ev StockMovementRecorded
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "stock.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    createdBy := "-"
    if ev.CreatedBy != nil {
        createdBy = fmt.Sprint(*ev.CreatedBy)
    }
    flag := ""
    if ev.Critical {
        flag = " | CRITICAL"
    }
    line := fmt.Sprintf("[%s] Stock movement | entry_id=%d | sponge_id=%d | sponge=%q | type=%s | quantity=%g | balance=%g | created_by=%s%s\n",
        ev.RecordedAt, ev.EntryID, ev.SpongeID, ev.SpongeName, ev.Type, ev.Quantity, ev.Balance, createdBy, flag)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func deliverAlert(ctx context.Context, sink notify.Sink, body []byte) error {
    var m notify.Message
    if err := json.Unmarshal(body, &m); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return sink.Deliver(ctx, m)
}
