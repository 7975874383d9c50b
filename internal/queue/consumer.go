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
)

// DefaultLogPath is where the consumer appends one line per event.
const DefaultLogPath = "logs/reservations.log"

// Consumer reads reservation events from RabbitMQ and appends them to a
// log file.
type Consumer struct {
    URL     string
    Queue   string
    LogPath string
    Logger  *slog.Logger
}

// NewConsumer returns a consumer of ReservationQueue writing to DefaultLogPath.
func NewConsumer(url string, logger *slog.Logger) *Consumer {
    if logger == nil {
        logger = slog.Default()
    }
    return &Consumer{URL: url, Queue: ReservationQueue, LogPath: DefaultLogPath, Logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a dropped connection is
// re-established.  Messages that cannot be handled are rejected without
// requeue so a bad payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.Warn("reservation-consumer: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Logger.Warn("reservation-consumer: consume loop ended; reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.Warn("reservation-consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
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
            if err := c.Handle(d.Body); err != nil {
                c.Logger.Error("reservation-consumer: handle message failed", "err", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event without type or reservation id")
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single log line terminated by a newline.
func FormatLine(ev ReservationEvent) string {
    return fmt.Sprintf("[%s] %s | reservation_id=%d | space_id=%d | date=%s | slot=%s-%s | status_id=%d\n",
        ev.OccurredAt, ev.Type, ev.ReservationID, ev.SpaceID, ev.Date, ev.StartTime, ev.EndTime, ev.StatusID)
}
