package queue

import (
    "context"
    "encoding/json"
    "errors"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ReservationQueue is the durable queue reservation events are routed to.
const ReservationQueue = "reservation.events"

// Publisher delivers reservation events somewhere.
type Publisher interface {
    Publish(ctx context.Context, ev ReservationEvent) error
}

// AMQPPublisher publishes events to RabbitMQ through the default exchange.
// A connection is dialled per event; reservation writes are infrequent
// enough that pooling is not worth the reconnect handling.
type AMQPPublisher struct {
    URL    string
    Queue  string
    Logger *slog.Logger
}

// NewAMQPPublisher returns a publisher for url targeting ReservationQueue.
func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &AMQPPublisher{URL: url, Queue: ReservationQueue, Logger: logger}
}

// Publish declares the queue (idempotent) and sends ev as a persistent
// JSON message.  Errors are logged and returned.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warn("rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warn("rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        p.Logger.Warn("rabbitmq: queue declare failed", "err", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        p.Logger.Warn("rabbitmq: publish failed", "err", err, "type", ev.Type)
        return err
    }
    return nil
}

// Fanout publishes every event to each publisher in order.  A failing
// publisher does not stop the others; all errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev ReservationEvent) error {
    var errs []error
    for _, p := range f {
        if p == nil {
            continue
        }
        if err := p.Publish(ctx, ev); err != nil {
            errs = append(errs, err)
        }
    }
    return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev ReservationEvent) error

func (f PublisherFunc) Publish(ctx context.Context, ev ReservationEvent) error { return f(ctx, ev) }
