package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// Publisher sends domain events to RabbitMQ.  The connection is opened
// lazily on first publish and reopened after a failure, so the API starts
// even when the broker is down.  Errors are logged and returned; callers
// are free to ignore them.
type Publisher struct {
    url string
    log zerolog.Logger

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    declared map[string]bool
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
    return &Publisher{url: url, log: log, declared: map[string]bool{}}
}

func (p *Publisher) LeadCreated(ctx context.Context, ev LeadCreatedEvent) error {
    return p.publish(ctx, LeadCreatedQueue, ev)
}

func (p *Publisher) CarModerated(ctx context.Context, ev CarModeratedEvent) error {
    return p.publish(ctx, CarModeratedQueue, ev)
}

const dialTimeout = 3 * time.Second

// dial connects with a bounded TCP handshake so a dead broker cannot stall
// a request that publishes.
func dial(url string) (*amqp.Connection, error) {
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout),
    })
}

func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// reset drops the current connection; the caller holds p.mu.
func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
    p.declared = map[string]bool{}
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
    body, err := json.Marshal(event)
    if err != nil {
        p.log.Error().Err(err).Str("queue", queue).Msg("rabbitmq: marshal event failed")
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        p.log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: connect failed")
        return err
    }
    if !p.declared[queue] {
        // Durable so messages survive broker restarts.
        if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
            p.log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: queue declare failed")
            p.reset()
            return err
        }
        p.declared[queue] = true
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        p.log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
        p.reset()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// Nop is the publisher used when events are disabled.
type Nop struct{}

func (Nop) LeadCreated(context.Context, LeadCreatedEvent) error   { return nil }
func (Nop) CarModerated(context.Context, CarModeratedEvent) error { return nil }
