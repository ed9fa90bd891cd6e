package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// NotificationFile is the file, relative to the consumer's directory, that
// receives one line per consumed event.
const NotificationFile = "notifications.log"

// Consumer listens on the event queues and appends a human readable line
// per message to Dir/notifications.log.  Staff tail that file; there is no
// outbound email or SMS.
type Consumer struct {
    URL string
    Dir string
    Log zerolog.Logger

    mu sync.Mutex // serializes writes to the notification file
}

func NewConsumer(url, dir string, log zerolog.Logger) *Consumer {
    if dir == "" {
        dir = "logs"
    }
    return &Consumer{URL: url, Dir: dir, Log: log}
}

// Run dials the broker and consumes until ctx is cancelled.  Connection
// failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := dial(c.URL)
        if err != nil {
            c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("notification-consumer: failed to dial broker")
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn().Err(err).Msg("notification-consumer: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn().Err(err).Msg("notification-consumer: set QoS failed")
    }

    type source struct {
        queue string
        msgs  <-chan amqp.Delivery
    }
    var sources []source
    for _, q := range []string{LeadCreatedQueue, CarModeratedQueue} {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        sources = append(sources, source{queue: q, msgs: msgs})
    }

    leads, moderated := sources[0].msgs, sources[1].msgs
    for {
        var (
            d     amqp.Delivery
            ok    bool
            queue string
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-leads:
            queue = LeadCreatedQueue
        case d, ok = <-moderated:
            queue = CarModeratedQueue
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := c.Handle(queue, d.Body); err != nil {
            c.Log.Error().Err(err).Str("queue", queue).Msg("notification-consumer: handle message failed")
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
}

// Handle decodes one message from queue and appends its notification line.
func (c *Consumer) Handle(queue string, body []byte) error {
    line, err := FormatNotification(queue, body)
    if err != nil {
        return err
    }

    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(c.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.Dir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.Dir, NotificationFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatNotification renders a message body as a single log line ending in
// a newline.
func FormatNotification(queue string, body []byte) (string, error) {
    switch queue {
    case LeadCreatedQueue:
        var ev LeadCreatedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] New lead | lead_id=%d | car_id=%d | car=%q | price=%.2f | name=%q | phone=%q | email=%q\n",
            ev.CreatedAt, ev.LeadID, ev.CarID, ev.CarTitle, ev.CarPrice, ev.Name, ev.Phone, ev.Email), nil
    case CarModeratedQueue:
        var ev CarModeratedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Car moderated | car_id=%d | car=%q | owner_id=%d | owner_email=%q | status=%s | comment=%q\n",
            ev.ModeratedAt, ev.CarID, ev.Title, ev.OwnerID, ev.OwnerEmail, ev.ModerationStatus, ev.Comment), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}
