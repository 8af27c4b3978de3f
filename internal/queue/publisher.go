package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends MovieEvents to a durable queue on the default exchange.
// Each Publish dials its own connection so that no broker state is shared
// between requests; messages are marked persistent.
type Publisher struct {
    URL     string
    Queue   string
    Timeout time.Duration
}

func NewPublisher(url, queue string, timeout time.Duration) *Publisher {
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &Publisher{URL: url, Queue: queue, Timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, ev MovieEvent) error {
    ctx, cancel := context.WithTimeout(ctx, p.Timeout)
    defer cancel()

    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.Timeout)})
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := declare(ch, p.Queue); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    return ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Type:         ev.Action,
            Body:         body,
        })
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
    if err != nil {
        return q, fmt.Errorf("queue declare: %w", err)
    }
    return q, nil
}
