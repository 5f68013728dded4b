package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"
)

// StartPrizeConsumer connects to RabbitMQ, declares the prize.awarded queue
// (durable), and starts consuming events.  Each event is appended to
// logs/prizes.log as a single human-readable line, giving operators an
// append-only award trail outside the database.  The function runs a
// reconnect loop and never returns under normal operation; processing
// errors reject the offending message without requeueing so a poison
// message cannot wedge the loop.
func StartPrizeConsumer() {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("prize-consumer: dial failed")
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Warn().Err(err).Msg("prize-consumer: consume loop ended, reconnecting")
            time.Sleep(2 * time.Second)
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn().Err(err).Msg("prize-consumer: set QoS failed")
    }

    if _, err := ch.QueueDeclare(prizeQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(prizeQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := archiveEvent(d.Body); err != nil {
            log.Warn().Err(err).Msg("prize-consumer: handle message failed")
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func archiveEvent(body []byte) error {
    var ev PrizeAwardedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "prizes.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Prize awarded | spin_id=%s | code_hash=%s | client_hash=%s | prize=%d cents\n",
        ev.AwardedAt, ev.SpinID, ev.CodeHash, ev.ClientHash, ev.PrizeCents)

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
