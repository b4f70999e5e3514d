package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditFile is the file, under the consumer's log directory, that events
// are appended to.
const AuditFile = "seating.log"

// StartSeatingConsumer connects to RabbitMQ, declares the seating queue
// (durable) and appends every event to logDir/seating.log as one line.  It
// reconnects with backoff until ctx is cancelled.  Messages that cannot be
// decoded or written are rejected without requeue so one bad message does
// not block the queue.
func StartSeatingConsumer(ctx context.Context, url, logDir string, log *zap.Logger) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("seating consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("seating consumer: loop ended, reconnecting", zap.Error(err))
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("seating consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(SeatingQueueName, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}
	msgs, err := ch.Consume(SeatingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(logDir, d.Body); err != nil {
				log.Warn("seating consumer: message rejected", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line.
func HandleMessage(logDir string, body []byte) error {
	var ev SeatingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if ev.Type == "" || ev.CourseID == 0 {
		return errors.New("event is missing type or course_id")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir logs")
	}
	f, err := os.OpenFile(filepath.Join(logDir, AuditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return errors.Wrap(err, "write log")
	}
	return nil
}

// FormatLine renders an event as a single newline-terminated audit line.
func FormatLine(ev SeatingEvent) string {
	parts := []string{
		fmt.Sprintf("[%s] %s", ev.OccurredAt, ev.Type),
		"event_id=" + ev.ID,
		fmt.Sprintf("course_id=%d", ev.CourseID),
		fmt.Sprintf("actor_id=%d", ev.ActorID),
	}
	if ev.UserID != nil {
		parts = append(parts, fmt.Sprintf("user_id=%d", *ev.UserID))
	}
	if ev.Layout != "" {
		parts = append(parts, fmt.Sprintf("layout=%q", ev.Layout))
	}
	if ev.Locked != nil {
		parts = append(parts, fmt.Sprintf("locked=%t", *ev.Locked))
	}
	if ev.Seats > 0 {
		parts = append(parts, fmt.Sprintf("seats=%d", ev.Seats))
	}
	if ev.Delta != 0 {
		parts = append(parts, fmt.Sprintf("delta=%+d", ev.Delta))
	}
	if ev.Total != nil {
		parts = append(parts, fmt.Sprintf("total=%d", *ev.Total))
	}
	return strings.Join(parts, " | ") + "\n"
}
