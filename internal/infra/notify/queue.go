package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"

	"github.com/streadway/amqp"
)

const DefaultQueue = "notification_emails"

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queue publishes emails to a durable AMQP queue and archives files through Archiver directly.
type Queue struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      publisher
	name     string
	Archiver usecase.NotificationGateway
}

func DialQueue(url, name string, archiver usecase.NotificationGateway) (*Queue, error) {
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	if name == "" {
		name = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Queue{conn: conn, ch: ch, pub: ch, name: q.Name, Archiver: archiver}, nil
}

func (q *Queue) SendEmail(_ context.Context, msg domain.EmailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pub.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (q *Queue) ArchiveFile(ctx context.Context, req domain.ArchiveRequest) (domain.ArchiveResult, error) {
	if q.Archiver == nil {
		return domain.ArchiveResult{}, errors.New("no archiver configured")
	}
	return q.Archiver.ArchiveFile(ctx, req)
}

// Consume delivers queued emails to sender until ctx is done. Messages are acked
// after delivery; a failed delivery is requeued once.
func (q *Queue) Consume(ctx context.Context, sender usecase.NotificationGateway) error {
	msgs, err := q.ch.Consume(
		q.name,
		"",
		false, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("notification queue closed")
			}
			handleDelivery(ctx, d, sender)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, sender usecase.NotificationGateway) {
	deliver(ctx, d.Body, d.Redelivered, d.Acknowledger, d.DeliveryTag, sender)
}

func deliver(ctx context.Context, body []byte, redelivered bool, ack amqp.Acknowledger, tag uint64, sender usecase.NotificationGateway) {
	var msg domain.EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("invalid queued notification: %v", err)
		_ = ack.Ack(tag, false)
		return
	}
	if err := sender.SendEmail(ctx, msg); err != nil {
		log.Printf("queued notification for request %s failed: %v", msg.RequestID, err)
		_ = ack.Nack(tag, false, !redelivered)
		return
	}
	_ = ack.Ack(tag, false)
}

func (q *Queue) Close() error {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

var _ usecase.NotificationGateway = (*Queue)(nil)
