package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"docrequest/internal/domain"

	"github.com/streadway/amqp"
)

type stubPublisher struct {
	calls int
	last  amqp.Publishing
	key   string
}

func (s *stubPublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	s.calls++
	s.last = msg
	s.key = key
	return nil
}

type stubAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (s *stubAck) Ack(tag uint64, multiple bool) error { s.acked++; return nil }
func (s *stubAck) Nack(tag uint64, multiple bool, requeue bool) error {
	s.nacked++
	s.requeue = requeue
	return nil
}
func (s *stubAck) Reject(tag uint64, requeue bool) error { return nil }

type stubSender struct {
	err  error
	sent []domain.EmailMessage
}

func (s *stubSender) SendEmail(_ context.Context, msg domain.EmailMessage) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *stubSender) ArchiveFile(context.Context, domain.ArchiveRequest) (domain.ArchiveResult, error) {
	return domain.ArchiveResult{Path: "/p"}, nil
}

func TestQueuePublishesPersistentJSON(t *testing.T) {
	pub := &stubPublisher{}
	q := &Queue{pub: pub, name: DefaultQueue, Archiver: &stubSender{}}
	if err := q.SendEmail(context.Background(), domain.EmailMessage{Kind: domain.EmailReminder, To: "a@example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if pub.calls != 1 || pub.key != DefaultQueue {
		t.Fatalf("expected one publish to %s, got %d to %s", DefaultQueue, pub.calls, pub.key)
	}
	if pub.last.DeliveryMode != amqp.Persistent || pub.last.ContentType != "application/json" {
		t.Fatalf("unexpected publishing %+v", pub.last)
	}
	var msg domain.EmailMessage
	if err := json.Unmarshal(pub.last.Body, &msg); err != nil || msg.To != "a@example.com" {
		t.Fatalf("unexpected body %s", pub.last.Body)
	}
	result, err := q.ArchiveFile(context.Background(), domain.ArchiveRequest{})
	if err != nil || result.Path != "/p" {
		t.Fatalf("expected archive to go through archiver, got %+v %v", result, err)
	}
}

func TestDeliverAcksAndRequeuesOnce(t *testing.T) {
	body, _ := json.Marshal(domain.EmailMessage{To: "a@example.com", RequestID: "r1"})

	ack := &stubAck{}
	deliver(context.Background(), body, false, ack, 1, &stubSender{})
	if ack.acked != 1 {
		t.Fatalf("expected ack on success")
	}

	ack = &stubAck{}
	deliver(context.Background(), body, false, ack, 1, &stubSender{err: errors.New("down")})
	if ack.nacked != 1 || !ack.requeue {
		t.Fatalf("expected requeue on first failure")
	}

	ack = &stubAck{}
	deliver(context.Background(), body, true, ack, 1, &stubSender{err: errors.New("down")})
	if ack.nacked != 1 || ack.requeue {
		t.Fatalf("expected drop on redelivered failure")
	}

	ack = &stubAck{}
	deliver(context.Background(), []byte("{"), false, ack, 1, &stubSender{})
	if ack.acked != 1 {
		t.Fatalf("expected malformed message acked")
	}
}
