package queue

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns nil when no broker is configured. SASL/TLS is used only when
// credentials are given.
func NewProducer(broker, topic, username, password string) *Producer {
	if broker == "" {
		return nil
	}

	transport := &kafka.Transport{}
	if username != "" {
		transport.SASL = plain.Mechanism{
			Username: username,
			Password: password,
		}
		transport.TLS = &tls.Config{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// PublishMessage writes one message. Records with the same key land on the same
// partition, which keeps a note's events in order for consumers.
func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		log.Warn("kafka producer not ready - skip publish")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
