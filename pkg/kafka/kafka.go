package kafka

import (
	"context"
	"time"

	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
)

const BorrowingsTopic = "library.borrowings"

type Config struct {
	// Addrs is empty when event publishing is disabled.
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

type EventType string

const EventBookBorrowed EventType = "book.borrowed"

type EventBorrowed struct {
	EventType  EventType `json:"event_type"`
	RecordID   int64     `json:"record_id"`
	BookID     int64     `json:"book_id"`
	BorrowerID int64     `json:"borrower_id"`
	BorrowDate time.Time `json:"borrow_date"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
}

func NewPublisher(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker) *Publisher {
	return &Publisher{
		producer: producer,
		cb:       cb,
	}
}

// Publish sends v as a JSON message. Calls are rejected without touching the
// broker while the circuit breaker is open.
func (p *Publisher) Publish(ctx context.Context, topic, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
