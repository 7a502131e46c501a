// README: Kafka audit pipeline for order lifecycle events.
package audit

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"gswash/internal/modules/order"
)

// Publisher mirrors every order lifecycle event onto a Kafka topic for
// downstream analytics. Best-effort: the order write already succeeded,
// so publish failures are logged and dropped, never surfaced.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{producer: prod, topic: topic, log: log}, nil
}

type auditEvent struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderChanged implements the order service's Publisher.
func (p *Publisher) OrderChanged(e order.Event) {
	ev := auditEvent{
		OrderID:    e.OrderID,
		CustomerID: string(e.CustomerID),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorType:  e.ActorType,
		OccurredAt: e.CreatedAt,
	}
	if e.ActorID != nil {
		ev.ActorID = string(*e.ActorID)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("audit event marshal failed", zap.Error(err))
		return
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.OrderID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		p.log.Warn("audit publish failed", zap.String("order_id", e.OrderID), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
