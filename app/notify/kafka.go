package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tkivela/dealwatch/app/alert"
)

// KafkaNotifier publishes finding events to a topic, for downstream consumers
// that do their own delivery. The topic is configured globally; the per-alert
// channel target is not used.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (n *KafkaNotifier) Channel() string {
	return "kafka"
}

type kafkaEvent struct {
	AlertID   string        `json:"alert_id"`
	AlertName string        `json:"alert_name"`
	Finding   alert.Finding `json:"finding"`
}

func (n *KafkaNotifier) Send(ctx context.Context, a alert.Alert, f alert.Finding) error {
	payload, err := json.Marshal(kafkaEvent{
		AlertID:   a.ID,
		AlertName: a.Name,
		Finding:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal finding event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(f.Fingerprint),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish finding event: %w", err)
	}

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
