package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/shopadmin/core/logger"
)

// KafkaNotifier publishes resource change notifications to a Kafka topic.
// Messages are keyed by resource so that all changes to one collection
// land in the same partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier returns a notifier publishing to the given brokers and topic
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	logger.Default().Debugln("kafka notifications enabled, topic:", topic)
	return &KafkaNotifier{writer: writer}
}

// Notify implements the Notifier interface. The publish happens
// asynchronously, errors are logged and otherwise ignored.
func (n *KafkaNotifier) Notify(ctx context.Context, notification Notification) {
	rlog := logger.FromContext(ctx)
	value, err := json.Marshal(notification)
	if err != nil {
		rlog.WithError(err).Errorln("Error 5201: cannot marshal notification")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := n.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(notification.Resource),
			Value: value,
		})
		if err != nil {
			rlog.WithError(err).Errorln("Error 5202: cannot publish notification")
		}
	}()
}

// Close flushes pending messages and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
