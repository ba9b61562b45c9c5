package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
)

// MessageWriter es la parte de *kafka.Writer que usa el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica eventos JSON. El writer no debe fijar Topic: cada
// mensaje lleva el suyo (Topicer) o el topic por defecto.
type KafkaPublisher struct {
	writer       MessageWriter
	defaultTopic string
	log          *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, defaultTopic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, defaultTopic: defaultTopic, log: log}
}

// NewKafkaWriter crea un writer sin topic fijo.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// Message construye el mensaje de Kafka de un evento.
func (p *KafkaPublisher) Message(event interface{}) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{Topic: p.defaultTopic, Value: data}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = []byte(keyer.PartitionKey())
	}
	if t, ok := event.(sharedBus.Topicer); ok && t.EventTopic() != "" {
		msg.Topic = t.EventTopic()
	}
	return msg, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	msg, err := p.Message(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka", zap.String("topic", msg.Topic), zap.Error(err))
		return err
	}

	p.log.Debug("Event published successfully", zap.String("topic", msg.Topic), zap.ByteString("key", msg.Key))
	return nil
}

// Verificación estática
var _ sharedBus.EventPublisher = (*KafkaPublisher)(nil)
