package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler define la interfaz que debe cumplir cualquier consumidor de eventos.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// ConsumerAdapter lee de Kafka y entrega cada mensaje al handler.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{reader: reader, handler: handler, log: log}
}

// NewKafkaReader crea un reader de grupo para un topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// Start inicia el bucle de consumo en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("Iniciando consumidor de Kafka",
		zap.String("topic", c.reader.Config().Topic),
		zap.Strings("brokers", c.reader.Config().Brokers),
	)

	go func() {
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido", zap.String("topic", c.reader.Config().Topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}
			c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		}
	}()
}

// ConsumeChannel entrega al handler los mensajes del bus en memoria hasta
// que ctx se cancela o el canal se cierra.
func ConsumeChannel(ctx context.Context, ch <-chan []byte, handler MessageHandler, log *zap.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Consumidor en memoria detenido")
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				handler.HandleMessage(ctx, "", payload)
			}
		}
	}()
}
