package bus

import "context"

// Keyer lo implementan los eventos que fijan su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// Topicer lo implementan los eventos que eligen su topic.
type Topicer interface {
	EventTopic() string
}

// La semántica de topic/nombre y formato del payload la decides en los adapters.
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}
