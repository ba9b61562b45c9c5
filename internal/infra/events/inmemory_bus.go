package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
)

type subscription struct {
	topic string
	ch    chan []byte
}

// InMemoryEventBus reparte eventos serializados entre suscriptores por topic.
// Un suscriptor con topic vacío recibe todos. Si el canal de un suscriptor
// está lleno el mensaje se descarta para ese suscriptor.
type InMemoryEventBus struct {
	subscribers  []subscription
	mu           sync.RWMutex
	defaultTopic string
}

// Verifica en tiempo de compilación que cumple la interfaz
var _ sharedBus.EventPublisher = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus crea un bus. defaultTopic se usa para eventos que no
// implementan Topicer.
func NewInMemoryEventBus(defaultTopic string) *InMemoryEventBus {
	return &InMemoryEventBus{defaultTopic: defaultTopic}
}

// Publish envía un evento a los suscriptores de su topic.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := b.defaultTopic
	if t, ok := event.(sharedBus.Topicer); ok && t.EventTopic() != "" {
		topic = t.EventTopic()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if sub.topic != "" && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- payloadBytes:
		default:
		}
	}
	return nil
}

// Subscribe registra un oyente para topic ("" para todos).
func (b *InMemoryEventBus) Subscribe(topic string, bufferSize int) <-chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, bufferSize)
	b.subscribers = append(b.subscribers, subscription{topic: topic, ch: ch})
	return ch
}
