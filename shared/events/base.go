package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// IntegrationEvent es el sobre que viaja por el bus. Topic y Key no se
// serializan: los usa el publicador para enrutar el mensaje.
type IntegrationEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`

	Topic string `json:"-"`
	Key   string `json:"-"`
}

func (e IntegrationEvent) PartitionKey() string { return e.Key }
func (e IntegrationEvent) EventTopic() string   { return e.Topic }

// EventMetadata asocia un tipo de evento con su contrato y su topic.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// Registry mapea el event_type del outbox a sus metadatos.
type Registry map[string]EventMetadata

// Merge combina varios registros; el último gana ante claves repetidas.
func Merge(registries ...Registry) Registry {
	out := Registry{}
	for _, r := range registries {
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}
