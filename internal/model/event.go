package model

import "time"

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderDeleted       EventType = "order.deleted"
	EventStockAdded         EventType = "stock.added"
	EventProductCreated     EventType = "product.created"
	EventProductUpdated     EventType = "product.updated"
	EventProductArchived    EventType = "product.archived"
	EventLowStock           EventType = "product.low_stock"
)

// Event is a committed domain change pushed to websocket clients and Kafka.
type Event struct {
	Event      EventType   `json:"event"`
	Key        string      `json:"key"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(eventType EventType, key string, data interface{}) Event {
	return Event{
		Event:      eventType,
		Key:        key,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
