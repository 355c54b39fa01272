package websocket

// EventPublisher receives accepted chat mutations for delivery outside the
// relay. Enqueue must not block.
type EventPublisher interface {
	Enqueue(routingKey string, body interface{})
}
