package services

import "log"

// Event types published after a committed change.
const (
	EventGroupCreated       = "group.created"
	EventGroupUpdated       = "group.updated"
	EventGroupDeleted       = "group.deleted"
	EventCollectibleCreated = "collectible.created"
	EventCollectibleUpdated = "collectible.updated"
	EventCollectibleDeleted = "collectible.deleted"
)

// EventPublisher receives change notifications. *rabbitmq.Client implements it.
type EventPublisher interface {
	PublishInventoryEvent(eventType string, data map[string]interface{}) error
}

// publish sends an event if a publisher is configured. Failures never fail the
// operation that already committed.
func publish(events EventPublisher, eventType string, data map[string]interface{}) {
	if events == nil {
		return
	}
	if err := events.PublishInventoryEvent(eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
