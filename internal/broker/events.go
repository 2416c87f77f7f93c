package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"quote-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPriceRecorded publishes PriceRecorded event
func (ep *EventPublisher) PublishPriceRecorded(ctx context.Context, event *models.PriceRecordedEvent) error {
	key := fmt.Sprintf("item-%d", event.ItemID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishItemStatus publishes ItemArchived/ItemActivated events
func (ep *EventPublisher) PublishItemStatus(ctx context.Context, event *models.ItemStatusEvent) error {
	key := fmt.Sprintf("item-%d", event.ItemID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteCreated publishes QuoteCreated event
func (ep *EventPublisher) PublishQuoteCreated(ctx context.Context, event *models.QuoteCreatedEvent) error {
	key := fmt.Sprintf("quote-%d", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteItemAdded publishes QuoteItemAdded event
func (ep *EventPublisher) PublishQuoteItemAdded(ctx context.Context, event *models.QuoteItemAddedEvent) error {
	key := fmt.Sprintf("quote-%d", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteItemUpdated publishes QuoteItemUpdated event
func (ep *EventPublisher) PublishQuoteItemUpdated(ctx context.Context, event *models.QuoteItemUpdatedEvent) error {
	key := fmt.Sprintf("quote-%d", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteItemDeleted publishes QuoteItemDeleted event
func (ep *EventPublisher) PublishQuoteItemDeleted(ctx context.Context, event *models.QuoteItemDeletedEvent) error {
	key := fmt.Sprintf("quote-%d", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteStatusChanged publishes QuoteStatusChanged event
func (ep *EventPublisher) PublishQuoteStatusChanged(ctx context.Context, event *models.QuoteStatusChangedEvent) error {
	key := fmt.Sprintf("quote-%d", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onPriceRecorded func(context.Context, *models.PriceRecordedEvent) error
	onQuoteChanged  func(ctx context.Context, quoteID int64, eventType string) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPriceRecorded registers a handler for PriceRecorded events
func (eh *EventHandler) OnPriceRecorded(handler func(context.Context, *models.PriceRecordedEvent) error) {
	eh.onPriceRecorded = handler
}

// OnQuoteChanged registers a handler invoked for every quote mutation event
func (eh *EventHandler) OnQuoteChanged(handler func(ctx context.Context, quoteID int64, eventType string) error) {
	eh.onQuoteChanged = handler
}

// quoteRef is the minimal shape shared by all quote events
type quoteRef struct {
	QuoteID int64 `json:"quote_id"`
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePriceRecorded:
		if eh.onPriceRecorded != nil {
			var event models.PriceRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PriceRecorded event: %w", err)
			}
			return eh.onPriceRecorded(ctx, &event)
		}

	case models.EventTypeQuoteCreated,
		models.EventTypeQuoteItemAdded,
		models.EventTypeQuoteItemUpdated,
		models.EventTypeQuoteItemDeleted,
		models.EventTypeQuoteStatusChanged:
		if eh.onQuoteChanged != nil {
			var ref quoteRef
			if err := json.Unmarshal(msg.Value, &ref); err != nil {
				return fmt.Errorf("failed to unmarshal quote event: %w", err)
			}
			return eh.onQuoteChanged(ctx, ref.QuoteID, baseEvent.EventType)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
