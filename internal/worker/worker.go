package worker

import (
	"context"
	"log"

	"quote-service/internal/broker"
	"quote-service/internal/models"
	"quote-service/internal/redisclient"
)

// QuoteCacheWorker drops cached quotes when mutation events arrive, so
// instances that did not perform the mutation never serve a stale tree.
type QuoteCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewQuoteCacheWorker creates a new quote cache worker
func NewQuoteCacheWorker(consumer *broker.Consumer, redis *redisclient.Client) *QuoteCacheWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnQuoteChanged(func(ctx context.Context, quoteID int64, eventType string) error {
		if err := redis.InvalidateQuote(ctx, quoteID); err != nil {
			log.Printf("Failed to invalidate quote %d cache: %v", quoteID, err)
			return err
		}
		return nil
	})

	return &QuoteCacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *QuoteCacheWorker) Start(ctx context.Context) error {
	log.Println("Starting quote cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *QuoteCacheWorker) Stop() error {
	log.Println("Stopping quote cache worker...")
	return w.consumer.Close()
}

// PriceWatchWorker tracks ledger writes and keeps the per-item cost cache
// warm for margin lookups.
type PriceWatchWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewPriceWatchWorker creates a new price watch worker
func NewPriceWatchWorker(consumer *broker.Consumer, redis *redisclient.Client) *PriceWatchWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPriceRecorded(func(ctx context.Context, event *models.PriceRecordedEvent) error {
		if !event.CostApplied {
			return nil
		}
		if err := redis.SetItemCost(ctx, event.ItemID, event.Price.String()); err != nil {
			log.Printf("Failed to cache cost for item %d: %v", event.ItemID, err)
			return err
		}
		log.Printf("Cost basis updated: item=%d price=%s", event.ItemID, event.Price.String())
		return nil
	})

	return &PriceWatchWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *PriceWatchWorker) Start(ctx context.Context) error {
	log.Println("Starting price watch worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PriceWatchWorker) Stop() error {
	log.Println("Stopping price watch worker...")
	return w.consumer.Close()
}
