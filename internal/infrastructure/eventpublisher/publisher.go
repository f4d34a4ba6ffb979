package eventpublisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// EventPublisher drains the transactional outbox. Settlement workflows
// write their events in the same transaction as the ledger mutation, so
// the worker only ever re-delivers, never invents or loses an event.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     *slog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Publisher delivers a single outbox event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     *slog.Logger
	BatchSize  int           // events fetched per poll
	Interval   time.Duration // polling interval
	Retention  time.Duration // how long published events are kept
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the publishing loop until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info("outbox publisher started",
		slog.Int("batch_size", ep.batchSize),
		slog.Duration("interval", ep.interval))

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()

	// Drain once on startup so a restart does not delay pending events.
	if err := ep.drainOutbox(ctx); err != nil {
		ep.logger.Error("outbox drain failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info("outbox publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.drainOutbox(ctx); err != nil {
				ep.logger.Error("outbox drain failed", slog.String("error", err.Error()))
			}
		case <-sweep.C:
			cutoff := time.Now().Add(-ep.retention)
			if err := ep.outboxRepo.DeletePublished(ctx, cutoff); err != nil {
				ep.logger.Error("outbox sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// drainOutbox publishes one batch of pending events. A failed event is
// left unmarked and retried on the next poll; the rest of the batch still
// goes out.
func (ep *EventPublisher) drainOutbox(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	published := 0
	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.logger.Error("failed to publish event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			// Leaving the row unmarked means the event will be delivered
			// again. Consumers must tolerate duplicates.
			ep.logger.Error("failed to mark event as published",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
			continue
		}

		published++
	}

	ep.logger.Info("outbox batch drained",
		slog.Int("fetched", len(events)),
		slog.Int("published", published))

	return nil
}

// LogPublisher writes events to the log instead of a broker. It is the
// default sink when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info("outbox event",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_type", event.AggregateType),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("payload", string(payload)))

	return nil
}
