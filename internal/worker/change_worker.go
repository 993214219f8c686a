// Package worker connects the broker and the report exporter to the
// recompute dispatcher.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

// Notifier is told that an owner's data changed.
type Notifier interface {
	Notify(ownerID string)
}

// ChangeConsumer delivers change messages until ctx ends.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error
}

// ChangeWorker feeds broker change notifications to the dispatcher.
type ChangeWorker struct {
	consumer ChangeConsumer
	notifier Notifier
}

func NewChangeWorker(consumer ChangeConsumer, notifier Notifier) *ChangeWorker {
	return &ChangeWorker{consumer: consumer, notifier: notifier}
}

// HandleChange processes a single change message. It never fails for a
// well-formed message: recomputes happen asynchronously in the dispatcher.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg == nil || msg.OwnerID == "" {
		return fmt.Errorf("change message without owner")
	}
	slog.DebugContext(ctx, "Processing change message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOwnerID, msg.OwnerID,
		log.FieldCollection, msg.Collection)
	w.notifier.Notify(msg.OwnerID)
	return nil
}

// Run consumes change messages until ctx is cancelled.
func (w *ChangeWorker) Run(ctx context.Context) error {
	if w.consumer == nil || w.notifier == nil {
		return fmt.Errorf("worker not properly initialized")
	}
	return w.consumer.ConsumeChanges(ctx, w.HandleChange)
}
