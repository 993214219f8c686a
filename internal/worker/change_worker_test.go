package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type recordingNotifier struct {
	mu     sync.Mutex
	owners []string
}

func (n *recordingNotifier) Notify(ownerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners = append(n.owners, ownerID)
}

type scriptedConsumer struct {
	msgs    []*amqp.ChangeMessage
	results []error
}

func (c *scriptedConsumer) ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error {
	for _, m := range c.msgs {
		c.results = append(c.results, handler(ctx, m))
	}
	return context.Canceled
}

func TestChangeWorker_RunFeedsNotifier(t *testing.T) {
	consumer := &scriptedConsumer{msgs: []*amqp.ChangeMessage{
		amqp.NewChangeMessage("alice", core.CollectionTransactions),
		amqp.NewChangeMessage("bob", core.CollectionGoals),
		{Collection: core.CollectionBudgetLimits},
		amqp.NewChangeMessage("alice", core.CollectionBudgetLimits),
	}}
	n := &recordingNotifier{}
	w := NewChangeWorker(consumer, n)

	if err := w.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	want := []string{"alice", "bob", "alice"}
	if len(n.owners) != len(want) {
		t.Fatalf("notified %v, want %v", n.owners, want)
	}
	for i := range want {
		if n.owners[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, n.owners[i], want[i])
		}
	}
	if consumer.results[2] == nil {
		t.Error("message without owner should be rejected")
	}
}

func TestChangeWorker_RunRequiresDependencies(t *testing.T) {
	if err := NewChangeWorker(nil, &recordingNotifier{}).Run(context.Background()); err == nil {
		t.Fatal("expected error without consumer")
	}
}
