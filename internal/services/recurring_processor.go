package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// RecurringProcessorConfig holds configuration for the recurring processor
type RecurringProcessorConfig struct {
	// Interval is how often due occurrences are materialized (default: 1h)
	Interval time.Duration
}

// DefaultRecurringProcessorConfig returns sensible defaults
func DefaultRecurringProcessorConfig() RecurringProcessorConfig {
	return RecurringProcessorConfig{Interval: time.Hour}
}

// RecurringProcessor materializes occurrences of recurring transactions.
//
// A recurring transaction acts as a template. Its occurrences are plain
// transactions with the same kind, description and category; the latest of
// them (or the template itself) decides, through the period's
// DuenessChecker, whether a new one is due.
type RecurringProcessor struct {
	owners store.RecurringOwnerLister
	ledger *LedgerService
	config RecurringProcessorConfig
	now    func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecurringProcessor creates a new recurring transaction processor
func NewRecurringProcessor(owners store.RecurringOwnerLister, ledger *LedgerService, config RecurringProcessorConfig) *RecurringProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRecurringProcessorConfig().Interval
	}
	return &RecurringProcessor{
		owners: owners,
		ledger: ledger,
		config: config,
		now:    time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *RecurringProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("recurring processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Recurring processor started",
		log.FieldComponent, log.ComponentRecurring,
		"interval", p.config.Interval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *RecurringProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring processor stopped gracefully", log.FieldComponent, log.ComponentRecurring)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring processor stop timed out", log.FieldComponent, log.ComponentRecurring)
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *RecurringProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RecurringProcessor) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	p.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *RecurringProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed",
			log.FieldComponent, log.ComponentRecurring,
			log.FieldError, err)
	}
}

// ProcessDue creates every occurrence due at now and returns how many were created.
// Failures for one owner or template are logged and do not stop the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.owners == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	owners, err := p.owners.ListRecurringOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring owners: %w", err)
	}

	created := 0
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		n, err := p.processOwner(ctx, ownerID, now)
		created += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring transactions",
				log.FieldComponent, log.ComponentRecurring,
				log.FieldOwnerID, ownerID,
				log.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		log.FieldComponent, log.ComponentRecurring,
		"owners", len(owners),
		"created", created,
		"processing_date", now.Format(time.DateOnly))

	return created, nil
}

func (p *RecurringProcessor) processOwner(ctx context.Context, ownerID string, now time.Time) (int, error) {
	txs, err := p.ledger.ListTransactions(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	latest := latestOccurrences(txs)
	created := 0
	for _, tpl := range txs {
		if !tpl.Recurring {
			continue
		}
		checker, err := GetDuenessChecker(tpl.RecurringPeriod)
		if err != nil {
			slog.WarnContext(ctx, "Skipping recurring transaction",
				log.FieldComponent, log.ComponentRecurring,
				log.FieldOwnerID, ownerID,
				log.FieldTransactionID, tpl.ID,
				log.FieldError, err)
			continue
		}
		key := occurrenceKey(tpl)
		if !checker.IsDue(latest[key], now, tpl.OccurredAt) {
			continue
		}

		occurrence := core.Transaction{
			Amount:      tpl.Amount,
			Description: tpl.Description,
			Category:    tpl.Category,
			OccurredAt:  now,
			Kind:        tpl.Kind,
		}
		saved, err := p.ledger.CreateTransaction(ctx, ownerID, occurrence)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				log.FieldComponent, log.ComponentRecurring,
				log.FieldOwnerID, ownerID,
				log.FieldTransactionID, tpl.ID,
				log.FieldError, err)
			continue
		}
		latest[key] = saved.OccurredAt
		created++

		slog.InfoContext(ctx, "Created transaction from recurring template",
			log.FieldComponent, log.ComponentRecurring,
			log.FieldOwnerID, ownerID,
			"template_id", tpl.ID,
			log.FieldTransactionID, saved.ID,
			log.FieldAmountCents, saved.Amount.Cents,
			"period", tpl.RecurringPeriod)
	}
	return created, nil
}

func occurrenceKey(t core.Transaction) string {
	return strings.Join([]string{string(t.Kind), strings.ToLower(t.Description), strings.ToLower(t.Category)}, "\x00")
}

// latestOccurrences maps each occurrence key to its most recent date,
// templates included.
func latestOccurrences(txs []core.Transaction) map[string]time.Time {
	latest := make(map[string]time.Time, len(txs))
	for _, t := range txs {
		k := occurrenceKey(t)
		if t.OccurredAt.After(latest[k]) {
			latest[k] = t.OccurredAt
		}
	}
	return latest
}
