// Package worker consumes expense events outside the HTTP process.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/kv"
	"expensetracker/internal/log"
)

const (
	// LedgerKey is the storage key of the audit ledger.
	LedgerKey = "expense-tracker-audit"

	DefaultReportInterval = 15 * time.Minute
	dedupeWindow          = 24 * time.Hour
	dedupeSize            = 10_000
)

// Ledger is the running tally built from expense events.
type Ledger struct {
	Added      int                          `json:"added"`
	Deleted    int                          `json:"deleted"`
	Live       int                          `json:"live"`
	Total      core.Money                   `json:"total"`
	ByCategory map[core.Category]core.Money `json:"by_category"`
	LastEvent  time.Time                    `json:"last_event"`
}

func (l *Ledger) apply(msg *amqp.ExpenseEventMessage) {
	if l.ByCategory == nil {
		l.ByCategory = make(map[core.Category]core.Money)
	}
	e := msg.Expense()
	amount := e.Amount
	switch msg.Type {
	case amqp.EventAdded:
		l.Added++
		l.Live++
		l.Total = l.Total.Add(amount)
		l.ByCategory[e.Category] = l.ByCategory[e.Category].Add(amount)
	case amqp.EventDeleted:
		l.Deleted++
		if l.Live > 0 {
			l.Live--
		}
		l.Total = core.Money{Cents: max(l.Total.Cents-amount.Cents, 0)}
		left := l.ByCategory[e.Category].Cents - amount.Cents
		if left > 0 {
			l.ByCategory[e.Category] = core.Money{Cents: left}
		} else {
			delete(l.ByCategory, e.Category)
		}
	}
	if msg.Timestamp.After(l.LastEvent) {
		l.LastEvent = msg.Timestamp
	}
}

func (l Ledger) clone() Ledger {
	out := l
	out.ByCategory = make(map[core.Category]core.Money, len(l.ByCategory))
	for c, m := range l.ByCategory {
		out.ByCategory[c] = m
	}
	return out
}

// AuditWorker folds expense events into a Ledger persisted in key-value storage.
// Redelivered events are recognised by type and ID and applied once.
type AuditWorker struct {
	kv     kv.Storage
	logger *log.Logger
	seen   *cache.LRU[struct{}]

	mu     sync.Mutex
	ledger Ledger
}

func NewAuditWorker(storage kv.Storage, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		kv:     storage,
		logger: logger.WithComponent(log.ComponentAudit),
		seen:   cache.NewLRU[struct{}](dedupeSize, dedupeWindow),
	}
}

// Load restores the ledger from storage. A missing ledger starts empty; an
// unreadable one is an error.
func (w *AuditWorker) Load(ctx context.Context) error {
	raw, ok, err := w.kv.GetItem(ctx, LedgerKey)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	var l Ledger
	if ok {
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return fmt.Errorf("decode ledger: %w", err)
		}
	}

	w.mu.Lock()
	w.ledger = l
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "Audit ledger loaded", log.FieldOperation, log.OpLoad, "live", l.Live, "total", l.Total.String())
	return nil
}

// HandleEvent is an amqp.Handler. A storage failure rolls the event back and
// returns an error so that the message is requeued.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	key := fmt.Sprintf("%s:%d", msg.Type, msg.ID)
	if !w.seen.Add(key, struct{}{}) {
		w.logger.DebugContext(ctx, "Skipping duplicate event", "type", msg.Type, log.FieldExpenseID, msg.ID)
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.ledger.clone()
	w.ledger.apply(msg)
	if err := w.persistLocked(ctx); err != nil {
		w.ledger = prev
		w.seen.Delete(key)
		return err
	}

	w.logger.InfoContext(ctx, "Expense event recorded",
		log.FieldOperation, log.OpConsume,
		"type", msg.Type,
		log.FieldExpenseID, msg.ID,
		log.FieldExpenseDesc, msg.Description,
		log.FieldAmountCents, msg.AmountCents,
		log.FieldCategory, msg.Category)
	return nil
}

func (w *AuditWorker) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(w.ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := w.kv.SetItem(ctx, LedgerKey, string(data)); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current ledger.
func (w *AuditWorker) Snapshot() Ledger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.clone()
}

// Report logs the ledger every interval until ctx is done, and sweeps
// expired dedupe entries on the same tick.
func (w *AuditWorker) Report(ctx context.Context, interval time.Duration) {
	cache.NewJanitor(w.seen).Run(ctx, interval, func(swept int) {
		l := w.Snapshot()
		w.logger.InfoContext(ctx, "Audit summary",
			"added", l.Added,
			"deleted", l.Deleted,
			"live", l.Live,
			"total", l.Total.String(),
			"categories", len(l.ByCategory),
			"dedupe_swept", swept)
	})
}
