package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/kv/memory"
)

// failingKV fails the operations whose flag is set.
type failingKV struct {
	*memory.Store
	failGet, failSet, failRemove bool
}

var errStorage = errors.New("storage unavailable")

func (f *failingKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errStorage
	}
	return f.Store.GetItem(ctx, key)
}

func (f *failingKV) SetItem(ctx context.Context, key, value string) error {
	if f.failSet {
		return errStorage
	}
	return f.Store.SetItem(ctx, key, value)
}

func (f *failingKV) RemoveItem(ctx context.Context, key string) error {
	if f.failRemove {
		return errStorage
	}
	return f.Store.RemoveItem(ctx, key)
}

// recordingNotifier captures events.
type recordingNotifier struct {
	mu      sync.Mutex
	added   []core.Expense
	deleted []core.Expense
	err     error
}

func (n *recordingNotifier) ExpenseAdded(_ context.Context, e core.Expense) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, e)
	return n.err
}

func (n *recordingNotifier) ExpenseDeleted(_ context.Context, e core.Expense) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, e)
	return n.err
}

// fixedClock always returns the same instant, forcing ID collisions.
func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func newExpense(desc string, cents int64, c core.Category) core.Expense {
	return core.Expense{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    c,
		Date:        time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func initializedStore(kvs *memory.Store, opts ...ExpenseOption) *ExpenseStore {
	s := NewExpenseStore(kvs, opts...)
	s.MarkInitialized()
	return s
}
