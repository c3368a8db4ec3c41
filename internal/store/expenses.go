// Package store holds the application state: the expense collection and the
// theme preference, each mirrored to a kv.Storage namespace.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/kv"
	"expensetracker/internal/log"
)

// ExpensesKey is the storage key of the serialized expense collection.
const ExpensesKey = "expense-tracker-data"

var (
	// ErrNotArray is reported when the stored value is valid JSON but not a list.
	ErrNotArray = errors.New("stored expenses are not a JSON array")

	// ErrMissingField is reported for a stored record without id, amount or date.
	ErrMissingField = errors.New("stored expense is missing a required field")
)

// Notifier is told about every mutation that reached storage. Mutations whose
// save failed are kept in memory but not announced.
type Notifier interface {
	ExpenseAdded(ctx context.Context, e core.Expense) error
	ExpenseDeleted(ctx context.Context, e core.Expense) error
}

// LoadStatus is the outcome of LoadFromStorage.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadMissing
	LoadCorrupt
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadCorrupt:
		return "corrupt"
	case LoadFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// LoadResult reports what LoadFromStorage found. Err is set for LoadCorrupt
// and LoadFailed; the store has already recovered in both cases.
type LoadResult struct {
	Status LoadStatus
	Count  int
	Err    error
}

// ExpenseStore owns the insertion-ordered expense collection.
type ExpenseStore struct {
	mu          sync.Mutex
	kv          kv.Storage
	key         string
	logger      *log.Logger
	notifier    Notifier
	ids         *IDGenerator
	expenses    []core.Expense
	initialized bool
}

// ExpenseOption configures an ExpenseStore.
type ExpenseOption func(*ExpenseStore)

func WithLogger(l *log.Logger) ExpenseOption {
	return func(s *ExpenseStore) { s.logger = l.WithComponent(log.ComponentExpense) }
}

func WithNotifier(n Notifier) ExpenseOption {
	return func(s *ExpenseStore) { s.notifier = n }
}

func WithIDGenerator(g *IDGenerator) ExpenseOption {
	return func(s *ExpenseStore) { s.ids = g }
}

func WithStorageKey(key string) ExpenseOption {
	return func(s *ExpenseStore) { s.key = key }
}

func NewExpenseStore(storage kv.Storage, opts ...ExpenseOption) *ExpenseStore {
	s := &ExpenseStore{
		kv:       storage,
		key:      ExpensesKey,
		expenses: []core.Expense{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(time.Now)
	}
	return s
}

// LoadFromStorage replaces the collection with the persisted one. Corrupt
// content is removed from storage and the collection is left empty. The store
// is marked initialized whatever happens.
func (s *ExpenseStore) LoadFromStorage(ctx context.Context) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.initialized = true }()

	raw, ok, err := s.kv.GetItem(ctx, s.key)
	if err != nil {
		s.expenses = []core.Expense{}
		s.logger.ErrorContext(ctx, "Failed to read expenses from storage",
			log.NewFields().WithKey(s.key).WithOperation(log.OpLoad).
				WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return LoadResult{Status: LoadFailed, Err: err}
	}
	if !ok || raw == "" {
		return LoadResult{Status: LoadMissing}
	}

	expenses, err := decodeExpenses(raw)
	if err != nil {
		s.expenses = []core.Expense{}
		s.logger.ErrorContext(ctx, "Failed to load expenses from storage, discarding",
			log.NewFields().WithKey(s.key).WithOperation(log.OpLoad).
				WithErrorType(log.ErrorTypeCorruptData).WithError(err).ToSlice()...)
		if rmErr := s.kv.RemoveItem(ctx, s.key); rmErr != nil {
			s.logger.ErrorContext(ctx, "Failed to remove corrupt expenses",
				log.FieldKey, s.key, log.FieldError, rmErr)
		}
		return LoadResult{Status: LoadCorrupt, Err: err}
	}

	for _, e := range expenses {
		s.ids.Observe(e.ID)
		if err := e.Validate(); err != nil {
			s.logger.WarnContext(ctx, "Loaded expense failed validation",
				log.FieldExpenseID, e.ID, log.FieldOperation, log.OpLoad, log.FieldError, err)
		}
	}
	s.expenses = expenses
	s.logger.InfoContext(ctx, "Loaded expenses from storage",
		log.FieldKey, s.key, log.FieldCount, len(expenses))
	return LoadResult{Status: LoadOK, Count: len(expenses)}
}

// storedExpense is the persisted record. Pointers tell a missing field from a
// zero one.
type storedExpense struct {
	ID          *int64      `json:"id"`
	Description string      `json:"description"`
	Amount      *core.Money `json:"amount"`
	Category    string      `json:"category"`
	Date        *string     `json:"date"`
}

func decodeExpenses(raw string) ([]core.Expense, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}
	var stored []storedExpense
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(stored))
	for i, se := range stored {
		e, err := se.expense()
		if err != nil {
			return nil, fmt.Errorf("decode expense %d: %w", i, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (se storedExpense) expense() (core.Expense, error) {
	switch {
	case se.ID == nil:
		return core.Expense{}, fmt.Errorf("%w: id", ErrMissingField)
	case se.Amount == nil:
		return core.Expense{}, fmt.Errorf("%w: amount", ErrMissingField)
	case se.Date == nil || *se.Date == "":
		return core.Expense{}, fmt.Errorf("%w: date", ErrMissingField)
	}
	date, err := core.ParseDate(*se.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("date %q: %w", *se.Date, err)
	}
	return core.Expense{
		ID:          *se.ID,
		Description: se.Description,
		Amount:      *se.Amount,
		Category:    core.Category(se.Category),
		Date:        date,
	}, nil
}

// SaveToStorage writes the collection. Before LoadFromStorage has run it does
// nothing, so an empty startup collection never overwrites persisted data.
func (s *ExpenseStore) SaveToStorage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *ExpenseStore) saveLocked(ctx context.Context) error {
	if !s.initialized {
		return nil
	}
	data, err := json.Marshal(s.expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.SetItem(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}

// persistLocked saves and logs failures; mutators never report them. It
// reports whether the save succeeded.
func (s *ExpenseStore) persistLocked(ctx context.Context, op string) bool {
	if err := s.saveLocked(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist expenses",
			log.NewFields().WithKey(s.key).WithOperation(op).
				WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return false
	}
	return true
}

// AddExpense stores e under a fresh ID at the end of the collection and
// returns the stored record. Any ID on e is ignored.
func (s *ExpenseStore) AddExpense(ctx context.Context, e core.Expense) core.Expense {
	s.mu.Lock()
	e.ID = s.ids.Next()
	s.expenses = append(s.expenses, e)
	persisted := s.persistLocked(ctx, log.OpCreate)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithExpense(e.ID, e.Description, e.Amount.Cents, string(e.Category)).
			WithOperation(log.OpCreate).ToSlice()...)
	if persisted {
		s.notify(ctx, log.OpCreate, e, func(n Notifier) error { return n.ExpenseAdded(ctx, e) })
	}
	return e
}

// DeleteExpense removes the first record with the given ID and persists,
// whether or not anything matched. It reports whether a record was removed.
func (s *ExpenseStore) DeleteExpense(ctx context.Context, id int64) bool {
	s.mu.Lock()
	var (
		removed core.Expense
		found   bool
	)
	next := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if !found && e.ID == id {
			removed, found = e, true
			continue
		}
		next = append(next, e)
	}
	s.expenses = next
	persisted := s.persistLocked(ctx, log.OpDelete)
	s.mu.Unlock()

	if !found {
		s.logger.DebugContext(ctx, "Delete matched no expense", log.FieldExpenseID, id)
		return false
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	if persisted {
		s.notify(ctx, log.OpDelete, removed, func(n Notifier) error { return n.ExpenseDeleted(ctx, removed) })
	}
	return true
}

func (s *ExpenseStore) notify(ctx context.Context, op string, e core.Expense, call func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := call(s.notifier); err != nil {
		// Don't fail the mutation - it is already persisted locally
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, e.ID, log.FieldOperation, op, log.FieldError, err)
	}
}

// Expenses returns a copy of the collection in insertion order.
func (s *ExpenseStore) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// Len returns the number of records.
func (s *ExpenseStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

// Filter returns the records of category c; core.AllCategories or "" returns all.
func (s *ExpenseStore) Filter(c core.Category) []core.Expense {
	return core.FilterByCategory(s.Expenses(), c)
}

// Total is the sum of all amounts.
func (s *ExpenseStore) Total() core.Money {
	return core.SumAmounts(s.Expenses())
}

// StatsByCategory sums amounts per category, in order of first occurrence.
func (s *ExpenseStore) StatsByCategory() []core.CategoryAmount {
	return core.SumByCategory(s.Expenses())
}

// AvailableCategories lists the distinct categories present, in order of first occurrence.
func (s *ExpenseStore) AvailableCategories() []core.Category {
	return core.DistinctCategories(s.Expenses())
}

// Summary returns the statistics view: total plus per-category percentages.
func (s *ExpenseStore) Summary() core.Summary {
	return core.Summarize(s.Expenses())
}

// Initialized reports whether LoadFromStorage has run.
func (s *ExpenseStore) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// MarkInitialized enables persistence without reading storage first.
// Intended for callers that deliberately start from an empty collection.
func (s *ExpenseStore) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}
