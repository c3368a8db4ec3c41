package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/kv/memory"
	"expensetracker/internal/store"
)

type testEnv struct {
	srv      *Server
	kv       *memory.Store
	expenses *store.ExpenseStore
	theme    *store.ThemeStore
	doc      *store.Element
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()
	kvs := memory.New()
	doc := store.NewElement()
	env := &testEnv{
		kv:       kvs,
		expenses: store.NewExpenseStore(kvs),
		theme:    store.NewThemeStore(kvs, doc, store.StaticAmbient(false)),
		doc:      doc,
	}
	env.expenses.LoadFromStorage(ctx)
	env.theme.Initialize(ctx)
	env.srv = NewServer(":0", env.expenses, env.theme, opts...)
	env.srv.now = func() time.Time { return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = env.srv.Shutdown(context.Background()) })
	return env
}

func (e *testEnv) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := env.do(http.MethodGet, path, "", ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body)
		}
	}
}

func TestReadyReportsFailingChecks(t *testing.T) {
	env := newTestEnv(t, WithReadinessCheck("storage", func(context.Context) error {
		return errors.New("database is locked")
	}))
	rr := env.do(http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	resp := decode[readinessResponse](t, rr)
	if resp.Checks["storage"] != "database is locked" || resp.Checks["expenses"] != "ok" {
		t.Errorf("unexpected checks %+v", resp.Checks)
	}
}

func TestReadyBeforeLoad(t *testing.T) {
	kvs := memory.New()
	srv := NewServer(":0", store.NewExpenseStore(kvs), store.NewThemeStore(kvs, nil, nil))
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCreateExpenseJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/expenses", "application/json",
		`{"description":"Groceries","amount":150.5,"category":"food","date":"2026-01-15"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	got := decode[core.Expense](t, rr)
	if got.ID == 0 || got.Description != "Groceries" || got.Amount.Cents != 15050 || got.Category != core.Food {
		t.Errorf("unexpected expense %+v", got)
	}
	if !got.Date.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got.Date)
	}
	if loc := rr.Header().Get("Location"); !strings.HasSuffix(loc, "/api/expenses/"+jsonID(got.ID)) {
		t.Errorf("Location = %q", loc)
	}
	if env.expenses.Len() != 1 {
		t.Errorf("store has %d expenses", env.expenses.Len())
	}
	if _, ok, _ := env.kv.GetItem(context.Background(), store.ExpensesKey); !ok {
		t.Error("expense was not persisted")
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestCreateExpenseFormDefaultsDate(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"description": {"  Bus ticket\x00 "}, "amount": {"2,50"}, "category": {"transport"}}
	rr := env.do(http.MethodPost, "/api/expenses", "application/x-www-form-urlencoded", form.Encode())
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	got := decode[core.Expense](t, rr)
	if got.Description != "Bus ticket" || got.Amount.Cents != 250 {
		t.Errorf("unexpected expense %+v", got)
	}
	if !got.Date.Equal(env.srv.now()) {
		t.Errorf("missing date should default to now, got %v", got.Date)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{name: "every field wrong", body: `{"description":"ab","amount":"-1","category":"pets"}`, status: http.StatusUnprocessableEntity,
			fields: []string{"description", "amount", "category"}},
		{name: "empty body object", body: `{}`, status: http.StatusUnprocessableEntity,
			fields: []string{"description", "amount", "category"}},
		{name: "too many decimals", body: `{"description":"Coffee","amount":"1.234","category":"food"}`, status: http.StatusUnprocessableEntity,
			fields: []string{"amount"}},
		{name: "bad date", body: `{"description":"Coffee","amount":"1","category":"food","date":"yesterday"}`, status: http.StatusUnprocessableEntity,
			fields: []string{"date"}},
		{name: "malformed json", body: `{"description":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/expenses", "application/json", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
			resp := decode[errorResponse](t, rr)
			for _, f := range tt.fields {
				if resp.Fields[f] == "" {
					t.Errorf("missing error for %s in %+v", f, resp.Fields)
				}
			}
		})
	}
	if env.expenses.Len() != 0 {
		t.Errorf("rejected input must not be stored")
	}
}

func TestListAndFilterExpenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env.expenses.AddExpense(ctx, core.Expense{Description: "Expense 1", Amount: core.Money{Cents: 5000}, Category: core.Food, Date: day})
	env.expenses.AddExpense(ctx, core.Expense{Description: "Expense 2", Amount: core.Money{Cents: 10000}, Category: core.Transport, Date: day})
	env.expenses.AddExpense(ctx, core.Expense{Description: "Expense 3", Amount: core.Money{Cents: 12556}, Category: core.Entertainment, Date: day})

	rr := env.do(http.MethodGet, "/api/expenses", "", "")
	all := decode[expenseListResponse](t, rr)
	if all.Count != 3 || all.Total.String() != "275.56" {
		t.Errorf("unexpected list %+v", all)
	}

	rr = env.do(http.MethodGet, "/api/expenses?category=transport", "", "")
	filtered := decode[expenseListResponse](t, rr)
	if filtered.Count != 1 || filtered.Expenses[0].Category != core.Transport {
		t.Errorf("unexpected filter result %+v", filtered)
	}

	if rr := env.do(http.MethodGet, "/api/expenses?category=all", "", ""); decode[expenseListResponse](t, rr).Count != 3 {
		t.Error("category=all should list everything")
	}
	if rr := env.do(http.MethodGet, "/api/expenses?category=pets", "", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown category status=%d", rr.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	e := env.expenses.AddExpense(context.Background(),
		core.Expense{Description: "Lunch", Amount: core.Money{Cents: 1200}, Category: core.Food, Date: time.Now()})

	path := "/api/expenses/" + jsonID(e.ID)
	if rr := env.do(http.MethodDelete, path, "", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("first delete status=%d", rr.Code)
	}
	if rr := env.do(http.MethodDelete, path, "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	if rr := env.do(http.MethodDelete, "/api/expenses/abc", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", rr.Code)
	}
	if env.expenses.Len() != 0 {
		t.Errorf("expense still present")
	}
}

func TestStatsAndCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := time.Now()
	env.expenses.AddExpense(ctx, core.Expense{Description: "Rent", Amount: core.Money{Cents: 50000}, Category: core.Utilities, Date: day})
	env.expenses.AddExpense(ctx, core.Expense{Description: "Dinner", Amount: core.Money{Cents: 25000}, Category: core.Food, Date: day})
	env.expenses.AddExpense(ctx, core.Expense{Description: "Train", Amount: core.Money{Cents: 15000}, Category: core.Transport, Date: day})

	stats := decode[core.Summary](t, env.do(http.MethodGet, "/api/stats", "", ""))
	if stats.Count != 3 || stats.Total.Cents != 90000 || len(stats.ByCategory) != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	wantPct := []float64{55.6, 27.8, 16.7}
	for i, ca := range stats.ByCategory {
		if ca.Percent != wantPct[i] {
			t.Errorf("%s percent = %v, want %v", ca.Category, ca.Percent, wantPct[i])
		}
	}

	cats := decode[categoriesResponse](t, env.do(http.MethodGet, "/api/categories", "", ""))
	if len(cats.All) != len(core.Categories) {
		t.Errorf("all = %v", cats.All)
	}
	if len(cats.Available) != 3 || cats.Available[0] != core.Utilities {
		t.Errorf("available = %v", cats.Available)
	}
}

func TestThemeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	if got := decode[themeResponse](t, env.do(http.MethodGet, "/api/theme", "", "")); got.Theme != core.Light {
		t.Fatalf("initial theme %q", got.Theme)
	}

	got := decode[themeResponse](t, env.do(http.MethodPost, "/api/theme/toggle", "", ""))
	if got.Theme != core.Dark {
		t.Fatalf("toggled theme %q", got.Theme)
	}
	if v, _ := env.doc.Attribute(store.ThemeAttribute); v != "dark" {
		t.Error("toggle should apply the theme")
	}
	if saved, _, _ := env.kv.GetItem(context.Background(), store.ThemeKey); saved != "dark" {
		t.Errorf("persisted %q", saved)
	}

	rr := env.do(http.MethodPut, "/api/theme", "application/json", `{"theme":"light"}`)
	if rr.Code != http.StatusOK || decode[themeResponse](t, rr).Theme != core.Light {
		t.Fatalf("PUT status=%d body=%s", rr.Code, rr.Body)
	}
	if _, ok := env.doc.Attribute(store.ThemeAttribute); ok {
		t.Error("light theme should clear the attribute")
	}

	if rr := env.do(http.MethodPut, "/api/theme", "application/json", `{"theme":"sepia"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid theme status=%d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	if rr := env.do(http.MethodPatch, "/api/expenses", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d", rr.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/api/stats", "", "")
	for _, h := range []string{"X-Request-ID", "X-Content-Type-Options", "Content-Security-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestCreateExpenseRateLimited(t *testing.T) {
	env := newTestEnv(t, WithRateLimit(2))
	body := `{"description":"Coffee","amount":"2","category":"food"}`

	for i := 0; i < 2; i++ {
		if rr := env.do(http.MethodPost, "/api/expenses", "application/json", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := env.do(http.MethodPost, "/api/expenses", "application/json", body)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d Retry-After=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := env.do(http.MethodGet, "/api/expenses", "", ""); rr.Code != http.StatusOK {
		t.Errorf("reads must not be limited, status=%d", rr.Code)
	}
}
