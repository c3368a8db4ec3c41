package http

import (
	"errors"
	"net/http"
	"strconv"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategoryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses := s.expenses.Filter(category)
	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses: expenses,
		Count:    len(expenses),
		Total:    core.SumAmounts(expenses),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	in, err := parseExpenseInput(r)
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeValidationErrors(w, verrs)
		return
	case err != nil:
		logger.WarnContext(ctx, "Rejected expense body",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeValidation)
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	e, err := in.Expense(s.now())
	if errors.As(err, &verrs) {
		logger.DebugContext(ctx, "Expense failed validation",
			log.FieldError, err, log.FieldOperation, log.OpValidate)
		writeValidationErrors(w, verrs)
		return
	} else if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored := s.expenses.AddExpense(ctx, e)
	w.Header().Set("Location", "/api/expenses/"+strconv.FormatInt(stored.ID, 10))
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseExpenseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.expenses.DeleteExpense(r.Context(), id) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.expenses.Summary())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		All:       core.Categories,
		Available: s.expenses.AvailableCategories(),
	})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.theme.Theme()})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.theme.ToggleTheme(r.Context())})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := parseThemeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.theme.SetTheme(r.Context(), t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.theme.Theme()})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until both stores have read storage and every
// registered check passes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{Status: "ready", Checks: make(map[string]string)}
	fail := func(name, reason string) {
		resp.Status = "not ready"
		resp.Checks[name] = reason
	}

	if s.expenses.Initialized() {
		resp.Checks["expenses"] = "ok"
	} else {
		fail("expenses", "not loaded")
	}
	if s.theme.Initialized() {
		resp.Checks["theme"] = "ok"
	} else {
		fail("theme", "not initialized")
	}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			fail(name, err.Error())
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
