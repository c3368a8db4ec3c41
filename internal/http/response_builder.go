package http

import (
	"encoding/json"
	"net/http"

	"expensetracker/internal/core"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
}

type categoriesResponse struct {
	All       []core.Category `json:"all"`
	Available []core.Category `json:"available"`
}

type themeResponse struct {
	Theme core.Theme `json:"theme"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidationErrors(w http.ResponseWriter, errs core.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  "validation failed",
		Fields: errs.Messages(),
	})
}
