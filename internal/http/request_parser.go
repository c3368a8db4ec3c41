package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// maxBodyBytes bounds request bodies; an expense is a few hundred bytes.
const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

// expenseRequest is the wire shape of a new expense. Amount accepts a JSON
// number or string so that both 12.5 and "12.50" work.
type expenseRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// parseExpenseInput reads a JSON or form-encoded expense. The returned error
// is errBadBody for undecodable bodies or core.ValidationErrors for bad dates.
func parseExpenseInput(r *http.Request) (core.ExpenseInput, error) {
	var (
		in   core.ExpenseInput
		date string
	)

	if isJSON(r) {
		var req expenseRequest
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			return in, fmt.Errorf("%w: %v", errBadBody, err)
		}
		in.Description = req.Description
		in.Amount = rawAmount(req.Amount)
		in.Category = req.Category
		date = req.Date
	} else {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: %v", errBadBody, err)
		}
		in.Description = r.PostForm.Get(core.FieldDescription)
		in.Amount = r.PostForm.Get(core.FieldAmount)
		in.Category = r.PostForm.Get(core.FieldCategory)
		date = r.PostForm.Get(core.FieldDate)
	}

	in.Description = sanitizeInput(in.Description)

	d, err := core.ParseDate(date)
	if err != nil {
		return in, core.ValidationErrors{core.FieldDate: err}
	}
	in.Date = d
	return in, nil
}

func rawAmount(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// parseExpenseID reads the {id} path segment.
func parseExpenseID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", raw)
	}
	return id, nil
}

// parseCategoryFilter reads ?category=; empty and "all" select everything.
func parseCategoryFilter(r *http.Request) (core.Category, error) {
	c := core.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	if c == "" || c == core.AllCategories || c.IsValid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", c)
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func parseThemeRequest(r *http.Request) (core.Theme, error) {
	var req themeRequest
	if isJSON(r) {
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			return "", fmt.Errorf("%w: %v", errBadBody, err)
		}
	} else {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("%w: %v", errBadBody, err)
		}
		req.Theme = r.PostForm.Get("theme")
	}
	t, ok := core.ParseTheme(req.Theme)
	if !ok {
		return "", fmt.Errorf("unknown theme %q", req.Theme)
	}
	return t, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
