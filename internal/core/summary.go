package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Percent  float64  `json:"percent"`
}

// Summary is the statistics view over a collection of expenses.
type Summary struct {
	Total      Money            `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// SumAmounts returns the sum of all amounts.
func SumAmounts(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SumByCategory sums amounts per category in a single pass. Categories appear
// in order of first occurrence. Percent is left at zero.
func SumByCategory(expenses []Expense) []CategoryAmount {
	index := make(map[Category]int)
	out := make([]CategoryAmount, 0)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Category: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// DistinctCategories returns the categories present, in order of first occurrence.
func DistinctCategories(expenses []Expense) []Category {
	seen := make(map[Category]struct{})
	out := make([]Category, 0)
	for _, e := range expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// FilterByCategory returns the expenses of category c, preserving order.
// AllCategories and the empty category match everything.
func FilterByCategory(expenses []Expense, c Category) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if c == "" || c == AllCategories || e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// Summarize builds the total and the per-category breakdown with percentages.
func Summarize(expenses []Expense) Summary {
	s := Summary{
		Total:      SumAmounts(expenses),
		Count:      len(expenses),
		ByCategory: SumByCategory(expenses),
	}
	for i := range s.ByCategory {
		s.ByCategory[i].Percent = Percent(s.ByCategory[i].Amount, s.Total)
	}
	return s
}
