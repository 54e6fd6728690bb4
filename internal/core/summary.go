package core

// Summary holds the derived totals over the current transaction list.
type Summary struct {
	Income  Money
	Expense Money
	Balance Money
}

// ChartSegment is one positive-valued slice of the allocation pie.
type ChartSegment struct {
	Label string
	Value int64
	Color string
}

// Chart labels and colors match the dashboard's visual language.
const (
	IncomeLabel  = "Pemasukan"
	ExpenseLabel = "Pengeluaran"
	IncomeColor  = "#10b981"
	ExpenseColor = "#ef4444"
)

// ComputeSummary derives income, expense, and balance totals from a
// transaction list. An empty list yields all-zero totals. Entries whose
// type is neither income nor expense are ignored.
func ComputeSummary(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income.Cents += t.Amount.Cents
		case Expense:
			s.Expense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expense.Cents
	return s
}

// ChartSegments produces at most two segments from a summary, omitting any
// segment whose value is not strictly positive.
func ChartSegments(s Summary) []ChartSegment {
	segments := make([]ChartSegment, 0, 2)
	if s.Income.Cents > 0 {
		segments = append(segments, ChartSegment{Label: IncomeLabel, Value: s.Income.Cents, Color: IncomeColor})
	}
	if s.Expense.Cents > 0 {
		segments = append(segments, ChartSegment{Label: ExpenseLabel, Value: s.Expense.Cents, Color: ExpenseColor})
	}
	return segments
}
