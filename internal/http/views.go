package http

import (
	"fmt"
	"html/template"
	"strings"

	"keuangan/internal/core"
)

// View models handed to the templates.

type summaryView struct {
	Balance         string
	BalanceNegative bool
	Income          string
	Expense         string
}

type segmentView struct {
	Label   string
	Color   string
	Amount  string
	Percent float64
}

type chartView struct {
	Empty bool
	// Style carries a conic-gradient the CSS sanitizer would otherwise
	// strip, so it is marked trusted. Only colors and computed
	// percentages go into it.
	Style    template.CSS
	Segments []segmentView
}

type transactionView struct {
	ID          string
	Description string
	Category    string
	Date        string
	Amount      string
	Type        core.TransactionType
	IsIncome    bool
}

type activityView struct {
	Items []transactionView
}

type formView struct {
	Type       core.TransactionType
	TypeLabel  string
	Categories []core.Category
	Today      string
}

type categoryListsView struct {
	Income  []core.Category
	Expense []core.Category
}

type dashboardView struct {
	Summary  summaryView
	Chart    chartView
	Form     formView
	Activity activityView
}

type shellView struct {
	Email      string
	ActiveView View
	Dashboard  *dashboardView
	Categories *categoryListsView
}

type loginView struct {
	Error string
}

func buildSummaryView(sum core.Summary) summaryView {
	return summaryView{
		Balance:         formatRupiah(sum.Balance.Cents),
		BalanceNegative: sum.Balance.Cents < 0,
		Income:          formatRupiah(sum.Income.Cents),
		Expense:         formatRupiah(sum.Expense.Cents),
	}
}

// buildChartView turns the income/expense split into a conic-gradient pie.
func buildChartView(sum core.Summary) chartView {
	segments := core.ChartSegments(sum)
	if len(segments) == 0 {
		return chartView{Empty: true}
	}

	var total int64
	for _, seg := range segments {
		total += seg.Value
	}

	view := chartView{}
	var stops []string
	var cursor float64
	for _, seg := range segments {
		percent := float64(seg.Value) / float64(total) * 100
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", seg.Color, cursor, cursor+percent))
		cursor += percent
		view.Segments = append(view.Segments, segmentView{
			Label:   seg.Label,
			Color:   seg.Color,
			Amount:  formatRupiah(seg.Value),
			Percent: percent,
		})
	}
	view.Style = template.CSS("background: conic-gradient(" + strings.Join(stops, ", ") + ")")
	return view
}

func buildActivityView(items []core.Transaction) activityView {
	view := activityView{}
	for _, tx := range items {
		view.Items = append(view.Items, transactionView{
			ID:          tx.ID,
			Description: tx.Description,
			Category:    tx.DisplayCategory(),
			Date:        tx.Date.Format(dateLayout),
			Amount:      formatRupiah(tx.Amount.Cents),
			Type:        tx.Type,
			IsIncome:    tx.Type == core.Income,
		})
	}
	return view
}
