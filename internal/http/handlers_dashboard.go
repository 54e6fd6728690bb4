package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"keuangan/internal/core"
)

// handleSelectView switches the main area between the dashboard and the
// category manager. The selection lives in process state, not in the URL.
func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulir tidak valid").Write(w)
		return
	}

	switch View(r.Form.Get("view")) {
	case ViewCategories:
		s.setView(ViewCategories)
	default:
		s.setView(ViewDashboard)
	}

	if err := s.ensureLoaded(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Load failed for view switch", "error", err)
		InternalServerError("Gagal memuat data").Write(w)
		return
	}

	sess := s.sessions.Current()
	email := ""
	if sess != nil {
		email = sess.Email
	}
	s.render(w, r, "main", s.buildShell(email))
}

// handleOverview re-renders the summary cards and pie chart partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if err := s.ensureLoaded(r.Context()); err != nil {
		InternalServerError("Gagal memuat data").Write(w)
		return
	}

	sum := s.txs.Summary()
	data := struct {
		Summary summaryView
		Chart   chartView
	}{
		Summary: buildSummaryView(sum),
		Chart:   buildChartView(sum),
	}
	s.render(w, r, "overview", data)
}

// handleActivity re-renders the transaction list partial.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if err := s.ensureLoaded(r.Context()); err != nil {
		InternalServerError("Gagal memuat data").Write(w)
		return
	}
	s.render(w, r, "activity", buildActivityView(s.txs.List()))
}

// handleCategoryOptions serves the category select options for the
// transaction form, filtered by the chosen type.
func (s *Server) handleCategoryOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if err := s.ensureLoaded(r.Context()); err != nil {
		InternalServerError("Gagal memuat data").Write(w)
		return
	}

	t := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	if !t.Valid() {
		t = core.Expense
	}

	data := formView{
		Type:       t,
		TypeLabel:  typeLabel(t),
		Categories: s.cats.ByType(t),
		Today:      time.Now().Format(dateLayout),
	}
	s.render(w, r, "category_options", data)
}
