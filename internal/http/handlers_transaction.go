package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

// handleCreateTransaction records a new income or expense entry. On
// success the response fires the triggers that refresh the overview and
// activity partials.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Formulir tidak valid").Write(w)
		return
	}

	amountStr := sanitizeInput(r.Form.Get("amount"))
	cents, err := core.ParseAmountToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Jumlah tidak valid").Write(w)
		return
	}

	txType := core.TransactionType(sanitizeInput(r.Form.Get("type")))
	if !txType.Valid() {
		UnprocessableEntityError("Jenis transaksi tidak valid").Write(w)
		return
	}

	tx := core.Transaction{
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(r.Form.Get("description")),
		Type:        txType,
		CategoryID:  strings.TrimSpace(r.Form.Get("category_id")),
	}
	if dateStr := strings.TrimSpace(r.Form.Get("date")); dateStr != "" {
		date, err := parseDate(dateStr)
		if err != nil {
			UnprocessableEntityError("Tanggal tidak valid").Write(w)
			return
		}
		tx.Date = date
	}

	inserted, err := s.txs.Add(r.Context(), tx)
	if err != nil {
		switch {
		case core.IsValidation(err):
			UnprocessableEntityError(validationMessage(err)).Write(w)
		case errors.Is(err, gateway.ErrNotFound):
			UnprocessableEntityError("Kategori tidak ditemukan").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
			InternalServerError("Gagal menyimpan transaksi").Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerTransactionCreated().
		TriggerFormReset().
		TriggerSuccessNotification("Transaksi tersimpan").
		BodyHTML(`<div class="success">Transaksi tersimpan: ` + formatRupiah(inserted.Amount.Cents) + `</div>`).
		Write(w)
}

// handleDeleteTransaction removes an entry by id.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulir tidak valid").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		BadRequestError("ID transaksi wajib diisi").Write(w)
		return
	}

	if err := s.txs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			NotFoundError("Transaksi tidak ditemukan").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "transaction_id", id)
		InternalServerError("Gagal menghapus transaksi").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerTransactionDeleted().
		TriggerSuccessNotification("Transaksi dihapus").
		Write(w)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Jumlah tidak valid"
	case errors.Is(err, core.ErrEmptyDescription):
		return "Deskripsi wajib diisi"
	case errors.Is(err, core.ErrEmptyName):
		return "Nama kategori wajib diisi"
	case errors.Is(err, core.ErrInvalidType):
		return "Jenis tidak valid"
	default:
		return "Data tidak valid"
	}
}
