package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

// handleCreateCategory adds a user-defined category.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulir tidak valid").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	catType := core.TransactionType(sanitizeInput(r.Form.Get("type")))

	if _, err := s.cats.Add(r.Context(), name, catType); err != nil {
		if core.IsValidation(err) {
			UnprocessableEntityError(validationMessage(err)).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		InternalServerError("Gagal menyimpan kategori").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerCategoryCreated().
		TriggerFormReset().
		TriggerSuccessNotification("Kategori tersimpan").
		Write(w)
}

// handleDeleteCategory removes a category. Categories still referenced by
// transactions are refused so history keeps its labels.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("ID kategori wajib diisi").Write(w)
		return
	}

	if err := s.cats.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, gateway.ErrConflict):
			ConflictError("Kategori masih dipakai transaksi").Write(w)
		case errors.Is(err, gateway.ErrNotFound):
			NotFoundError("Kategori tidak ditemukan").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Delete category failed", "error", err, "category_id", id)
			InternalServerError("Gagal menghapus kategori").Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerCategoryDeleted().
		TriggerSuccessNotification("Kategori dihapus").
		Write(w)
}

// handleCategoryLists re-renders the category manager lists partial.
func (s *Server) handleCategoryLists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if err := s.ensureLoaded(r.Context()); err != nil {
		InternalServerError("Gagal memuat data").Write(w)
		return
	}

	data := categoryListsView{
		Income:  s.cats.ByType(core.Income),
		Expense: s.cats.ByType(core.Expense),
	}
	s.render(w, r, "category_lists", data)
}
