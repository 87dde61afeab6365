// internal/borrowing/handler.go
package borrowing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shelfmark/internal/fines"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the borrowing endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/borrows", h.handleList)
	r.Post("/borrows", h.handleBorrow)
	r.Post("/borrows/{borrowID}/return", h.handleReturn)
	r.Get("/fines", h.handleListFines)
	r.Post("/fines/{fineID}/pay", h.handlePayFine)
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.service.Borrow(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "borrowID"))
	if err != nil {
		http.Error(w, "invalid borrow record ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.service.Return(r.Context(), id, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	// A pending fine means the return is not fully settled yet.
	if result.FinePending {
		w.WriteHeader(http.StatusAccepted)
	}
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) handlePayFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "fineID"))
	if err != nil {
		http.Error(w, "invalid fine ID", http.StatusBadRequest)
		return
	}

	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	fine, err := h.service.PayFine(r.Context(), id, req.PhoneNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fine)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ParseStatusFilter(r.URL.Query().Get("status"))

	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *Handler) handleListFines(w http.ResponseWriter, r *http.Request) {
	unpaid, err := h.service.ListFines(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(unpaid)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound),
		errors.Is(err, ErrBorrowerNotFound),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, fines.ErrFineNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoCopiesAvailable),
		errors.Is(err, ErrBorrowLimitReached),
		errors.Is(err, ErrAlreadyReturned),
		errors.Is(err, fines.ErrDuplicateFine),
		errors.Is(err, fines.ErrFineAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
