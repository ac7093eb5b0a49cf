package http

import (
	"net/http"

	"finance-agent/service"
)

type SpendHandler struct {
	service *service.SpendService
}

func NewSpendHandler(service *service.SpendService) *SpendHandler {
	return &SpendHandler{service: service}
}

func (h *SpendHandler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Summary(r.Context(), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *SpendHandler) TopCategories(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k", service.DefaultTopCategories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.service.TopCategories(r.Context(), queryRange(r), k)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *SpendHandler) PaymentSplit(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.PaymentSplit(r.Context(), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *SpendHandler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// BudgetAdvice summarizes one month (?month=YYYY-MM) for budget suggestions.
func (h *SpendHandler) BudgetAdvice(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.BudgetAdvice(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}
