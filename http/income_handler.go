package http

import (
	"net/http"

	"finance-agent/service"
)

type IncomeHandler struct {
	service *service.IncomeService
}

func NewIncomeHandler(service *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{service: service}
}

func (h *IncomeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Summary(r.Context(), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *IncomeHandler) BySource(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.BySource(r.Context(), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *IncomeHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", service.DefaultIncomeYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.service.Monthly(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *IncomeHandler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), queryRange(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}
