package http

import (
	"net/http"

	"finance-agent/service"
)

type DebtHandler struct {
	service *service.DebtService
}

func NewDebtHandler(service *service.DebtService) *DebtHandler {
	return &DebtHandler{service: service}
}

func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.ListDebts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, debts)
}

func (h *DebtHandler) Plan(w http.ResponseWriter, r *http.Request) {
	strategy, err := service.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	extra, err := queryFloat(r, "extra_payment", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "schedule_months", service.DefaultScheduleMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Plan(r.Context(), service.PlanInput{
		Strategy:       strategy,
		ExtraPayment:   extra,
		ScheduleMonths: service.ClampScheduleMonths(months),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *DebtHandler) Compare(w http.ResponseWriter, r *http.Request) {
	extra, err := queryFloat(r, "extra_payment", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.service.Compare(r.Context(), extra)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
