package handlers

import (
	"log"
	"net/http"

	"github.com/maynagashev/kdramahub/internal/services"
)

// DashboardHandler отдает сводку главной страницы админки.
type DashboardHandler struct {
	service services.DashboardService
}

// NewDashboardHandler создает новый экземпляр DashboardHandler.
func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// Summary возвращает количество статей и сессий и пять последних статей.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		log.Printf("[DashboardHandler] Ошибка получения сводки: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
