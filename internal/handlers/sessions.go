package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/kdramahub/internal/middleware"
	"github.com/maynagashev/kdramahub/internal/services"
)

// SessionHandler обрабатывает запросы аудита и отзыва сессий.
type SessionHandler struct {
	service services.SessionService
	cookies SessionCookies
}

// NewSessionHandler создает новый экземпляр SessionHandler.
func NewSessionHandler(s services.SessionService, cookies SessionCookies) *SessionHandler {
	return &SessionHandler{service: s, cookies: cookies}
}

// List возвращает все сессии всех администраторов, текущая помечена флагом current.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[SessionHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), current.ID)
	if err != nil {
		log.Printf("[SessionHandler] Ошибка получения списка сессий: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Revoke отзывает сессию по идентификатору. Повторный отзыв не является ошибкой.
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[SessionHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	token := chi.URLParam(r, "id")
	if token == "" {
		http.Error(w, "Не указан идентификатор сессии", http.StatusBadRequest)
		return
	}

	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		log.Printf("[SessionHandler] Ошибка отзыва сессии: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	// Отозвана собственная сессия - cookie больше не нужна
	if token == current.ID {
		w.Header().Add("Set-Cookie", h.cookies.EncodeClear())
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeAll отзывает все сессии текущего администратора, включая текущую.
func (h *SessionHandler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[SessionHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	if _, err := h.service.RevokeAdminSessions(r.Context(), current.AdminID); err != nil {
		log.Printf("[SessionHandler] Ошибка отзыва сессий администратора %d: %v", current.AdminID, err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Set-Cookie", h.cookies.EncodeClear())
	w.WriteHeader(http.StatusNoContent)
}
