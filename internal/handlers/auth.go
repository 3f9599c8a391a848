package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/maynagashev/kdramahub/internal/middleware"
	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/services"
)

// AuthHandler обрабатывает HTTP-запросы первичной настройки, входа и выхода.
type AuthHandler struct {
	service services.AuthService // Зависимость от интерфейса, а не конкретной реализации
	cookies SessionCookies
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{service: s, cookies: cookies}
}

// SetupStatus сообщает, нужна ли первичная настройка.
func (h *AuthHandler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	needsSetup, err := h.service.NeedsSetup(r.Context())
	if err != nil {
		log.Printf("[AuthHandler] Ошибка проверки первичной настройки: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"needs_setup": needsSetup})
}

// Setup создает первого администратора и сразу выполняет вход.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req models.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса настройки: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	token, err := h.service.Setup(r.Context(), req, clientInfoFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrAlreadyInitialized), errors.Is(err, services.ErrUsernameTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("[AuthHandler] Ошибка первичной настройки: %v", err)
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Add("Set-Cookie", h.cookies.Encode(token))
	http.Redirect(w, r, adminHomePath, http.StatusSeeOther)
}

// Login обрабатывает запрос на вход администратора.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса входа: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Имя пользователя и пароль не могут быть пустыми", http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password, clientInfoFromRequest(r))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.Printf("[AuthHandler] Ошибка входа: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Set-Cookie", h.cookies.Encode(token))
	http.Redirect(w, r, adminHomePath, http.StatusSeeOther)
}

// Logout завершает текущую сессию и удаляет cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := h.cookies.DecodeRequest(r)
	if err := h.service.Logout(r.Context(), token); err != nil {
		log.Printf("[AuthHandler] Ошибка выхода: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Set-Cookie", h.cookies.EncodeClear())
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}

// Me возвращает текущего администратора.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[AuthHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	admin, err := h.service.GetAdmin(r.Context(), session.AdminID)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			http.Error(w, "Администратор не найден", http.StatusNotFound)
			return
		}
		log.Printf("[AuthHandler] Ошибка получения администратора %d: %v", session.AdminID, err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, admin)
}
