package handlers

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/kdramahub/internal/models"
)

// Куда попадает администратор после входа.
const adminHomePath = "/admin"

// SessionCookies кодирует токен сессии в cookie и обратно.
type SessionCookies interface {
	Encode(token string) string
	EncodeClear() string
	DecodeRequest(r *http.Request) (string, bool)
}

// writeJSON отправляет ответ в JSON.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handlers] Ошибка кодирования JSON ответа: %v", err)
	}
}

// clientInfoFromRequest собирает данные клиента для новой сессии.
func clientInfoFromRequest(r *http.Request) models.ClientInfo {
	var info models.ClientInfo
	if ua := r.UserAgent(); ua != "" {
		info.UserAgent = &ua
	}

	ip := r.Header.Get("CF-Connecting-IP")
	if ip == "" {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip = strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
	}
	if ip != "" {
		info.IP = &ip
	}
	return info
}

// idParam разбирает числовой параметр маршрута.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pagination разбирает limit и offset (простой вариант, без строгой валидации).
func pagination(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 { // Ограничиваем максимальный лимит
		limit = 20 // Значение по умолчанию
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
