package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения сессии администратора в контексте.
const SessionKey contextKey = "adminSession"

// LoginPath - страница входа, куда перенаправляются неаутентифицированные запросы.
const LoginPath = "/admin/login"

// CredentialCodec извлекает токен сессии из запроса и формирует удаляющую cookie.
type CredentialCodec interface {
	DecodeRequest(r *http.Request) (string, bool)
	Present(r *http.Request) bool
	EncodeClear() string
}

// AuthResult - результат проверки доступа.
// Либо Session != nil (аутентифицирован), либо задан RedirectTo.
// ClearCookie непустой, только если клиент прислал невалидную или истекшую cookie.
// Err - ошибка хранилища, в этом случае ни Session, ни RedirectTo не заданы.
type AuthResult struct {
	Session     *models.Session
	RedirectTo  string
	ClearCookie string
	Err         error
}

// Authenticated сообщает, что запрос выполнен администратором с валидной сессией.
func (r AuthResult) Authenticated() bool {
	return r.Session != nil
}

// SessionGuard - единая точка авторизации привилегированных операций.
type SessionGuard struct {
	codec     CredentialCodec
	sessions  repository.SessionRepository
	loginPath string
}

// NewSessionGuard создает новый SessionGuard.
func NewSessionGuard(codec CredentialCodec, sessions repository.SessionRepository) *SessionGuard {
	return &SessionGuard{codec: codec, sessions: sessions, loginPath: LoginPath}
}

// GetSession возвращает валидную сессию запроса или nil, если ее нет.
// Ошибка возвращается только при сбое хранилища.
func (g *SessionGuard) GetSession(r *http.Request) (*models.Session, error) {
	token, ok := g.codec.DecodeRequest(r)
	if !ok {
		return nil, nil //nolint:nilnil // Отсутствие сессии - не ошибка
	}

	session, err := g.sessions.ValidateSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil //nolint:nilnil // Отсутствие сессии - не ошибка
		}
		return nil, err
	}
	return session, nil
}

// Check проверяет доступ и возвращает результат, который вызывающая сторона обязана разобрать.
func (g *SessionGuard) Check(r *http.Request) AuthResult {
	session, err := g.GetSession(r)
	if err != nil {
		return AuthResult{Err: err}
	}
	if session != nil {
		return AuthResult{Session: session}
	}

	result := AuthResult{RedirectTo: g.loginPath}
	// Поддельная или истекшая cookie не должна оставаться у клиента,
	// а если cookie не было, удалять нечего.
	if g.codec.Present(r) {
		result.ClearCookie = g.codec.EncodeClear()
	}
	return result
}

// RequireSession пропускает запрос дальше только с валидной сессией.
// Иначе отвечает редиректом на страницу входа (с удалением устаревшей cookie).
func (g *SessionGuard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := g.Check(r)

		switch {
		case result.Err != nil:
			log.Printf("[SessionGuard] Ошибка проверки сессии: %v", result.Err)
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		case !result.Authenticated():
			if result.ClearCookie != "" {
				log.Printf("[SessionGuard] Невалидная cookie сессии, удаляем и перенаправляем на %s", result.RedirectTo)
				w.Header().Add("Set-Cookie", result.ClearCookie)
			}
			http.Redirect(w, r, result.RedirectTo, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, result.Session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProbeSession кладет сессию в контекст, если она есть, но никогда не прерывает запрос.
// Используется там, где анонимный доступ допустим (например, предпросмотр черновиков).
func (g *SessionGuard) ProbeSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.GetSession(r)
		if err != nil {
			log.Printf("[SessionGuard] Ошибка проверки сессии: %v", err)
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
		if session != nil {
			r = r.WithContext(context.WithValue(r.Context(), SessionKey, session))
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext извлекает сессию администратора из контекста запроса.
// Возвращает сессию и true, если она найдена, иначе nil и false.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}
