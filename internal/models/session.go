package models

import "time"

// SessionTTL - время жизни сессии и cookie с ее токеном (7 дней).
const SessionTTL = 7 * 24 * time.Hour

// Session представляет одну аутентифицированную сессию администратора.
// ID - это сам токен сессии, он же первичный ключ в таблице sessions.
type Session struct {
	ID        string     `db:"id" json:"-"` // Токен не отдаем в JSON
	AdminID   int64      `db:"admin_id" json:"admin_id"`
	UserAgent *string    `db:"user_agent" json:"user_agent,omitempty"`
	IP        *string    `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"` // может быть NULL
}

// IsValidAt сообщает, действительна ли сессия на момент now.
// Граница исключается: сессия с expires_at == now считается истекшей.
func (s *Session) IsValidAt(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// SessionWithAdmin - сессия вместе с именем владельца, для экрана управления сессиями.
type SessionWithAdmin struct {
	Session
	Username string `db:"username" json:"username"`
}

// SessionView - представление сессии в ответе API управления сессиями.
type SessionView struct {
	ID        string     `json:"id"`
	AdminID   int64      `json:"admin_id"`
	Username  string     `json:"username"`
	UserAgent *string    `json:"user_agent,omitempty"`
	IP        *string    `json:"ip,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Current   bool       `json:"current"`
}
