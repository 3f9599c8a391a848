package models

import "time"

// Admin представляет администратора сайта.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        *string   `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	DisplayName  *string   `db:"display_name" json:"display_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SetupRequest представляет тело запроса первичной настройки (создание первого администратора).
type SetupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ClientInfo описывает клиента, для которого создается сессия.
type ClientInfo struct {
	UserAgent *string
	IP        *string
}
