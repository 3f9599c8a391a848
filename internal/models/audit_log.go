package models

import "time"

// AuditLog - запись общего журнала действий.
// Таблица audit_log зарезервирована: схема есть, но ни один сценарий ее пока не заполняет.
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	ActorID    *int64    `db:"actor_id" json:"actor_id,omitempty"`
	Action     *string   `db:"action" json:"action,omitempty"`
	TargetType *string   `db:"target_type" json:"target_type,omitempty"`
	TargetID   *string   `db:"target_id" json:"target_id,omitempty"`
	Payload    *string   `db:"payload" json:"payload,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
