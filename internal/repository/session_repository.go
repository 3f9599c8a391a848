package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/kdramahub/internal/models"
)

// SessionRepository определяет операции жизненного цикла сессий администраторов.
type SessionRepository interface {
	CreateSession(ctx context.Context, adminID int64, userAgent, ip *string) (string, error)
	ValidateSession(ctx context.Context, token string) (*models.Session, error)
	RevokeSession(ctx context.Context, token string) error
	RevokeAdminSessions(ctx context.Context, adminID int64) (int64, error)
	ListSessionsForAudit(ctx context.Context) ([]models.SessionWithAdmin, error)
	CountSessions(ctx context.Context) (int64, error)
}

// postgresSessionRepository реализует SessionRepository для PostgreSQL.
type postgresSessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresSessionRepository создает новый экземпляр репозитория сессий.
func NewPostgresSessionRepository(db *sqlx.DB) SessionRepository {
	return NewPostgresSessionRepositoryWithClock(db, time.Now)
}

// NewPostgresSessionRepositoryWithClock создает репозиторий сессий с заданным источником времени.
func NewPostgresSessionRepositoryWithClock(db *sqlx.DB, now func() time.Time) SessionRepository {
	if now == nil {
		now = time.Now
	}
	return &postgresSessionRepository{db: db, now: now}
}

// CreateSession создает сессию для администратора и возвращает ее токен.
// Токен - случайный UUID v4 (crypto/rand), он же первичный ключ.
// Коллизии не обрабатываются: при такой энтропии они практически невозможны.
func (r *postgresSessionRepository) CreateSession(
	ctx context.Context,
	adminID int64,
	userAgent, ip *string,
) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("[SessionRepo] Ошибка генерации токена сессии: %v", err)
		return "", fmt.Errorf("ошибка генерации токена сессии: %w", err)
	}
	token := id.String()
	expiresAt := r.now().Add(models.SessionTTL)

	query := `INSERT INTO sessions (id, admin_id, user_agent, ip, expires_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err = r.db.ExecContext(ctx, query, token, adminID, userAgent, ip, expiresAt); err != nil {
		log.Printf("[SessionRepo] Ошибка создания сессии для администратора ID %d: %v", adminID, err)
		return "", fmt.Errorf("ошибка выполнения запроса на создание сессии: %w", err)
	}

	log.Printf("[SessionRepo] Сессия %s создана для администратора ID %d", shortToken(token), adminID)
	return token, nil
}

// ValidateSession возвращает сессию по токену, если она существует и не истекла.
// Истекшие записи не удаляются: очистка - отдельная эксплуатационная задача.
func (r *postgresSessionRepository) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	query := `SELECT id, admin_id, user_agent, ip, created_at, expires_at FROM sessions WHERE id=$1`
	var session models.Session

	err := r.db.GetContext(ctx, &session, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[SessionRepo] Сессия %s не найдена", shortToken(token))
			return nil, ErrSessionNotFound
		}
		log.Printf("[SessionRepo] Ошибка при поиске сессии %s: %v", shortToken(token), err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение сессии: %w", err)
	}

	if !session.IsValidAt(r.now()) {
		log.Printf("[SessionRepo] Сессия %s истекла", shortToken(token))
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// RevokeSession удаляет сессию. Удаление отсутствующей сессии не является ошибкой.
func (r *postgresSessionRepository) RevokeSession(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		log.Printf("[SessionRepo] Ошибка удаления сессии %s: %v", shortToken(token), err)
		return fmt.Errorf("ошибка выполнения запроса на удаление сессии: %w", err)
	}

	if n, rowsErr := res.RowsAffected(); rowsErr == nil && n == 0 {
		log.Printf("[SessionRepo] Сессия %s уже отсутствует", shortToken(token))
		return nil
	}

	log.Printf("[SessionRepo] Сессия %s удалена", shortToken(token))
	return nil
}

// RevokeAdminSessions удаляет все сессии администратора и возвращает их количество.
func (r *postgresSessionRepository) RevokeAdminSessions(ctx context.Context, adminID int64) (int64, error) {
	query := `DELETE FROM sessions WHERE admin_id=$1`

	res, err := r.db.ExecContext(ctx, query, adminID)
	if err != nil {
		log.Printf("[SessionRepo] Ошибка удаления сессий администратора ID %d: %v", adminID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на удаление сессий: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения количества удаленных сессий: %w", err)
	}

	log.Printf("[SessionRepo] Удалено %d сессий администратора ID %d", n, adminID)
	return n, nil
}

// ListSessionsForAudit возвращает все сессии вместе с именами владельцев, сначала новые.
func (r *postgresSessionRepository) ListSessionsForAudit(ctx context.Context) ([]models.SessionWithAdmin, error) {
	query := `SELECT s.id, s.admin_id, s.user_agent, s.ip, s.created_at, s.expires_at, a.username
	          FROM sessions s
	          JOIN admins a ON s.admin_id = a.id
	          ORDER BY s.created_at DESC`

	sessions := make([]models.SessionWithAdmin, 0)
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		log.Printf("[SessionRepo] Ошибка при получении списка сессий: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка сессий: %w", err)
	}

	log.Printf("[SessionRepo] Получено %d сессий", len(sessions))
	return sessions, nil
}

// CountSessions возвращает количество записей сессий, включая истекшие, но еще не удаленные.
func (r *postgresSessionRepository) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sessions`); err != nil {
		log.Printf("[SessionRepo] Ошибка подсчета сессий: %v", err)
		return 0, fmt.Errorf("ошибка выполнения запроса на подсчет сессий: %w", err)
	}
	return count, nil
}

// shortToken укорачивает токен для логов, чтобы не писать его целиком.
func shortToken(token string) string {
	const visible = 8
	if len(token) <= visible {
		return token
	}
	return token[:visible] + "..."
}
