package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/kdramahub/internal/models"
)

// AdminRepository определяет методы для работы с администраторами в хранилище.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) (int64, error)
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, adminID int64) (*models.Admin, error)
	HasAdmins(ctx context.Context) (bool, error)
}

// postgresAdminRepository реализует AdminRepository для PostgreSQL.
type postgresAdminRepository struct {
	db *sqlx.DB
}

// NewPostgresAdminRepository создает новый экземпляр репозитория администраторов для PostgreSQL.
func NewPostgresAdminRepository(db *sqlx.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

// CreateAdmin создает первого администратора.
// Таблица блокируется на время транзакции, поэтому из двух параллельных
// настроек проходит одна. Возвращает ID созданной записи,
// ErrAdminsExist, если администратор уже есть, или ErrUsernameTaken.
func (r *postgresAdminRepository) CreateAdmin(ctx context.Context, admin *models.Admin) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции создания администратора: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // После Commit ничего не делает

	if _, err = tx.ExecContext(ctx, `LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		log.Printf("[AdminRepo] Ошибка блокировки таблицы администраторов: %v", err)
		return 0, fmt.Errorf("ошибка блокировки таблицы администраторов: %w", err)
	}

	query := `INSERT INTO admins (username, email, password_hash, display_name)` +
		` SELECT $1::text, $2::text, $3::text, $4::text` +
		` WHERE NOT EXISTS (SELECT 1 FROM admins) RETURNING id`
	var adminID int64

	err = tx.QueryRowxContext(ctx, query,
		admin.Username, admin.Email, admin.PasswordHash, admin.DisplayName,
	).Scan(&adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[AdminRepo] Администратор уже существует, '%s' не создан", admin.Username)
			return 0, ErrAdminsExist
		}
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[AdminRepo] Ошибка создания администратора: имя '%s' уже занято", admin.Username)
			return 0, ErrUsernameTaken
		}
		log.Printf("[AdminRepo] Непредвиденная ошибка при создании администратора '%s': %v", admin.Username, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание администратора: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции создания администратора: %w", err)
	}

	log.Printf("[AdminRepo] Администратор '%s' создан с ID %d", admin.Username, adminID)
	return adminID, nil
}

// GetAdminByUsername находит администратора по имени пользователя.
func (r *postgresAdminRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT id, username, email, password_hash, display_name, created_at FROM admins WHERE username=$1`
	var admin models.Admin

	err := r.db.GetContext(ctx, &admin, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[AdminRepo] Администратор с именем '%s' не найден", username)
			return nil, ErrAdminNotFound
		}
		log.Printf("[AdminRepo] Ошибка при поиске администратора '%s': %v", username, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение администратора: %w", err)
	}

	return &admin, nil
}

// GetAdminByID находит администратора по ID.
func (r *postgresAdminRepository) GetAdminByID(ctx context.Context, adminID int64) (*models.Admin, error) {
	query := `SELECT id, username, email, password_hash, display_name, created_at FROM admins WHERE id=$1`
	var admin models.Admin

	err := r.db.GetContext(ctx, &admin, query, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[AdminRepo] Администратор с ID %d не найден", adminID)
			return nil, ErrAdminNotFound
		}
		log.Printf("[AdminRepo] Ошибка при поиске администратора ID %d: %v", adminID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение администратора: %w", err)
	}

	return &admin, nil
}

// HasAdmins сообщает, создан ли хотя бы один администратор.
// Используется для первичной настройки сайта.
func (r *postgresAdminRepository) HasAdmins(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admins)`
	var exists bool

	if err := r.db.GetContext(ctx, &exists, query); err != nil {
		log.Printf("[AdminRepo] Ошибка проверки наличия администраторов: %v", err)
		return false, fmt.Errorf("ошибка выполнения запроса на проверку администраторов: %w", err)
	}
	return exists, nil
}
