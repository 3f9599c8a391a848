package repository

import (
	"context"
	_ "embed" // Схема БД встраивается в бинарник
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
)

const (
	maxOpenConns    = 25              // Максимальное количество открытых соединений
	maxIdleConns    = 25              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

//go:embed schema.sql
var schemaSQL string

// NewPostgresDB создает и возвращает новое подключение к PostgreSQL.
func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	log.Printf("Подключение к PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Проверка соединения
	if err = db.Ping(); err != nil {
		// Закрываем соединение в случае ошибки пинга
		closeErr := db.Close()
		if closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД после неудачного пинга: %v", closeErr)
		}
		return nil, fmt.Errorf("ошибка проверки соединения с БД (ping): %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Println("Подключение к PostgreSQL успешно установлено.")
	return db, nil
}

// EnsureSchema создает недостающие таблицы и индексы.
// Все выражения схемы идемпотентны (IF NOT EXISTS), поэтому вызов безопасен при каждом старте.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.New("соединение с БД не инициализировано")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ошибка применения схемы БД: %w", err)
	}
	log.Println("Схема БД актуальна.")
	return nil
}

// Кастомные ошибки репозиториев.
var (
	ErrAdminNotFound   = errors.New("администратор не найден")
	ErrUsernameTaken   = errors.New("имя пользователя уже занято")
	ErrAdminsExist     = errors.New("администратор уже существует")
	ErrSessionNotFound = errors.New("сессия не найдена или истекла")
	ErrArticleNotFound = errors.New("статья не найдена")
	ErrSlugTaken       = errors.New("эта ссылка (slug) уже используется другой статьей")
)
