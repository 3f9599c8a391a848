package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/kdramahub/internal/credential"
	"github.com/maynagashev/kdramahub/internal/handlers"
	appmiddleware "github.com/maynagashev/kdramahub/internal/middleware"
	"github.com/maynagashev/kdramahub/internal/repository"
	"github.com/maynagashev/kdramahub/internal/services"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 30 * time.Second
	schemaTimeout       = 30 * time.Second

	generatedSecretSize = 32
)

// newPostgresDB подменяется в тестах.
var newPostgresDB = repository.NewPostgresDB

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db             *sqlx.DB
	guard          *appmiddleware.SessionGuard
	authHandler    *handlers.AuthHandler
	sessionHandler *handlers.SessionHandler
	articleHandler *handlers.ArticleHandler
	dashHandler    *handlers.DashboardHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера KDramaHub...")

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	deps, err := setupDependencies(cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}()

	r := setupRouter(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if cfg.tlsEnabled() {
		log.Printf("Запуск HTTPS-сервера на порту %s (окружение: %s)...", cfg.Port, cfg.Env)
		log.Printf("Используется сертификат: %s", cfg.CertFile)
		log.Printf("Используется ключ: %s", cfg.KeyFile)
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		log.Printf("ВНИМАНИЕ: TLS не настроен, запуск HTTP-сервера на порту %s (окружение: %s)...", cfg.Port, cfg.Env)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и схема
	deps.db, err = newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err = repository.EnsureSchema(ctx, deps.db); err != nil {
		closeDB(deps.db)
		return nil, err
	}

	// 2. Кодек cookie сессии
	secret, err := cookieSigningKey(cfg)
	if err != nil {
		closeDB(deps.db)
		return nil, err
	}
	codec, err := credential.NewCodec(credential.ConfigFor(cfg.Env, secret))
	if err != nil {
		closeDB(deps.db)
		return nil, fmt.Errorf("ошибка инициализации cookie сессии: %w", err)
	}
	log.Printf("Cookie сессии: %s", codec.Name())

	// 3. Создание репозиториев
	adminRepo := repository.NewPostgresAdminRepository(deps.db)
	sessionRepo := repository.NewPostgresSessionRepository(deps.db)
	articleRepo := repository.NewPostgresArticleRepository(deps.db)
	versionRepo := repository.NewPostgresArticleVersionRepository(deps.db)

	// 4. Создание сервисов
	authService := services.NewAuthService(adminRepo, sessionRepo)
	sessionService := services.NewSessionService(sessionRepo)
	articleService := services.NewArticleService(articleRepo, versionRepo)
	dashboardService := services.NewDashboardService(articleRepo, sessionRepo)

	// 5. Создание обработчиков
	deps.guard = appmiddleware.NewSessionGuard(codec, sessionRepo)
	deps.authHandler = handlers.NewAuthHandler(authService, codec)
	deps.sessionHandler = handlers.NewSessionHandler(sessionService, codec)
	deps.articleHandler = handlers.NewArticleHandler(articleService)
	deps.dashHandler = handlers.NewDashboardHandler(dashboardService)

	return deps, nil
}

// cookieSigningKey возвращает ключ подписи cookie.
// В разработке без заданного ключа генерируется случайный: сессии не переживут перезапуск.
func cookieSigningKey(cfg *config) ([]byte, error) {
	if cfg.CookieSecret != "" {
		return []byte(cfg.CookieSecret), nil
	}
	if cfg.isProduction() {
		return nil, errors.New("ключ подписи cookie обязателен в продакшене")
	}

	key := make([]byte, generatedSecretSize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("ошибка генерации ключа подписи cookie: %w", err)
	}
	log.Printf("ВНИМАНИЕ: %s не задан, сгенерирован временный ключ подписи cookie", envCookieSecret)
	return key, nil
}

func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Ошибка закрытия соединения с БД: %v", err)
	}
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/admin", func(r chi.Router) {
		// Публичные маршруты (первичная настройка, вход, выход)
		r.Get("/setup", deps.authHandler.SetupStatus)
		r.Post("/setup", deps.authHandler.Setup)
		r.Post("/login", deps.authHandler.Login)
		r.Post("/logout", deps.authHandler.Logout)

		// Приватные маршруты (требуют валидной сессии)
		r.Group(func(r chi.Router) {
			r.Use(deps.guard.RequireSession)

			r.Get("/me", deps.authHandler.Me)
			r.Get("/summary", deps.dashHandler.Summary)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", deps.sessionHandler.List)
				r.Delete("/", deps.sessionHandler.RevokeAll)
				r.Delete("/{id}", deps.sessionHandler.Revoke)
			})

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", deps.articleHandler.List)
				r.Post("/", deps.articleHandler.Create)
				r.Get("/{id}", deps.articleHandler.Get)
				r.Put("/{id}", deps.articleHandler.Update)
				r.Delete("/{id}", deps.articleHandler.Delete)
				r.Get("/{id}/versions", deps.articleHandler.ListVersions)
			})
		})
	})

	// Публичные статьи: администратор с сессией видит и черновики
	r.Group(func(r chi.Router) {
		r.Use(deps.guard.ProbeSession)

		r.Get("/articles", deps.articleHandler.ListPublished)
		r.Get("/articles/{slug}", deps.articleHandler.GetBySlug)
	})

	return r
}
