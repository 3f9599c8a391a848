package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/maynagashev/kdramahub/internal/credential"
)

const (
	// Порт по умолчанию для HTTPS (непривилегированный).
	defaultServerPort = "8443"
	defaultEnv        = credential.EnvDevelopment

	// Переменные окружения.
	envServerPort   = "SERVER_PORT"
	envTLSCertFile  = "TLS_CERT_FILE"
	envTLSKeyFile   = "TLS_KEY_FILE"
	envDatabaseDSN  = "DATABASE_DSN"
	envAppEnv       = "APP_ENV"
	envCookieSecret = "COOKIE_SECRET" //nolint:gosec // Это имя переменной окружения, а не секрет
)

// config хранит конфигурацию сервера.
type config struct {
	Port         string
	CertFile     string
	KeyFile      string
	DatabaseDSN  string
	Env          string
	CookieSecret string
}

// isProduction сообщает, запущен ли сервер в продакшене.
func (c *config) isProduction() bool {
	return c.Env == credential.EnvProduction
}

// tlsEnabled сообщает, заданы ли файлы сертификата и ключа.
func (c *config) tlsEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
func parseFlags() (*config, error) {
	cfg := &config{}

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.Env, "env", "",
		fmt.Sprintf("Окружение: production или development (env: %s, default: %s)", envAppEnv, defaultEnv))
	flag.StringVar(&cfg.CookieSecret, "cookie-secret", "",
		fmt.Sprintf("Ключ подписи cookie сессии (env: %s)", envCookieSecret))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	cfg.Port = fromEnv(cfg.Port, envServerPort, defaultServerPort)
	cfg.CertFile = fromEnv(cfg.CertFile, envTLSCertFile, "")
	cfg.KeyFile = fromEnv(cfg.KeyFile, envTLSKeyFile, "")
	cfg.DatabaseDSN = fromEnv(cfg.DatabaseDSN, envDatabaseDSN, "")
	cfg.Env = fromEnv(cfg.Env, envAppEnv, defaultEnv)
	cfg.CookieSecret = fromEnv(cfg.CookieSecret, envCookieSecret, "")

	// Проверяем обязательные параметры
	if cfg.Env != credential.EnvProduction && cfg.Env != credential.EnvDevelopment {
		return nil, fmt.Errorf("неизвестное окружение '%s' (--env или %s)", cfg.Env, envAppEnv)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if cfg.isProduction() {
		if cfg.CertFile == "" {
			return nil, errors.New("не указан путь к файлу сертификата (--cert-file или " + envTLSCertFile + ")")
		}
		if cfg.KeyFile == "" {
			return nil, errors.New("не указан путь к файлу ключа (--key-file или " + envTLSKeyFile + ")")
		}
		if cfg.CookieSecret == "" {
			return nil, errors.New("не указан ключ подписи cookie (--cookie-secret или " + envCookieSecret + ")")
		}
	}

	return cfg, nil
}

// fromEnv возвращает значение флага, иначе переменной окружения, иначе значение по умолчанию.
func fromEnv(flagValue, key, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
