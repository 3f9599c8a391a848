package services

import "errors"

// Кастомные ошибки сервисов.
var (
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrAlreadyInitialized = errors.New("администратор уже создан, первичная настройка недоступна")
	ErrAdminNotFound      = errors.New("администратор не найден")
	ErrValidation         = errors.New("некорректные данные")
	ErrArticleNotFound    = errors.New("статья не найдена")
	ErrSlugTaken          = errors.New("эта ссылка (slug) уже используется другой статьей")
)
