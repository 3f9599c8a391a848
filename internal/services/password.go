package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	passwordHashCost  = 12 // Стоимость bcrypt для новых паролей
	minPasswordLength = 8  // В символах
	maxPasswordBytes  = 72 // Предел bcrypt, длиннее хешировать нельзя
)

// hashPassword возвращает bcrypt-хеш пароля.
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hashed), nil
}

// validatePassword проверяет длину нового пароля.
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: пароль должен быть не короче %d символов", ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: пароль длиннее %d байт", ErrValidation, maxPasswordBytes)
	}
	return nil
}

// verifyPassword сравнивает пароль с хешем.
// Несовпадение - это false без ошибки; ошибка возвращается только для поврежденного хеша.
func verifyPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("ошибка проверки хеша пароля: %w", err)
	}
}
