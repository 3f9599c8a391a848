package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
)

// AuthService определяет интерфейс для сервиса аутентификации администраторов.
type AuthService interface {
	NeedsSetup(ctx context.Context) (bool, error)
	Setup(ctx context.Context, req models.SetupRequest, client models.ClientInfo) (string, error)
	Login(ctx context.Context, username, password string, client models.ClientInfo) (string, error)
	Logout(ctx context.Context, token string) error
	GetAdmin(ctx context.Context, adminID int64) (*models.Admin, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(adminRepo repository.AdminRepository, sessionRepo repository.SessionRepository) AuthService {
	return &authService{adminRepo: adminRepo, sessionRepo: sessionRepo}
}

// NeedsSetup сообщает, что администраторов еще нет и нужна первичная настройка.
func (s *authService) NeedsSetup(ctx context.Context) (bool, error) {
	hasAdmins, err := s.adminRepo.HasAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("внутренняя ошибка сервера при проверке администраторов: %w", err)
	}
	return !hasAdmins, nil
}

// Setup создает первого администратора и сразу открывает для него сессию.
// Возвращает токен новой сессии.
func (s *authService) Setup(ctx context.Context, req models.SetupRequest, client models.ClientInfo) (string, error) {
	needsSetup, err := s.NeedsSetup(ctx)
	if err != nil {
		return "", err
	}
	if !needsSetup {
		log.Printf("[AuthService] Повторная попытка первичной настройки отклонена")
		return "", ErrAlreadyInitialized
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return "", fmt.Errorf("%w: нужно имя пользователя", ErrValidation)
	}
	if err = validatePassword(req.Password); err != nil {
		return "", err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AuthService] Ошибка хеширования пароля для '%s': %v", username, err)
		return "", errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	admin := &models.Admin{
		Username:     username,
		Email:        optionalString(req.Email),
		PasswordHash: passwordHash,
		DisplayName:  optionalString(req.DisplayName),
	}

	adminID, err := s.adminRepo.CreateAdmin(ctx, admin)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return "", ErrUsernameTaken
		}
		if errors.Is(err, repository.ErrAdminsExist) {
			log.Printf("[AuthService] Администратор создан параллельным запросом, настройка '%s' отклонена", username)
			return "", ErrAlreadyInitialized
		}
		log.Printf("[AuthService] Ошибка создания администратора '%s': %v", username, err)
		return "", fmt.Errorf("внутренняя ошибка сервера при создании администратора: %w", err)
	}

	token, err := s.sessionRepo.CreateSession(ctx, adminID, client.UserAgent, client.IP)
	if err != nil {
		log.Printf("[AuthService] Ошибка создания сессии после настройки для '%s': %v", username, err)
		return "", fmt.Errorf("внутренняя ошибка сервера при создании сессии: %w", err)
	}

	log.Printf("[AuthService] Первичная настройка завершена, администратор '%s' (ID %d)", username, adminID)
	return token, nil
}

// Login проверяет имя и пароль и открывает новую сессию.
func (s *authService) Login(
	ctx context.Context,
	username, password string,
	client models.ClientInfo,
) (string, error) {
	admin, err := s.adminRepo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			log.Printf("[AuthService] Попытка входа несуществующего администратора: %s", username)
			return "", ErrInvalidCredentials // Общая ошибка для несуществующего пользователя и неверного пароля
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске '%s': %v", username, err)
		return "", fmt.Errorf("внутренняя ошибка сервера при поиске администратора: %w", err)
	}

	ok, err := verifyPassword(admin.PasswordHash, password)
	if err != nil {
		log.Printf("[AuthService] Поврежденный хеш пароля у администратора '%s': %v", username, err)
		return "", fmt.Errorf("внутренняя ошибка сервера при проверке пароля: %w", err)
	}
	if !ok {
		log.Printf("[AuthService] Неверный пароль для администратора: %s", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.sessionRepo.CreateSession(ctx, admin.ID, client.UserAgent, client.IP)
	if err != nil {
		log.Printf("[AuthService] Ошибка создания сессии для '%s': %v", username, err)
		return "", fmt.Errorf("внутренняя ошибка сервера при создании сессии: %w", err)
	}

	log.Printf("[AuthService] Администратор '%s' успешно вошел", username)
	return token, nil
}

// Logout завершает сессию. Повторный выход не является ошибкой.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.RevokeSession(ctx, token); err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при завершении сессии: %w", err)
	}
	return nil
}

// GetAdmin возвращает администратора по ID.
func (s *authService) GetAdmin(ctx context.Context, adminID int64) (*models.Admin, error) {
	admin, err := s.adminRepo.GetAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении администратора: %w", err)
	}
	return admin, nil
}

// optionalString превращает пустую строку в nil для nullable-колонок.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
