// Package mocks содержит моки репозиториев для тестов сервисов и middleware.
package mocks

import (
	"context"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.AdminRepository = (*AdminRepository)(nil)

// AdminRepository - мок repository.AdminRepository.
type AdminRepository struct {
	mock.Mock
}

func (m *AdminRepository) CreateAdmin(ctx context.Context, admin *models.Admin) (int64, error) {
	args := m.Called(ctx, admin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AdminRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(ctx, username)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Error(1)
}

func (m *AdminRepository) GetAdminByID(ctx context.Context, adminID int64) (*models.Admin, error) {
	args := m.Called(ctx, adminID)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Error(1)
}

func (m *AdminRepository) HasAdmins(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
