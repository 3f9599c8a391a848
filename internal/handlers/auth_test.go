package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/kdramahub/internal/credential"
	"github.com/maynagashev/kdramahub/internal/handlers"
	"github.com/maynagashev/kdramahub/internal/middleware"
	"github.com/maynagashev/kdramahub/internal/mocks"
	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock AuthService --- //

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) NeedsSetup(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) Setup(
	ctx context.Context,
	req models.SetupRequest,
	client models.ClientInfo,
) (string, error) {
	args := m.Called(ctx, req, client)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(
	ctx context.Context,
	username, password string,
	client models.ClientInfo,
) (string, error) {
	args := m.Called(ctx, username, password, client)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) GetAdmin(ctx context.Context, adminID int64) (*models.Admin, error) {
	args := m.Called(ctx, adminID)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Error(1)
}

// --- Helpers --- //

func newTestCodec(t *testing.T) *credential.Codec {
	t.Helper()
	codec, err := credential.NewCodec(credential.ConfigFor(credential.EnvDevelopment, []byte("test-key")))
	require.NoError(t, err)
	return codec
}

// withSession кладет сессию в контекст запроса, как это делает SessionGuard.
func withSession(req *http.Request, session *models.Session) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, session))
}

// sessionCookie превращает Set-Cookie кодека в cookie запроса.
func sessionCookie(t *testing.T, codec *credential.Codec, token string) *http.Cookie {
	t.Helper()
	resp := http.Response{Header: http.Header{"Set-Cookie": {codec.Encode(token)}}}
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

// Вспомогательная функция для создания роутера с обработчиком.
func setupAuthRouter(h *handlers.AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/admin/setup", h.SetupStatus)
	r.Post("/admin/setup", h.Setup)
	r.Post("/admin/login", h.Login)
	r.Post("/admin/logout", h.Logout)
	r.Get("/admin/me", h.Me)
	return r
}

// --- Tests --- //

func TestNewAuthHandler(t *testing.T) {
	h := handlers.NewAuthHandler(new(MockAuthService), newTestCodec(t))
	assert.NotNil(t, h)
}

func TestAuthHandler_SetupStatus(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("NeedsSetup", mock.Anything).Return(true, nil).Once()
	r := setupAuthRouter(handlers.NewAuthHandler(mockService, newTestCodec(t)))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/setup", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"needs_setup": true}`, rr.Body.String())
}

func TestAuthHandler_Setup(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockReturn     string
		mockError      error
		expectCall     bool
		expectedStatus int
		expectCookie   bool
	}{
		{
			name:           "Успешная настройка",
			body:           `{"username": "admin", "password": "password123"}`,
			mockReturn:     "token-1",
			expectCall:     true,
			expectedStatus: http.StatusSeeOther,
			expectCookie:   true,
		},
		{
			name:           "Невалидный JSON",
			body:           `{"username": "admin"`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Уже настроено",
			body:           `{"username": "admin", "password": "password123"}`,
			mockError:      services.ErrAlreadyInitialized,
			expectCall:     true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Некорректные данные",
			body:           `{"username": "admin", "password": "short"}`,
			mockError:      services.ErrValidation,
			expectCall:     true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Внутренняя ошибка сервера",
			body:           `{"username": "admin", "password": "password123"}`,
			mockError:      errors.New("db down"),
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			codec := newTestCodec(t)
			r := setupAuthRouter(handlers.NewAuthHandler(mockService, codec))

			if tt.expectCall {
				mockService.On("Setup", mock.Anything, mock.AnythingOfType("models.SetupRequest"),
					mock.AnythingOfType("models.ClientInfo")).Return(tt.mockReturn, tt.mockError).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/setup", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectCookie {
				assert.Equal(t, "/admin", rr.Header().Get("Location"))
				token, ok := codec.Decode(strings.Split(rr.Header().Get("Set-Cookie"), ";")[0])
				require.True(t, ok)
				assert.Equal(t, tt.mockReturn, token)
			} else {
				assert.Empty(t, rr.Header().Get("Set-Cookie"))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_SetupPasswordTooLong(t *testing.T) {
	adminRepo := new(mocks.AdminRepository)
	adminRepo.On("HasAdmins", mock.Anything).Return(false, nil).Once()
	authService := services.NewAuthService(adminRepo, new(mocks.SessionRepository))
	r := setupAuthRouter(handlers.NewAuthHandler(authService, newTestCodec(t)))

	body := `{"username": "admin", "password": "` + strings.Repeat("a", 80) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/setup", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, rr.Header().Get("Set-Cookie"))
	adminRepo.AssertNotCalled(t, "CreateAdmin", mock.Anything, mock.Anything)
	adminRepo.AssertExpectations(t)
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockUsername   string
		mockPassword   string
		mockToken      string
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Успешный вход",
			body:           `{"username": "admin", "password": "password123"}`,
			mockUsername:   "admin",
			mockPassword:   "password123",
			mockToken:      "token-1",
			expectedStatus: http.StatusSeeOther,
		},
		{
			name:           "Невалидный JSON",
			body:           `{"username": "admin", "password": "password123"`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неверный формат запроса",
		},
		{
			name:           "Пустой password",
			body:           `{"username": "admin", "password": ""}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Имя пользователя и пароль не могут быть пустыми",
		},
		{
			name:           "Неверные учетные данные",
			body:           `{"username": "admin", "password": "wrong"}`,
			mockUsername:   "admin",
			mockPassword:   "wrong",
			mockError:      services.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   services.ErrInvalidCredentials.Error(),
		},
		{
			name:           "Внутренняя ошибка сервера",
			body:           `{"username": "admin", "password": "password123"}`,
			mockUsername:   "admin",
			mockPassword:   "password123",
			mockError:      errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Внутренняя ошибка сервера",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			codec := newTestCodec(t)
			r := setupAuthRouter(handlers.NewAuthHandler(mockService, codec))

			if tt.mockUsername != "" {
				mockService.On("Login", mock.Anything, tt.mockUsername, tt.mockPassword,
					mock.AnythingOfType("models.ClientInfo")).Return(tt.mockToken, tt.mockError).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedBody)
			}
			if tt.mockToken != "" {
				assert.Contains(t, rr.Header().Get("Set-Cookie"), "admin-session=")
				assert.Contains(t, rr.Header().Get("Set-Cookie"), "HttpOnly")
			} else {
				assert.Empty(t, rr.Header().Get("Set-Cookie"))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_LoginClientInfo(t *testing.T) {
	mockService := new(MockAuthService)
	r := setupAuthRouter(handlers.NewAuthHandler(mockService, newTestCodec(t)))

	mockService.On("Login", mock.Anything, "admin", "password123", mock.MatchedBy(func(c models.ClientInfo) bool {
		return c.UserAgent != nil && *c.UserAgent == "test-agent" &&
			c.IP != nil && *c.IP == "198.51.100.1"
	})).Return("token-1", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(`{"username": "admin", "password": "password123"}`))
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("CF-Connecting-IP", "198.51.100.1")
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("Выход с cookie", func(t *testing.T) {
		mockService := new(MockAuthService)
		codec := newTestCodec(t)
		r := setupAuthRouter(handlers.NewAuthHandler(mockService, codec))
		mockService.On("Logout", mock.Anything, "token-1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
		req.AddCookie(sessionCookie(t, codec, "token-1"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, middleware.LoginPath, rr.Header().Get("Location"))
		assert.Equal(t, codec.EncodeClear(), rr.Header().Get("Set-Cookie"))
		mockService.AssertExpectations(t)
	})

	t.Run("Выход без cookie", func(t *testing.T) {
		mockService := new(MockAuthService)
		codec := newTestCodec(t)
		r := setupAuthRouter(handlers.NewAuthHandler(mockService, codec))
		mockService.On("Logout", mock.Anything, "").Return(nil).Once()

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, codec.EncodeClear(), rr.Header().Get("Set-Cookie"))
	})

	t.Run("Ошибка хранилища", func(t *testing.T) {
		mockService := new(MockAuthService)
		codec := newTestCodec(t)
		r := setupAuthRouter(handlers.NewAuthHandler(mockService, codec))
		mockService.On("Logout", mock.Anything, "token-1").Return(errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
		req.AddCookie(sessionCookie(t, codec, "token-1"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("Текущий администратор", func(t *testing.T) {
		mockService := new(MockAuthService)
		h := handlers.NewAuthHandler(mockService, newTestCodec(t))
		mockService.On("GetAdmin", mock.Anything, int64(1)).
			Return(&models.Admin{ID: 1, Username: "admin", PasswordHash: "secret-hash"}, nil).Once()

		req := withSession(httptest.NewRequest(http.MethodGet, "/admin/me", nil), &models.Session{ID: "t", AdminID: 1})
		rr := httptest.NewRecorder()
		h.Me(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "admin", body["username"])
		assert.NotContains(t, rr.Body.String(), "secret-hash")
	})

	t.Run("Сессии нет в контексте", func(t *testing.T) {
		h := handlers.NewAuthHandler(new(MockAuthService), newTestCodec(t))
		rr := httptest.NewRecorder()
		h.Me(rr, httptest.NewRequest(http.MethodGet, "/admin/me", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("Администратор удален", func(t *testing.T) {
		mockService := new(MockAuthService)
		h := handlers.NewAuthHandler(mockService, newTestCodec(t))
		mockService.On("GetAdmin", mock.Anything, int64(1)).Return(nil, services.ErrAdminNotFound).Once()

		req := withSession(httptest.NewRequest(http.MethodGet, "/admin/me", nil), &models.Session{ID: "t", AdminID: 1})
		rr := httptest.NewRecorder()
		h.Me(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
