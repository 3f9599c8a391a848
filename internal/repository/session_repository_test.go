package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertSessionQuery  = `INSERT INTO sessions (id, admin_id, user_agent, ip, expires_at) VALUES ($1, $2, $3, $4, $5)`
	selectSessionQuery  = `SELECT id, admin_id, user_agent, ip, created_at, expires_at FROM sessions WHERE id=$1`
	deleteSessionQuery  = `DELETE FROM sessions WHERE id=$1`
	deleteSessionsQuery = `DELETE FROM sessions WHERE admin_id=$1`
	countSessionsQuery  = `SELECT COUNT(*) FROM sessions`
	listSessionsQuery   = `SELECT s.id, s.admin_id, s.user_agent, s.ip, s.created_at, s.expires_at, a.username` +
		` FROM sessions s JOIN admins a ON s.admin_id = a.id ORDER BY s.created_at DESC`
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "admin_id", "user_agent", "ip", "created_at", "expires_at"})
}

func setupSessionRepoMock(t *testing.T, now time.Time) (repository.SessionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return repository.NewPostgresSessionRepositoryWithClock(db, func() time.Time { return now }), mock
}

func TestNewPostgresSessionRepository(t *testing.T) {
	repo := repository.NewPostgresSessionRepository(nil)
	assert.NotNil(t, repo)

	repo = repository.NewPostgresSessionRepositoryWithClock(nil, nil)
	assert.NotNil(t, repo)
}

func TestCreateSession(t *testing.T) {
	ua := "Mozilla/5.0"
	ip := "203.0.113.7"

	t.Run("Сессия создается со сроком 7 дней", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
			WithArgs(sqlmock.AnyArg(), int64(1), &ua, &ip, fixedNow.Add(7*24*time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		token, err := repo.CreateSession(context.Background(), 1, &ua, &ip)
		require.NoError(t, err)

		parsed, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Без user agent и ip", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
			WithArgs(sqlmock.AnyArg(), int64(1), nil, nil, fixedNow.Add(models.SessionTTL)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := repo.CreateSession(context.Background(), 1, nil, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Два входа дают две разные сессии", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		for i := 0; i < 2; i++ {
			mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}

		first, err := repo.CreateSession(context.Background(), 1, nil, nil)
		require.NoError(t, err)
		second, err := repo.CreateSession(context.Background(), 1, nil, nil)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("Ошибка БД", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).WillReturnError(errors.New("insert error"))

		token, err := repo.CreateSession(context.Background(), 1, nil, nil)
		require.Error(t, err)
		assert.Empty(t, token)
		assert.Contains(t, err.Error(), "ошибка выполнения запроса")
	})
}

func TestValidateSession(t *testing.T) {
	createdAt := fixedNow.Add(-time.Hour)

	tests := []struct {
		name        string
		token       string
		now         time.Time
		expiresAt   *time.Time
		mockSetup   func(mock sqlmock.Sqlmock, token string, expiresAt *time.Time)
		expectValid bool
		expectedErr error
	}{
		{
			name:      "Действующая сессия",
			token:     "tok-valid",
			now:       fixedNow,
			expiresAt: timePtr(fixedNow.Add(time.Second)),
			mockSetup: func(mock sqlmock.Sqlmock, token string, expiresAt *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnRows(sessionRows().AddRow(token, int64(1), nil, nil, createdAt, *expiresAt))
			},
			expectValid: true,
		},
		{
			name:      "Ровно в момент истечения сессия уже недействительна",
			token:     "tok-boundary",
			now:       fixedNow,
			expiresAt: timePtr(fixedNow),
			mockSetup: func(mock sqlmock.Sqlmock, token string, expiresAt *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnRows(sessionRows().AddRow(token, int64(1), nil, nil, createdAt, *expiresAt))
			},
			expectedErr: repository.ErrSessionNotFound,
		},
		{
			name:      "Истекшая сессия",
			token:     "tok-expired",
			now:       fixedNow,
			expiresAt: timePtr(fixedNow.Add(-time.Minute)),
			mockSetup: func(mock sqlmock.Sqlmock, token string, expiresAt *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnRows(sessionRows().AddRow(token, int64(1), nil, nil, createdAt, *expiresAt))
			},
			expectedErr: repository.ErrSessionNotFound,
		},
		{
			name:  "Сессия без срока действия",
			token: "tok-forever",
			now:   fixedNow,
			mockSetup: func(mock sqlmock.Sqlmock, token string, _ *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnRows(sessionRows().AddRow(token, int64(1), nil, nil, createdAt, nil))
			},
			expectValid: true,
		},
		{
			name:  "Неизвестный токен",
			token: "tok-unknown",
			now:   fixedNow,
			mockSetup: func(mock sqlmock.Sqlmock, token string, _ *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnRows(sessionRows())
			},
			expectedErr: repository.ErrSessionNotFound,
		},
		{
			name:        "Пустой токен - без запроса к БД",
			token:       "",
			now:         fixedNow,
			mockSetup:   func(sqlmock.Sqlmock, string, *time.Time) {},
			expectedErr: repository.ErrSessionNotFound,
		},
		{
			name:  "Ошибка БД",
			token: "tok-err",
			now:   fixedNow,
			mockSetup: func(mock sqlmock.Sqlmock, token string, _ *time.Time) {
				mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
					WillReturnError(errors.New("select error"))
			},
			expectedErr: errors.New("ошибка выполнения запроса"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupSessionRepoMock(t, tt.now)
			tt.mockSetup(mock, tt.token, tt.expiresAt)

			session, err := repo.ValidateSession(context.Background(), tt.token)

			switch {
			case tt.expectValid:
				require.NoError(t, err)
				require.NotNil(t, session)
				assert.Equal(t, tt.token, session.ID)
				assert.Equal(t, int64(1), session.AdminID)
			case errors.Is(tt.expectedErr, repository.ErrSessionNotFound):
				require.ErrorIs(t, err, repository.ErrSessionNotFound)
				assert.Nil(t, session)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, repository.ErrSessionNotFound)
				assert.Contains(t, err.Error(), tt.expectedErr.Error())
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "Не все ожидания мока были выполнены")
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	// Вход, проверка, выход, повторная проверка: после выхода токен недействителен
	repo, mock := setupSessionRepoMock(t, fixedNow)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := repo.CreateSession(ctx, 1, nil, nil)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
		WillReturnRows(sessionRows().AddRow(token, int64(1), nil, nil, fixedNow, fixedNow.Add(models.SessionTTL)))
	session, err := repo.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), session.AdminID)

	mock.ExpectExec(regexp.QuoteMeta(deleteSessionQuery)).WithArgs(token).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeSession(ctx, token))

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(token).
		WillReturnRows(sessionRows())
	_, err = repo.ValidateSession(ctx, token)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTwoSessionsRevokeOne(t *testing.T) {
	// Два входа одного администратора: отзыв первой сессии не трогает вторую
	repo, mock := setupSessionRepoMock(t, fixedNow)
	ctx := context.Background()
	expiresAt := fixedNow.Add(models.SessionTTL)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
			WithArgs(sqlmock.AnyArg(), int64(1), nil, nil, expiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	first, err := repo.CreateSession(ctx, 1, nil, nil)
	require.NoError(t, err)
	second, err := repo.CreateSession(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Удаление идет по токену, а не по владельцу
	mock.ExpectExec(regexp.QuoteMeta(deleteSessionQuery)).WithArgs(first).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeSession(ctx, first))

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(first).
		WillReturnRows(sessionRows())
	_, err = repo.ValidateSession(ctx, first)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionQuery)).WithArgs(second).
		WillReturnRows(sessionRows().AddRow(second, int64(1), nil, nil, fixedNow, expiresAt))
	session, err := repo.ValidateSession(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, second, session.ID)
	assert.Equal(t, int64(1), session.AdminID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSession(t *testing.T) {
	t.Run("Повторный отзыв не ошибка", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectExec(regexp.QuoteMeta(deleteSessionQuery)).WithArgs("tok").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(deleteSessionQuery)).WithArgs("tok").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.RevokeSession(context.Background(), "tok"))
		require.NoError(t, repo.RevokeSession(context.Background(), "tok"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка БД", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectExec(regexp.QuoteMeta(deleteSessionQuery)).WithArgs("tok").
			WillReturnError(errors.New("delete error"))

		require.Error(t, repo.RevokeSession(context.Background(), "tok"))
	})
}

func TestRevokeAdminSessions(t *testing.T) {
	repo, mock := setupSessionRepoMock(t, fixedNow)
	mock.ExpectExec(regexp.QuoteMeta(deleteSessionsQuery)).WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.RevokeAdminSessions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSessions(t *testing.T) {
	repo, mock := setupSessionRepoMock(t, fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta(countSessionsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsForAudit(t *testing.T) {
	t.Run("Сессии с именами владельцев", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		ua := "curl/8.0"
		rows := sqlmock.NewRows([]string{"id", "admin_id", "user_agent", "ip", "created_at", "expires_at", "username"}).
			AddRow("tok-b", int64(1), ua, nil, fixedNow, fixedNow.Add(models.SessionTTL), "admin").
			AddRow("tok-a", int64(2), nil, nil, fixedNow.Add(-time.Hour), nil, "editor")
		mock.ExpectQuery(regexp.QuoteMeta(listSessionsQuery)).WillReturnRows(rows)

		sessions, err := repo.ListSessionsForAudit(context.Background())
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "tok-b", sessions[0].ID)
		assert.Equal(t, "admin", sessions[0].Username)
		require.NotNil(t, sessions[0].UserAgent)
		assert.Equal(t, ua, *sessions[0].UserAgent)
		assert.Nil(t, sessions[1].ExpiresAt)
		assert.Equal(t, "editor", sessions[1].Username)
	})

	t.Run("Пустой список", func(t *testing.T) {
		repo, mock := setupSessionRepoMock(t, fixedNow)
		mock.ExpectQuery(regexp.QuoteMeta(listSessionsQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "user_agent", "ip", "created_at", "expires_at", "username"}))

		sessions, err := repo.ListSessionsForAudit(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
