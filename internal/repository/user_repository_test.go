package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychotest-app/psychotest-api/internal/models"
)

func TestFindUserByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "created_at", "updated_at"}).
		AddRow("u1", "student@example.com", "hash", "Student", string(models.RoleStudent), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("student@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "new@example.com",
		PasswordHash: "hash",
		FullName:     "New User",
		Role:         models.RolePsychologist,
	}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "created_at"}).
		AddRow("u1", "Aisha", "aisha@example.com", now).
		AddRow("u2", "Bekzat", "bekzat@example.com", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, created_at FROM users WHERE role = $1 ORDER BY full_name ASC")).
		WithArgs(string(models.RoleStudent)).
		WillReturnRows(rows)

	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Aisha", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
