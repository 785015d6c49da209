package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/dentavia/case-api/pkg/auth"
	apperrors "github.com/dentavia/case-api/pkg/errors"
	"github.com/dentavia/case-api/pkg/security"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository/memory"
)

func newFixture(t *testing.T) (*Service, *pkgauth.Service) {
	t.Helper()
	users := memory.NewUserRepository()
	hasher := security.NewBcryptHasher(4)
	tokens := pkgauth.NewService(pkgauth.Config{Secret: "test-secret"})

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID:           uuid.New(),
		Email:        "staff@example.com",
		Name:         "Sam Staff",
		PasswordHash: hash,
		Role:         "employee",
	}))

	return NewService(users, hasher, tokens), tokens
}

func TestLoginIssuesToken(t *testing.T) {
	svc, tokens := newFixture(t)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "staff@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "employee", resp.Role)
	assert.Equal(t, "Sam Staff", resp.Name)

	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "employee", claims.Role)
}

func TestCreateUserThenLogin(t *testing.T) {
	svc, _ := newFixture(t)
	admin := model.Identity{Role: model.RoleAdmin, Subject: uuid.New()}

	user, err := svc.CreateUser(context.Background(), admin, &model.CreateUserRequest{
		Email:    "doc@example.com",
		Name:     "Dr. Demir",
		Password: "battery-staple",
		Role:     "doctor",
	})
	require.NoError(t, err)
	assert.Equal(t, "doctor", user.Role)
	assert.NotEqual(t, "battery-staple", user.PasswordHash)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@example.com",
		Password: "battery-staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "doctor", resp.Role)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc, _ := newFixture(t)
	employee := model.Identity{Role: model.RoleEmployee, Subject: uuid.New()}

	_, err := svc.CreateUser(context.Background(), employee, &model.CreateUserRequest{
		Email:    "doc@example.com",
		Name:     "Dr. Demir",
		Password: "battery-staple",
		Role:     "doctor",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestCreateUserNoPatientAccounts(t *testing.T) {
	svc, _ := newFixture(t)
	admin := model.Identity{Role: model.RoleAdmin, Subject: uuid.New()}

	_, err := svc.CreateUser(context.Background(), admin, &model.CreateUserRequest{
		Email:    "patient@example.com",
		Name:     "Pat",
		Password: "battery-staple",
		Role:     "patient",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "staff@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestLoginUnknownUserSameAnswer(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	// Unknown user and bad password are indistinguishable to the caller.
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}
