package auth

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/dentavia/case-api/pkg/errors"

	pkgauth "github.com/dentavia/case-api/pkg/auth"
	"github.com/dentavia/case-api/pkg/security"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
)

// Service authenticates backoffice users and issues their tokens.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens *pkgauth.Service
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, tokens *pkgauth.Service) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// CreateUser provisions a staff or doctor account. Only admins may call it;
// patients are addressed by portal tokens and never get accounts.
func (s *Service) CreateUser(ctx context.Context, ident model.Identity, req *model.CreateUserRequest) (*model.User, error) {
	if ident.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("only admins may provision accounts", nil)
	}

	role, err := model.RoleFromString(req.Role)
	if err != nil {
		return nil, apperrors.BadRequest("unknown role", err)
	}
	if role == model.RolePatient {
		return nil, apperrors.BadRequest("patients do not get accounts", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same answer for unknown user and bad password.
		return nil, apperrors.Unauthorized(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	if _, err := model.RoleFromString(user.Role); err != nil {
		return nil, apperrors.Internal(err)
	}

	token, err := s.tokens.GenerateToken(user.ID.String(), user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		Token: token,
		Role:  user.Role,
		Name:  user.Name,
	}, nil
}
