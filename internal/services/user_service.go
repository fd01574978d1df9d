package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

// readOnlyUserFields are owned by the auth provider and never change through
// this API.
var readOnlyUserFields = map[string]bool{
	"id":         true,
	"email":      true,
	"role":       true,
	"created_at": true,
	"updated_at": true,
}

type UserService struct {
	userRepo models.UserRepo
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Signup registers a new account. Every self-service account starts as an
// event owner.
func (us *UserService) Signup(ctx context.Context, in models.Signup) (*types.SignupResponse, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	in.Role = string(access.RoleEventOwner)

	res, err := us.userRepo.CreateUser(ctx, &in)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, us.logger).Info("user signed up", "email", in.Email)
	return res, nil
}

func (us *UserService) Login(ctx context.Context, in models.Login) (*types.TokenResponse, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}

	res, err := us.userRepo.AuthenticateUser(ctx, in.Email, in.Password)
	if err != nil {
		logging.FromContext(ctx, us.logger).Warn("login failed", "email", in.Email, "error", err)
		return nil, fmt.Errorf("invalid email or password: %w", access.ErrUnauthenticated)
	}
	return res, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required: %w", access.ErrUnauthenticated)
	}
	res, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %v: %w", err, access.ErrUnauthenticated)
	}
	return res, nil
}

func (us *UserService) Logout(ctx context.Context, accessToken string) error {
	return us.userRepo.Logout(ctx, accessToken)
}

// Profile loads the profile behind a verified token.
func (us *UserService) Profile(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	return us.userRepo.GetUser(ctx, id, accessToken)
}

func (us *UserService) GetUser(ctx context.Context, actor *access.Actor, id uuid.UUID, accessToken string) (*models.User, error) {
	if err := selfOrManager(actor, id); err != nil {
		return nil, err
	}
	return us.userRepo.GetUser(ctx, id, accessToken)
}

func (us *UserService) ListUsers(ctx context.Context, actor *access.Actor, offset, limit int, accessToken string) ([]*models.User, int, error) {
	if err := access.Require(actor, access.ManageUsers); err != nil {
		return nil, 0, err
	}
	offset, limit = ClampPage(offset, limit)
	return us.userRepo.ListUsers(ctx, offset, limit, accessToken)
}

// UpdateUser applies a partial profile update. Only name is editable; keys
// owned by the auth provider, role included, are rejected.
func (us *UserService) UpdateUser(ctx context.Context, actor *access.Actor, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.User, error) {
	if err := selfOrManager(actor, id); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, NewValidationError("body", "has no fields to update")
	}

	verr := &ValidationError{Fields: map[string]string{}}
	var patch models.UserPatch
	for key, value := range fields {
		switch {
		case readOnlyUserFields[key]:
			verr.Fields[key] = "is read-only"
		case key == "name":
			name, ok := value.(string)
			if !ok {
				verr.Fields[key] = "must be a string"
				continue
			}
			name = strings.TrimSpace(name)
			patch.Name = &name
		default:
			verr.Fields[key] = "is not editable"
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if err := validate(patch); err != nil {
		return nil, err
	}

	updated, err := us.userRepo.UpdateUser(ctx, id, map[string]interface{}{
		"name":       *patch.Name,
		"updated_at": time.Now().UTC(),
	}, accessToken)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, us.logger).Info("user updated", "user_id", id, "actor_id", actor.ID)
	return updated, nil
}

func (us *UserService) DeleteUser(ctx context.Context, actor *access.Actor, id uuid.UUID, accessToken string) error {
	if err := access.Require(actor, access.ManageUsers); err != nil {
		return err
	}
	if err := us.userRepo.DeleteUser(ctx, id, accessToken); err != nil {
		return err
	}
	logging.FromContext(ctx, us.logger).Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func selfOrManager(actor *access.Actor, id uuid.UUID) error {
	if actor == nil {
		return access.ErrUnauthenticated
	}
	if actor.ID == id && id != uuid.Nil {
		return nil
	}
	return access.Require(actor, access.ManageUsers)
}
