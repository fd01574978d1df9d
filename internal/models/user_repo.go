package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	ProfileTable = "profiles"

	profileColumns = "id,email,name,role,created_at,updated_at"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *Signup) (*types.SignupResponse, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	ListUsers(ctx context.Context, offset, limit int, accessToken string) ([]*User, int, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *Signup) (*types.SignupResponse, error) {
	signed := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
		// the profiles trigger copies name and role out of the user metadata
		Data: map[string]interface{}{
			"name": user.Name,
			"role": user.Role,
		},
	}

	res, err := su.supabaseClient.Auth.Signup(signed)
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errMsg, "already registered"), strings.Contains(errMsg, "unique constraint"):
			return nil, fmt.Errorf("email already in use: %w", ErrConflict)
		case strings.Contains(errMsg, "null value in column"):
			return nil, fmt.Errorf("required field is missing")
		case strings.Contains(errMsg, "invalid input syntax"):
			return nil, fmt.Errorf("invalid input format")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return res, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}

	raw, status, err := client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%w", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	// Supabase returns an array even for single results
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %w", err)
	}

	switch len(users) {
	case 0:
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("multiple users found for ID %s", id)
	}
}

func (su *SupabaseRepo) ListUsers(ctx context.Context, offset, limit int, accessToken string) ([]*User, int, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create authenticated client: %w", err)
	}

	raw, count, err := client.From(ProfileTable).
		Select(profileColumns, "exact", false).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal user rows: %w", err)
	}
	return users, int(count), nil
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}

	raw, _, err := client.From(ProfileTable).
		Update(fields, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &users[0], nil
}

func (su *SupabaseRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return fmt.Errorf("no valid UUID provided")
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return fmt.Errorf("failed to create authenticated client: %w", err)
	}

	raw, _, err := client.From(ProfileTable).
		Delete("representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	var deleted []map[string]interface{}
	if err := json.Unmarshal(raw, &deleted); err != nil {
		return fmt.Errorf("failed to unmarshal deleted user data: %w", err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}
