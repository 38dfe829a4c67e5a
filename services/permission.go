package services

import (
	"context"
	"errors"
	"fmt"

	"proshift/constants"
	"proshift/database"
	"proshift/models/user"
)

// UserFinder is the slice of the store the permission check needs
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*user.User, error)
}

// Permission is the outcome of a role check
type Permission struct {
	Granted bool
	Role    string
	Reason  string
}

type PermissionService struct {
	users UserFinder
}

func NewPermissionService(users UserFinder) *PermissionService {
	return &PermissionService{users: users}
}

// Check grants access when the stored user for email holds role.
// An unknown user and a different role produce the same denial.
func (ps *PermissionService) Check(ctx context.Context, email, role string) (Permission, error) {
	if email == "" {
		return Permission{Reason: "role mismatch"}, nil
	}

	u, err := ps.users.FindUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return Permission{Reason: "role mismatch"}, nil
	}
	if err != nil {
		return Permission{}, fmt.Errorf("load user role: %w", err)
	}

	if u.Role != role {
		return Permission{Role: u.Role, Reason: "role mismatch"}, nil
	}
	return Permission{Granted: true, Role: u.Role}, nil
}

// IsAdmin is a convenience wrapper used by owner-or-admin checks
func (ps *PermissionService) IsAdmin(ctx context.Context, email string) (bool, error) {
	p, err := ps.Check(ctx, email, constants.RoleAdmin)
	if err != nil {
		return false, err
	}
	return p.Granted, nil
}
