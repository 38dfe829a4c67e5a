package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	"proshift/models/rider"
	"proshift/utils"
)

// RiderService handles applications and the admin decision on them
type RiderService struct {
	store database.Store
	now   func() time.Time
}

func NewRiderService(store database.Store) *RiderService {
	return &RiderService{store: store, now: time.Now}
}

// Apply stores a pending application; one per email
func (s *RiderService) Apply(ctx context.Context, r *rider.Rider) (string, error) {
	r.Email = utils.NormalizeEmail(r.Email)
	if _, err := s.store.FindRiderByEmail(ctx, r.Email); err == nil {
		return "", ErrAlreadyApplied
	} else if !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	r.Status = constants.RiderPending
	r.CreatedAt = s.now()
	id, err := s.store.InsertRider(ctx, r)
	if errors.Is(err, database.ErrDuplicate) {
		return "", ErrAlreadyApplied
	}
	return id, err
}

// SetStatus records the admin decision and keeps the applicant's user role in
// step. The role change always targets the stored rider email; a non-empty
// email argument must match it.
func (s *RiderService) SetStatus(ctx context.Context, riderID, status, email string) error {
	if !rider.IsValidStatus(status) {
		return fmt.Errorf("invalid rider status %q", status)
	}

	r, err := s.store.FindRider(ctx, riderID)
	if err != nil {
		return err
	}
	if email != "" && utils.NormalizeEmail(email) != utils.NormalizeEmail(r.Email) {
		return ErrRiderMismatch
	}

	update := database.RiderUpdate{Status: utils.StringPtr(status)}
	if status == constants.RiderActive {
		at := s.now()
		update.WorkStatus = utils.StringPtr(constants.WorkAvailable)
		update.ApprovedAt = &at
	}
	if err := s.store.UpdateRider(ctx, riderID, update); err != nil {
		return err
	}

	email = utils.NormalizeEmail(r.Email)
	switch status {
	case constants.RiderActive:
		return s.setRole(ctx, email, constants.RoleRider)
	case constants.RiderInactive, constants.RiderRejected:
		u, err := s.store.FindUserByEmail(ctx, email)
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if u.Role == constants.RoleRider {
			return s.setRole(ctx, email, constants.RoleUser)
		}
	}
	return nil
}

func (s *RiderService) setRole(ctx context.Context, email, role string) error {
	err := s.store.UpdateUserRoleByEmail(ctx, email, role)
	if errors.Is(err, database.ErrNotFound) {
		logger.Warning("No user account for rider " + email + ", role not changed")
		return nil
	}
	return err
}
