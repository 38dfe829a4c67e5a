package database

import (
	"context"
	"errors"
	"time"

	"proshift/models/parcel"
	"proshift/models/payment"
	"proshift/models/rider"
	"proshift/models/tracking"
	"proshift/models/user"
	"proshift/types"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence boundary shared by every controller and service.
// Update methods return ErrNotFound when nothing matched.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*user.User, error)
	InsertUser(ctx context.Context, u *user.User) (string, error)
	TouchLastLogin(ctx context.Context, email string, at time.Time) error
	SearchUsers(ctx context.Context, emailFragment string, limit int) ([]user.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	UpdateUserRoleByEmail(ctx context.Context, email, role string) error

	ListParcels(ctx context.Context, f ParcelFilter) ([]parcel.Parcel, error)
	FindParcel(ctx context.Context, id string) (*parcel.Parcel, error)
	InsertParcel(ctx context.Context, p *parcel.Parcel) (string, error)
	DeleteParcel(ctx context.Context, id string) error
	UpdateParcel(ctx context.Context, id string, u ParcelUpdate) error
	CountParcelsByDeliveryStatus(ctx context.Context) ([]parcel.StatusCount, error)

	InsertRider(ctx context.Context, r *rider.Rider) (string, error)
	FindRider(ctx context.Context, id string) (*rider.Rider, error)
	FindRiderByEmail(ctx context.Context, email string) (*rider.Rider, error)
	ListRiders(ctx context.Context, f RiderFilter) ([]rider.Rider, error)
	UpdateRider(ctx context.Context, id string, u RiderUpdate) error
	UpdateRiderByEmail(ctx context.Context, email string, u RiderUpdate) error

	InsertPayment(ctx context.Context, p *payment.Payment) (string, error)
	ListPayments(ctx context.Context, email string) ([]payment.Payment, error)

	InsertTracking(ctx context.Context, t *tracking.Tracking) (string, error)
	FindTracking(ctx context.Context, trackingID string) (*tracking.Tracking, error)
	AppendTracking(ctx context.Context, trackingID string, e tracking.Event) error

	InsertAPILog(ctx context.Context, entry types.LogEntry) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParcelFilter narrows ListParcels. Empty fields are ignored.
type ParcelFilter struct {
	UserEmail          string
	PaymentStatus      string
	DeliveryStatus     string
	AssignedRiderEmail string
	DeliveryStatuses   []string
	CashoutStatus      string
}

// RiderFilter narrows ListRiders. Search matches name or email, case-insensitively.
type RiderFilter struct {
	Status     string
	WorkStatus string
	District   string
	Search     string
}

// ParcelUpdate lists the parcel fields a transition may set; nil fields are left untouched
type ParcelUpdate struct {
	DeliveryStatus     *string
	PaymentStatus      *string
	CashoutStatus      *string
	AssignedRiderID    *string
	AssignedRiderEmail *string
	AssignedRiderName  *string
	AssignedAt         *time.Time
	PickedAt           *time.Time
	DeliveredAt        *time.Time
	PaidAt             *time.Time
	CashoutRequestedAt *time.Time
	CashedOutAt        *time.Time
}

// RiderUpdate lists the rider fields an admin action or delivery may set
type RiderUpdate struct {
	Status          *string
	WorkStatus      *string
	CurrentParcelID *string
	ApprovedAt      *time.Time
}

// Fields flattens the update into storage field names
func (u ParcelUpdate) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	setString(m, "delivery_status", u.DeliveryStatus)
	setString(m, "payment_status", u.PaymentStatus)
	setString(m, "cashout_status", u.CashoutStatus)
	setString(m, "assignedRider", u.AssignedRiderID)
	setString(m, "assignedEmail", u.AssignedRiderEmail)
	setString(m, "assignedRiderName", u.AssignedRiderName)
	setTime(m, "assigned_at", u.AssignedAt)
	setTime(m, "picked_at", u.PickedAt)
	setTime(m, "delivered_at", u.DeliveredAt)
	setTime(m, "paid_at", u.PaidAt)
	setTime(m, "cashout_requested_at", u.CashoutRequestedAt)
	setTime(m, "cashed_out_at", u.CashedOutAt)
	return m
}

func (u RiderUpdate) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	setString(m, "status", u.Status)
	setString(m, "work_status", u.WorkStatus)
	setString(m, "current_parcel_id", u.CurrentParcelID)
	setTime(m, "approved_at", u.ApprovedAt)
	return m
}

func setString(m map[string]interface{}, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func setTime(m map[string]interface{}, key string, v *time.Time) {
	if v != nil {
		m[key] = *v
	}
}
