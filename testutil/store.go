// Package testutil holds in-memory fakes shared by handler and service tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"proshift/database"
	"proshift/models/parcel"
	"proshift/models/payment"
	"proshift/models/rider"
	"proshift/models/tracking"
	"proshift/models/user"
	"proshift/types"
)

// Store is a map-backed database.Store. Errors can be injected per method
// through Fail; Writes counts every successful mutation.
type Store struct {
	mu        sync.Mutex
	seq       int
	Users     map[string]*user.User
	Parcels   map[string]*parcel.Parcel
	Riders    map[string]*rider.Rider
	Payments  map[string]*payment.Payment
	Trackings map[string]*tracking.Tracking
	Logs      []types.LogEntry

	Fail   map[string]error
	Writes int
}

var _ database.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Users:     map[string]*user.User{},
		Parcels:   map[string]*parcel.Parcel{},
		Riders:    map[string]*rider.Rider{},
		Payments:  map[string]*payment.Payment{},
		Trackings: map[string]*tracking.Tracking{},
		Fail:      map[string]error{},
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *Store) fail(method string) error {
	return s.Fail[method]
}

// AddUser seeds a user with a role and returns it
func (s *Store) AddUser(email, role string) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user.User{ID: s.nextID("u"), Email: email, Role: role}
	s.Users[u.ID] = u
	return u
}

// AddParcel seeds a parcel as-is
func (s *Store) AddParcel(p parcel.Parcel) *parcel.Parcel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID("p")
	}
	s.Parcels[p.ID] = &p
	return &p
}

// AddRider seeds a rider as-is
func (s *Store) AddRider(r rider.Rider) *rider.Rider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = s.nextID("r")
	}
	s.Riders[r.ID] = &r
	return &r
}

// AddTracking seeds a tracking record as-is
func (s *Store) AddTracking(t tracking.Tracking) *tracking.Tracking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.nextID("t")
	}
	s.Trackings[t.TrackingID] = &t
	return &t
}

// Users

func (s *Store) FindUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range s.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) InsertUser(_ context.Context, u *user.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertUser"); err != nil {
		return "", err
	}
	for _, existing := range s.Users {
		if existing.Email == u.Email {
			return "", database.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = s.nextID("u")
	}
	cp := *u
	s.Users[u.ID] = &cp
	s.Writes++
	return u.ID, nil
}

func (s *Store) TouchLastLogin(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			u.LastLogin = at
			s.Writes++
			return nil
		}
	}
	return database.ErrNotFound
}

func (s *Store) SearchUsers(_ context.Context, emailFragment string, limit int) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []user.User{}
	q := strings.ToLower(emailFragment)
	for _, u := range s.Users {
		if strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Role = role
	s.Writes++
	return nil
}

func (s *Store) UpdateUserRoleByEmail(_ context.Context, email, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			u.Role = role
			s.Writes++
			return nil
		}
	}
	return database.ErrNotFound
}

// Parcels

func (s *Store) ListParcels(_ context.Context, f database.ParcelFilter) ([]parcel.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListParcels"); err != nil {
		return nil, err
	}
	out := []parcel.Parcel{}
	for _, p := range s.Parcels {
		if f.UserEmail != "" && p.UserEmail != f.UserEmail {
			continue
		}
		if f.PaymentStatus != "" && p.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.AssignedRiderEmail != "" && p.AssignedRiderEmail != f.AssignedRiderEmail {
			continue
		}
		if f.CashoutStatus != "" && p.CashoutStatus != f.CashoutStatus {
			continue
		}
		if f.DeliveryStatus != "" {
			if p.DeliveryStatus != f.DeliveryStatus {
				continue
			}
		} else if len(f.DeliveryStatuses) > 0 && !contains(f.DeliveryStatuses, p.DeliveryStatus) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationDate.After(out[j].CreationDate) })
	return out, nil
}

func (s *Store) FindParcel(_ context.Context, id string) (*parcel.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindParcel"); err != nil {
		return nil, err
	}
	p, ok := s.Parcels[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) InsertParcel(_ context.Context, p *parcel.Parcel) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertParcel"); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = s.nextID("p")
	}
	cp := *p
	s.Parcels[p.ID] = &cp
	s.Writes++
	return p.ID, nil
}

func (s *Store) DeleteParcel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Parcels[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.Parcels, id)
	s.Writes++
	return nil
}

func (s *Store) UpdateParcel(_ context.Context, id string, u database.ParcelUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateParcel"); err != nil {
		return err
	}
	p, ok := s.Parcels[id]
	if !ok {
		return database.ErrNotFound
	}
	setStr(&p.DeliveryStatus, u.DeliveryStatus)
	setStr(&p.PaymentStatus, u.PaymentStatus)
	setStr(&p.CashoutStatus, u.CashoutStatus)
	setStr(&p.AssignedRiderID, u.AssignedRiderID)
	setStr(&p.AssignedRiderEmail, u.AssignedRiderEmail)
	setStr(&p.AssignedRiderName, u.AssignedRiderName)
	setTime(&p.AssignedAt, u.AssignedAt)
	setTime(&p.PickedAt, u.PickedAt)
	setTime(&p.DeliveredAt, u.DeliveredAt)
	setTime(&p.PaidAt, u.PaidAt)
	setTime(&p.CashoutRequestedAt, u.CashoutRequestedAt)
	setTime(&p.CashedOutAt, u.CashedOutAt)
	s.Writes++
	return nil
}

func (s *Store) CountParcelsByDeliveryStatus(_ context.Context) ([]parcel.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, p := range s.Parcels {
		counts[p.DeliveryStatus]++
	}
	out := []parcel.StatusCount{}
	for status, n := range counts {
		out = append(out, parcel.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// Riders

func (s *Store) InsertRider(_ context.Context, r *rider.Rider) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Riders {
		if existing.Email == r.Email {
			return "", database.ErrDuplicate
		}
	}
	if r.ID == "" {
		r.ID = s.nextID("r")
	}
	cp := *r
	s.Riders[r.ID] = &cp
	s.Writes++
	return r.ID, nil
}

func (s *Store) FindRider(_ context.Context, id string) (*rider.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Riders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) FindRiderByEmail(_ context.Context, email string) (*rider.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Riders {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) ListRiders(_ context.Context, f database.RiderFilter) ([]rider.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []rider.Rider{}
	q := strings.ToLower(f.Search)
	for _, r := range s.Riders {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.WorkStatus != "" && r.WorkStatus != f.WorkStatus {
			continue
		}
		if f.District != "" && r.District != f.District {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Email), q) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) updateRider(r *rider.Rider, u database.RiderUpdate) {
	setStr(&r.Status, u.Status)
	setStr(&r.WorkStatus, u.WorkStatus)
	setStr(&r.CurrentParcelID, u.CurrentParcelID)
	setTime(&r.ApprovedAt, u.ApprovedAt)
	s.Writes++
}

func (s *Store) UpdateRider(_ context.Context, id string, u database.RiderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Riders[id]
	if !ok {
		return database.ErrNotFound
	}
	s.updateRider(r, u)
	return nil
}

func (s *Store) UpdateRiderByEmail(_ context.Context, email string, u database.RiderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Riders {
		if r.Email == email {
			s.updateRider(r, u)
			return nil
		}
	}
	return database.ErrNotFound
}

// Payments

func (s *Store) InsertPayment(_ context.Context, p *payment.Payment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertPayment"); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = s.nextID("pay")
	}
	cp := *p
	s.Payments[p.ID] = &cp
	s.Writes++
	return p.ID, nil
}

func (s *Store) ListPayments(_ context.Context, email string) ([]payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []payment.Payment{}
	for _, p := range s.Payments {
		if email == "" || p.UserEmail == email {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

// Tracking

func (s *Store) InsertTracking(_ context.Context, t *tracking.Tracking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Trackings[t.TrackingID]; ok {
		return "", database.ErrDuplicate
	}
	if t.ID == "" {
		t.ID = s.nextID("t")
	}
	cp := *t
	cp.History = append(tracking.History{}, t.History...)
	s.Trackings[t.TrackingID] = &cp
	s.Writes++
	return t.ID, nil
}

func (s *Store) FindTracking(_ context.Context, trackingID string) (*tracking.Tracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindTracking"); err != nil {
		return nil, err
	}
	t, ok := s.Trackings[trackingID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *t
	cp.History = append(tracking.History{}, t.History...)
	return &cp, nil
}

func (s *Store) AppendTracking(_ context.Context, trackingID string, e tracking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Trackings[trackingID]
	if !ok {
		return database.ErrNotFound
	}
	t.History = append(t.History, e)
	t.CurrentStatus = e.Status
	t.UpdatedAt = e.Timestamp
	s.Writes++
	return nil
}

// Logs

func (s *Store) InsertAPILog(_ context.Context, entry types.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Logs = append(s.Logs, entry)
	return nil
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error { return s.fail("Ping") }

func (s *Store) Close(context.Context) error { return nil }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setTime(dst **time.Time, v *time.Time) {
	if v != nil {
		t := *v
		*dst = &t
	}
}
