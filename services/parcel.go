package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proshift/cache"
	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	"proshift/models/parcel"
	"proshift/models/payment"
	"proshift/models/tracking"
	parcelTypes "proshift/types/parcel"
	paymentTypes "proshift/types/payment"
	riderTypes "proshift/types/rider"
	"proshift/utils"
)

// ParcelService applies the parcel lifecycle transitions. Each transition is a
// short sequence of single-document writes; there is no cross-document transaction.
type ParcelService struct {
	store database.Store
	cache cache.Cache
	now   func() time.Time
}

func NewParcelService(store database.Store, c cache.Cache) *ParcelService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ParcelService{store: store, cache: c, now: time.Now}
}

// Create stores a new parcel owned by ownerEmail with the initial statuses and
// opens its tracking record.
func (s *ParcelService) Create(ctx context.Context, p *parcel.Parcel, ownerEmail string) (string, error) {
	at := s.now()
	p.ID = ""
	p.UserEmail = ownerEmail
	p.DeliveryStatus = constants.DeliveryPending
	p.PaymentStatus = constants.PaymentUnpaid
	p.CashoutStatus = constants.CashoutNone
	p.CreationDate = at
	if p.TrackingID == "" {
		p.TrackingID = utils.GenerateTrackingID(at)
	} else if _, err := s.store.FindTracking(ctx, p.TrackingID); err == nil {
		return "", ErrTrackingIDTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("check tracking id: %w", err)
	}

	id, err := s.store.InsertParcel(ctx, p)
	if err != nil {
		return "", fmt.Errorf("insert parcel: %w", err)
	}

	_, err = s.store.InsertTracking(ctx, &tracking.Tracking{
		TrackingID:    p.TrackingID,
		ParcelID:      id,
		UserEmail:     ownerEmail,
		CurrentStatus: constants.TrackParcelCreated,
		History: tracking.History{{
			Status:    constants.TrackParcelCreated,
			Details:   "Parcel created by " + ownerEmail,
			UpdatedBy: ownerEmail,
			Timestamp: at,
		}},
		CreatedAt: at,
		UpdatedAt: at,
	})
	if errors.Is(err, database.ErrDuplicate) {
		// another parcel claimed the id between the check and the insert
		if delErr := s.store.DeleteParcel(ctx, id); delErr != nil {
			logger.Error("Failed to remove parcel "+id+" after tracking id clash", delErr)
		}
		return "", ErrTrackingIDTaken
	}
	if err != nil {
		logger.Error("Failed to create tracking record for parcel "+id, err)
	}
	return id, nil
}

// AssignRider hands a pending parcel to an active rider who is not mid-delivery
func (s *ParcelService) AssignRider(ctx context.Context, parcelID string, req parcelTypes.AssignRiderRequest, by string) error {
	p, err := s.store.FindParcel(ctx, parcelID)
	if err != nil {
		return err
	}
	if p.DeliveryStatus == constants.DeliveryInTransit || p.DeliveryStatus == constants.DeliveryDelivered {
		return ErrParcelClosed
	}

	r, err := s.store.FindRider(ctx, req.RiderID)
	if err != nil {
		return err
	}
	if !r.CanTakeParcel() {
		return ErrRiderInTransit
	}
	if !r.IsActive() {
		return ErrRiderNotActive
	}
	if req.RiderEmail != "" && utils.NormalizeEmail(req.RiderEmail) != utils.NormalizeEmail(r.Email) {
		return ErrRiderMismatch
	}

	name := req.RiderName
	if name == "" {
		name = r.Name
	}
	at := s.now()
	err = s.store.UpdateParcel(ctx, parcelID, database.ParcelUpdate{
		DeliveryStatus:     utils.StringPtr(constants.DeliveryRiderAssigned),
		AssignedRiderID:    utils.StringPtr(r.ID),
		AssignedRiderEmail: utils.StringPtr(utils.NormalizeEmail(r.Email)),
		AssignedRiderName:  utils.StringPtr(name),
		AssignedAt:         &at,
	})
	if err != nil {
		return fmt.Errorf("update parcel: %w", err)
	}

	err = s.store.UpdateRider(ctx, r.ID, database.RiderUpdate{
		WorkStatus:      utils.StringPtr(constants.WorkAssigned),
		CurrentParcelID: utils.StringPtr(parcelID),
	})
	if err != nil {
		return fmt.Errorf("update rider: %w", err)
	}

	if p.AssignedRiderID != "" && p.AssignedRiderID != r.ID {
		s.releaseRider(ctx, p.AssignedRiderID, parcelID)
	}

	s.track(ctx, p.TrackingID, constants.TrackRiderAssigned, "Assigned to rider "+name, by, at)
	return nil
}

// UpdateDeliveryStatus records pickup or delivery by the assigned rider
func (s *ParcelService) UpdateDeliveryStatus(ctx context.Context, parcelID, status, riderEmail string) error {
	p, err := s.store.FindParcel(ctx, parcelID)
	if err != nil {
		return err
	}
	if !p.IsAssignedTo(riderEmail) {
		return ErrNotParcelRider
	}

	at := s.now()
	update := database.ParcelUpdate{DeliveryStatus: utils.StringPtr(status)}
	riderUpdate := database.RiderUpdate{}
	var trackStatus, details string

	switch status {
	case constants.DeliveryInTransit:
		update.PickedAt = &at
		riderUpdate.WorkStatus = utils.StringPtr(constants.WorkInTransit)
		trackStatus, details = constants.TrackPickedUp, "Picked up by "+riderEmail
	case constants.DeliveryDelivered:
		update.DeliveredAt = &at
		riderUpdate.WorkStatus = utils.StringPtr(constants.WorkAvailable)
		riderUpdate.CurrentParcelID = utils.StringPtr("")
		trackStatus, details = constants.TrackDelivered, "Delivered by "+riderEmail
	default:
		return fmt.Errorf("unsupported delivery status %q", status)
	}

	if err := s.store.UpdateParcel(ctx, parcelID, update); err != nil {
		return fmt.Errorf("update parcel: %w", err)
	}
	if err := s.store.UpdateRiderByEmail(ctx, p.AssignedRiderEmail, riderUpdate); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("update rider: %w", err)
	}

	s.track(ctx, p.TrackingID, trackStatus, details, riderEmail, at)
	s.invalidateRider(ctx, p.AssignedRiderEmail)
	return nil
}

// RequestCashout moves a parcel's cashout from none to pending
func (s *ParcelService) RequestCashout(ctx context.Context, parcelID, riderEmail string) error {
	p, err := s.store.FindParcel(ctx, parcelID)
	if err != nil {
		return err
	}
	if !p.IsAssignedTo(riderEmail) {
		return ErrNotParcelRider
	}
	if p.DeliveryStatus != constants.DeliveryDelivered {
		return ErrCashoutNotAllowed
	}
	if p.CashoutStatus == constants.CashoutPending || p.CashoutStatus == constants.CashoutCashedOut {
		return ErrCashoutNotAllowed
	}

	at := s.now()
	err = s.store.UpdateParcel(ctx, parcelID, database.ParcelUpdate{
		CashoutStatus:      utils.StringPtr(constants.CashoutPending),
		CashoutRequestedAt: &at,
	})
	if err != nil {
		return fmt.Errorf("update parcel: %w", err)
	}
	s.invalidateRider(ctx, p.AssignedRiderEmail)
	return nil
}

// CompleteCashout settles a pending cashout
func (s *ParcelService) CompleteCashout(ctx context.Context, parcelID string) error {
	p, err := s.store.FindParcel(ctx, parcelID)
	if err != nil {
		return err
	}
	if p.CashoutStatus != constants.CashoutPending {
		return ErrCashoutNotAllowed
	}

	at := s.now()
	err = s.store.UpdateParcel(ctx, parcelID, database.ParcelUpdate{
		CashoutStatus: utils.StringPtr(constants.CashoutCashedOut),
		CashedOutAt:   &at,
	})
	if err != nil {
		return fmt.Errorf("update parcel: %w", err)
	}
	s.invalidateRider(ctx, p.AssignedRiderEmail)
	return nil
}

// RecordPayment flips the payer's unpaid parcel to paid and then writes the
// payment record. The two writes are independent; a failed insert leaves the
// parcel paid.
func (s *ParcelService) RecordPayment(ctx context.Context, req paymentTypes.RecordRequest) (string, error) {
	p, err := s.store.FindParcel(ctx, req.ParcelID)
	if err != nil {
		return "", err
	}
	if !p.IsOwnedBy(req.Email) {
		return "", ErrNotParcelOwner
	}
	if p.PaymentStatus == constants.PaymentPaid {
		return "", ErrAlreadyPaid
	}

	at := s.now()
	err = s.store.UpdateParcel(ctx, req.ParcelID, database.ParcelUpdate{
		PaymentStatus: utils.StringPtr(constants.PaymentPaid),
		PaidAt:        &at,
	})
	if err != nil {
		return "", err
	}

	method := req.PaymentMethod
	if method == "" {
		method = "card"
	}
	id, err := s.store.InsertPayment(ctx, &payment.Payment{
		ParcelID:          req.ParcelID,
		UserEmail:         utils.NormalizeEmail(req.Email),
		Amount:            req.Amount,
		PaymentID:         req.PaymentID,
		PaymentMethod:     method,
		TransactionID:     req.TransactionID,
		PaymentDate:       at,
		PaymentDateString: at.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("insert payment: %w", err)
	}

	s.track(ctx, p.TrackingID, constants.TrackPaymentDone, "Paid with transaction "+req.TransactionID, req.Email, at)
	return id, nil
}

// RiderEarnings returns the cached dashboard summary or computes it
func (s *ParcelService) RiderEarnings(ctx context.Context, riderEmail string) (riderTypes.Earnings, error) {
	key := cache.RiderEarningsKey(riderEmail)
	var out riderTypes.Earnings
	if hit, err := cache.GetJSON(ctx, s.cache, key, &out); err == nil && hit {
		return out, nil
	} else if err != nil {
		logger.Warning("Earnings cache read failed: " + err.Error())
	}

	parcels, err := s.deliveredBy(ctx, riderEmail)
	if err != nil {
		return out, err
	}
	out = SummarizeEarnings(parcels, s.now())

	if err := s.cache.Set(ctx, key, out); err != nil {
		logger.Warning("Earnings cache write failed: " + err.Error())
	}
	return out, nil
}

// RiderWeeklyDeliveries returns the trailing 7-day delivery counts
func (s *ParcelService) RiderWeeklyDeliveries(ctx context.Context, riderEmail string) ([]riderTypes.DayCount, error) {
	at := s.now()
	key := cache.RiderWeeklyKey(riderEmail, at.Format(dayLayout))
	var out []riderTypes.DayCount
	if hit, err := cache.GetJSON(ctx, s.cache, key, &out); err == nil && hit {
		return out, nil
	}

	parcels, err := s.deliveredBy(ctx, riderEmail)
	if err != nil {
		return nil, err
	}
	out = WeeklyDeliveries(parcels, at)

	if err := s.cache.Set(ctx, key, out); err != nil {
		logger.Warning("Weekly cache write failed: " + err.Error())
	}
	return out, nil
}

// CompletedParcels lists a rider's delivered parcels with the earning for each
func (s *ParcelService) CompletedParcels(ctx context.Context, riderEmail string) ([]parcelTypes.CompletedParcel, error) {
	parcels, err := s.deliveredBy(ctx, riderEmail)
	if err != nil {
		return nil, err
	}
	out := make([]parcelTypes.CompletedParcel, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, parcelTypes.CompletedParcel{Parcel: p, Earning: ParcelEarning(p)})
	}
	return out, nil
}

func (s *ParcelService) deliveredBy(ctx context.Context, riderEmail string) ([]parcel.Parcel, error) {
	return s.store.ListParcels(ctx, database.ParcelFilter{
		AssignedRiderEmail: riderEmail,
		DeliveryStatus:     constants.DeliveryDelivered,
	})
}

func (s *ParcelService) track(ctx context.Context, trackingID, status, details, by string, at time.Time) {
	if trackingID == "" {
		return
	}
	err := s.store.AppendTracking(ctx, trackingID, tracking.Event{
		Status:    status,
		Details:   details,
		UpdatedBy: by,
		Timestamp: at,
	})
	if err != nil {
		logger.Warning(fmt.Sprintf("Failed to append %s to tracking %s: %v", status, trackingID, err))
	}
}

// releaseRider frees a rider that lost a parcel to reassignment. It only
// clears current_parcel_id when it still points at that parcel.
func (s *ParcelService) releaseRider(ctx context.Context, riderID, parcelID string) {
	prev, err := s.store.FindRider(ctx, riderID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logger.Error("Failed to load previous rider "+riderID, err)
		}
		return
	}
	if prev.CurrentParcelID != parcelID {
		return
	}
	err = s.store.UpdateRider(ctx, riderID, database.RiderUpdate{
		WorkStatus:      utils.StringPtr(constants.WorkAvailable),
		CurrentParcelID: utils.StringPtr(""),
	})
	if err != nil {
		logger.Error("Failed to release previous rider "+riderID, err)
		return
	}
	s.invalidateRider(ctx, prev.Email)
}

func (s *ParcelService) invalidateRider(ctx context.Context, riderEmail string) {
	if riderEmail == "" {
		return
	}
	if err := s.cache.Delete(ctx, cache.RiderEarningsKey(riderEmail)); err != nil {
		logger.Warning("Failed to invalidate earnings cache: " + err.Error())
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.RiderWeeklyPrefix+riderEmail+":"); err != nil {
		logger.Warning("Failed to invalidate weekly cache: " + err.Error())
	}
}
