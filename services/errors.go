package services

import "errors"

var (
	ErrRiderInTransit    = errors.New("rider is already delivering a parcel")
	ErrRiderNotActive    = errors.New("rider is not active")
	ErrRiderMismatch     = errors.New("rider email does not match the rider record")
	ErrParcelClosed      = errors.New("parcel is already on its way or delivered")
	ErrNotParcelRider    = errors.New("parcel is not assigned to this rider")
	ErrNotParcelOwner    = errors.New("parcel belongs to another user")
	ErrCashoutNotAllowed = errors.New("cashout is not allowed in the current state")
	ErrAlreadyPaid       = errors.New("parcel is already paid")
	ErrTrackingIDTaken   = errors.New("tracking id is already in use")
	ErrAlreadyApplied    = errors.New("rider application already exists")
)
