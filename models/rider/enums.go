package rider

import "proshift/constants"

// IsValidStatus reports whether s is a known application status
func IsValidStatus(s string) bool {
	switch s {
	case constants.RiderPending, constants.RiderActive, constants.RiderInactive, constants.RiderRejected:
		return true
	default:
		return false
	}
}

// CanTakeParcel returns true if the rider may be handed a new parcel
func (r Rider) CanTakeParcel() bool {
	return r.WorkStatus != constants.WorkInTransit
}

// IsActive returns true once an admin approved the application
func (r Rider) IsActive() bool {
	return r.Status == constants.RiderActive
}
