package constants

// User roles stored on the user document
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleRider = "rider"
)

// Parcel delivery status
const (
	DeliveryPending       = "pending"
	DeliveryRiderAssigned = "rider-assigned"
	DeliveryInTransit     = "in-transit"
	DeliveryDelivered     = "delivered"
)

// Parcel payment status
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Parcel cashout status
const (
	CashoutNone      = "none"
	CashoutPending   = "pending"
	CashoutCashedOut = "cashed_out"
)

// Rider application status
const (
	RiderPending  = "Pending"
	RiderActive   = "Active"
	RiderInactive = "Inactive"
	RiderRejected = "Rejected"
)

// Rider work status
const (
	WorkAvailable = "available"
	WorkAssigned  = "assigned"
	WorkInTransit = "in-transit"
)

// Tracking history entries written by the service itself
const (
	TrackParcelCreated = "parcel_created"
	TrackPaymentDone   = "payment_done"
	TrackRiderAssigned = "rider_assigned"
	TrackPickedUp      = "picked_up"
	TrackDelivered     = "delivered"
)

// Status groups for convenience
var (
	ActiveDeliveryStatuses = []string{
		DeliveryRiderAssigned,
		DeliveryInTransit,
	}
	AssignableRoles = []string{
		RoleUser,
		RoleAdmin,
	}
)
