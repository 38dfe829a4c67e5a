package tracking

type AppendRequest struct {
	TrackingID string `json:"trackingId" validate:"required"`
	Status     string `json:"status" validate:"required,max=50"`
	Details    string `json:"details" validate:"omitempty,max=1000"`
	Location   string `json:"location" validate:"omitempty,max=255"`
}
