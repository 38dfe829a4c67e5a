package payment

type CreateIntentRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	ParcelID string  `json:"parcelId" validate:"required"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// RecordRequest is sent by the client after the processor confirmed the payment
type RecordRequest struct {
	ParcelID      string  `json:"parcelId" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentID     string  `json:"paymentId"`
	PaymentMethod string  `json:"paymentMethod" validate:"omitempty,max=50"`
	TransactionID string  `json:"transactionId" validate:"required"`
}
