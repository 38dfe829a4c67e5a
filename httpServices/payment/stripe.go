package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment processor is not configured")

// Intent is the subset of a processor payment intent the API hands back to clients
type Intent struct {
	ID           string
	ClientSecret string
}

// StripeClient creates card payment intents
type StripeClient struct {
	api      *client.API
	currency string
}

func NewStripeClient(secretKey, currency string) *StripeClient {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	c := &StripeClient{currency: currency}
	if secretKey != "" {
		c.api = client.New(secretKey, nil)
	}
	return c
}

// ToMinorUnits converts a decimal amount into the smallest currency unit
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateIntent requests a card payment intent for amount (major units) tagged with the parcel id
func (c *StripeClient) CreateIntent(ctx context.Context, amount float64, currency, parcelID string) (*Intent, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}
	if currency == "" {
		currency = c.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(ToMinorUnits(amount)),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata("parcelId", parcelID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
