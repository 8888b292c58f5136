package payment

import (
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// InitStripe sets the API key for the process. Call once at startup.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

// StripeIntents creates payment intents against Stripe. Amounts are in
// minor currency units; the ticket id rides along in metadata as the
// receipt reference.
type StripeIntents struct {
	Currency string
}

func NewStripeIntents(currency string) *StripeIntents {
	return &StripeIntents{Currency: currency}
}

func (s *StripeIntents) CreateIntent(amountMinorUnits int64, receiptRef string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(s.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("ticket_id", receiptRef)

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return intent.ID, nil
}
