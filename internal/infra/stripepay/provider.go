package stripepay

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/services/checkout"
)

// Provider opens Stripe hosted checkout sessions. The price is passed as
// inline price data so the Stripe dashboard does not have to mirror the
// catalog.
type Provider struct {
	frontendURL string
}

func New(secretKey, frontendURL string) *Provider {
	stripe.Key = secretKey
	return &Provider{frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (p *Provider) CreateSession(ctx context.Context, input checkout.SessionInput) (checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(input.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(input.CustomerEmail),
		SuccessURL:    stripe.String(p.frontendURL + "/checkout/success"),
		CancelURL:     stripe.String(p.frontendURL + "/checkout/cancel"),
	}
	params.Context = ctx

	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: input.Metadata,
	}

	sess, err := session.New(params)
	if err != nil {
		return checkout.Session{}, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}
