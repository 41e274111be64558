package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"bookline/backend/internal/service/scheduling"
)

// StripeCharger captures consultation fees off-session with a confirmed
// PaymentIntent. It satisfies scheduling.Charger.
type StripeCharger struct {
	log *slog.Logger
}

func NewStripeCharger(secretKey string, log *slog.Logger) (*StripeCharger, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = secretKey
	if log == nil {
		log = slog.Default()
	}
	return &StripeCharger{log: log.With(slog.String("component", "payments.stripe"))}, nil
}

func (c *StripeCharger) Charge(ctx context.Context, in scheduling.ChargeInput) (string, error) {
	if in.AmountCents <= 0 {
		return "", errors.New("charge amount must be positive")
	}
	if in.PaymentMethodID == "" {
		return "", errors.New("payment method is required")
	}

	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(in.AmountCents),
		Currency:      stripe.String(in.Currency),
		PaymentMethod: stripe.String(in.PaymentMethodID),
		Description:   stripe.String(in.Description),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			c.log.Warn(
				"payment intent rejected",
				slog.String("code", string(stripeErr.Code)),
				slog.String("type", string(stripeErr.Type)),
			)
		}
		return "", err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return "", errors.New("payment intent not succeeded: " + string(intent.Status))
	}

	c.log.Info(
		"payment captured",
		slog.String("payment_intent_id", intent.ID),
		slog.Int64("amount_cents", in.AmountCents),
	)
	return intent.ID, nil
}
