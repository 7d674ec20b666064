package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/config"
)

// PaymentService creates Stripe payment intents. It owns its own backend so
// the key and API URL come from config instead of stripe-go globals.
type PaymentService struct {
	client   paymentintent.Client
	currency string
	log      *logrus.Logger
}

func NewPaymentService(cfg config.PaymentConfig, log *logrus.Logger) *PaymentService {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		LeveledLogger:     log.WithField("component", "stripe"),
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.StripeAPIURL != "" {
		backendConfig.URL = stripe.String(cfg.StripeAPIURL)
	}

	return &PaymentService{
		client: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
			Key: cfg.StripeSecretKey,
		},
		currency: cfg.Currency,
		log:      log,
	}
}

// CreateIntent asks Stripe for a payment intent of amount minor units and
// returns its client secret.
func (s *PaymentService) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if s.client.Key == "" {
		return "", apperrors.External("Payment processor is not configured", nil)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	intent, err := s.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return "", apperrors.External(stripeErr.Msg, err)
		}
		return "", apperrors.External("Payment processor unavailable", err)
	}

	s.log.WithFields(logrus.Fields{"payment_intent": intent.ID, "amount": amount}).Info("Payment intent created")
	return intent.ClientSecret, nil
}
