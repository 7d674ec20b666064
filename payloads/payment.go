package payloads

import "github.com/zemen-restaurant/zemen-backend/apperrors"

// PaymentIntentRequest carries the amount in the smallest currency unit
// (cents for usd).
type PaymentIntentRequest struct {
	Amount *int64 `json:"amount"`
}

func (r *PaymentIntentRequest) Validate() (int64, error) {
	if r.Amount == nil || *r.Amount == 0 {
		return 0, apperrors.ErrMissingAmount
	}
	if *r.Amount < 0 {
		return 0, apperrors.ErrInvalidField.WithMessage("amount must be a positive integer")
	}
	return *r.Amount, nil
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}
