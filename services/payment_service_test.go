package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/config"
)

func newPaymentService(url string, timeout time.Duration) *PaymentService {
	return NewPaymentService(config.PaymentConfig{
		StripeSecretKey: "sk_test_123",
		StripeAPIURL:    url,
		Currency:        "usd",
		Timeout:         timeout,
	}, quietLogger())
}

func TestCreateIntent(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   string
		wantSecret string
		wantMsg    string
	}{
		{
			name:       "success",
			status:     http.StatusOK,
			response:   `{"id":"pi_123","object":"payment_intent","amount":2550,"currency":"usd","client_secret":"pi_123_secret_abc"}`,
			wantSecret: "pi_123_secret_abc",
		},
		{
			name:     "card error",
			status:   http.StatusPaymentRequired,
			response: `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			wantMsg:  "Your card was declined.",
		},
		{
			name:     "invalid request",
			status:   http.StatusBadRequest,
			response: `{"error":{"type":"invalid_request_error","message":"Amount must be at least $0.50 usd"}}`,
			wantMsg:  "Amount must be at least $0.50 usd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				assert.Equal(t, "/v1/payment_intents", r.URL.Path)
				assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "2550", r.PostForm.Get("amount"))
				assert.Equal(t, "usd", r.PostForm.Get("currency"))
				assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			secret, err := newPaymentService(srv.URL, 5*time.Second).CreateIntent(context.Background(), 2550)
			assert.Equal(t, int32(1), calls.Load())

			if tt.wantMsg != "" {
				require.Error(t, err)
				appErr := apperrors.From(err)
				assert.Equal(t, apperrors.KindExternal, appErr.Kind)
				assert.Equal(t, tt.wantMsg, appErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSecret, secret)
		})
	}
}

func TestCreateIntentTimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newPaymentService(srv.URL, 100*time.Millisecond).CreateIntent(context.Background(), 1000)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindExternal, apperrors.From(err).Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateIntentWithoutKey(t *testing.T) {
	svc := NewPaymentService(config.PaymentConfig{Currency: "usd", Timeout: time.Second}, quietLogger())
	_, err := svc.CreateIntent(context.Background(), 1000)
	assert.Equal(t, apperrors.KindExternal, apperrors.From(err).Kind)
}
