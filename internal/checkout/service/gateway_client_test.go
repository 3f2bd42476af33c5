package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	"github.com/stretchr/testify/require"
)

func TestGatewayClientCreatePaymentIntent(t *testing.T) {
	var gotPath, gotAuth, gotIdem string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		_ = json.NewEncoder(w).Encode(GatewayIntent{
			ID:           "pi_live_1",
			ClientSecret: "pi_live_1_secret",
			Status:       "requires_payment_method",
			Amount:       50000,
			Currency:     "usd",
		})
	}))
	defer srv.Close()

	client := NewGatewayClient("sk_test_abc", srv.URL)
	intent, err := client.CreatePaymentIntent(context.Background(), "12345", 50000, "USD")
	require.NoError(t, err)
	require.Equal(t, "pi_live_1", intent.ID)
	require.Equal(t, "pi_live_1_secret", intent.ClientSecret)

	require.Equal(t, "/v1/payment_intents", gotPath)
	require.Equal(t, "Bearer sk_test_abc", gotAuth)
	require.Equal(t, "bill:12345", gotIdem)
	require.Equal(t, []string{"50000"}, gotForm["amount"])
	require.Equal(t, []string{"usd"}, gotForm["currency"])
	require.Equal(t, []string{"12345"}, gotForm["metadata[bill_id]"])
}

func TestGatewayClientErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	client := NewGatewayClient("sk_test_abc", srv.URL)
	_, err := client.RetrievePaymentIntent(context.Background(), "pi_declined")
	require.ErrorIs(t, err, domain.ErrGateway)
	require.Contains(t, err.Error(), "Your card was declined.")
}

func TestGatewayClientRequiresAPIKey(t *testing.T) {
	client := NewGatewayClient("", "http://localhost:1")
	_, err := client.RetrievePaymentIntent(context.Background(), "pi_x")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
