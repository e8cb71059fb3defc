package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckout(t *testing.T) {
	var got mpPreferenceReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(mpPreferenceResp{
			ID:        "pref-123",
			InitPoint: "https://mp.example/checkout/pref-123",
		})
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider(srv.URL, "test-token")
	out, err := p.CreateCheckout(context.Background(), CheckoutRequest{
		ExternalReference: "42",
		Title:             "Service: Pipe repair",
		Amount:            decimal.RequireFromString("150.50"),
		SuccessURL:        "https://app.example/ok",
		NotificationURL:   "https://api.example/webhooks/payment",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", out.Reference)
	assert.Equal(t, "https://mp.example/checkout/pref-123", out.CheckoutURL)

	assert.Equal(t, "42", got.ExternalReference)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 150.50, got.Items[0].UnitPrice)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, "https://app.example/ok", got.BackURLs.Success)
}

func TestCreateCheckoutGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid access token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider(srv.URL, "bad")
	_, err := p.CreateCheckout(context.Background(), CheckoutRequest{
		ExternalReference: "1",
		Title:             "x",
		Amount:            decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLookupPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/987", r.URL.Path)
		_ = json.NewEncoder(w).Encode(mpPayment{
			Status:            "approved",
			ExternalReference: "42",
		})
	}))
	defer srv.Close()

	p := NewMercadoPagoProvider(srv.URL, "test-token")
	ev, err := p.LookupPayment(context.Background(), "987")
	require.NoError(t, err)
	assert.Equal(t, "42", ev.ExternalReference)
	assert.Equal(t, "approved", ev.Status)
}
