package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MercadoPagoProvider creates hosted checkout preferences through the Mercado
// Pago REST API.
type MercadoPagoProvider struct {
	BaseURL     string
	AccessToken string
	client      *http.Client
}

func NewMercadoPagoProvider(baseURL, accessToken string) *MercadoPagoProvider {
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	return &MercadoPagoProvider{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type mpItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type mpPreferenceReq struct {
	Items             []mpItem   `json:"items"`
	ExternalReference string     `json:"external_reference"`
	NotificationURL   string     `json:"notification_url,omitempty"`
	BackURLs          mpBackURLs `json:"back_urls"`
}

type mpPreferenceResp struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (p *MercadoPagoProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	amount, _ := req.Amount.Round(2).Float64()
	body, err := json.Marshal(mpPreferenceReq{
		Items: []mpItem{{
			Title:       req.Title,
			Description: req.Description,
			UnitPrice:   amount,
			Quantity:    1,
		}},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: mpBackURLs{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.AccessToken)
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create preference: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago: create preference: status %d: %s", resp.StatusCode, respBody)
	}
	var pref mpPreferenceResp
	if err := json.Unmarshal(respBody, &pref); err != nil {
		return nil, fmt.Errorf("mercadopago: decode preference: %w", err)
	}
	if pref.InitPoint == "" {
		return nil, fmt.Errorf("mercadopago: preference %s has no init_point", pref.ID)
	}
	return &Checkout{Reference: pref.ID, CheckoutURL: pref.InitPoint}, nil
}

type mpPayment struct {
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

func (p *MercadoPagoProvider) LookupPayment(ctx context.Context, paymentID string) (*Event, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.AccessToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: get payment: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago: get payment %s: status %d", paymentID, resp.StatusCode)
	}
	var pm mpPayment
	if err := json.Unmarshal(respBody, &pm); err != nil {
		return nil, fmt.Errorf("mercadopago: decode payment: %w", err)
	}
	return &Event{ExternalReference: pm.ExternalReference, Status: pm.Status}, nil
}
