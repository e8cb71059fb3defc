package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development without gateway
// credentials.
type StubProvider struct{}

func (s *StubProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	ref := fmt.Sprintf("stub_%s_%d", req.ExternalReference, time.Now().UnixNano())
	return &Checkout{
		Reference:   ref,
		CheckoutURL: "https://checkout.invalid/" + ref,
	}, nil
}

func (s *StubProvider) LookupPayment(ctx context.Context, paymentID string) (*Event, error) {
	return nil, fmt.Errorf("stub provider cannot resolve payment %s", paymentID)
}
