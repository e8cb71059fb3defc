package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// CheckoutRequest describes one hosted payment session to create. The
// external reference carries the service-request id so webhook events can be
// resolved back to the ledger.
type CheckoutRequest struct {
	ExternalReference string
	Title             string
	Description       string
	Amount            decimal.Decimal
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
}

// Checkout is the created session: an opaque reference plus the URL the
// client is redirected to.
type Checkout struct {
	Reference   string
	CheckoutURL string
}

// Event is one resolved payment status report.
type Event struct {
	ExternalReference string
	Status            string // approved | pending | rejected
}

type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// LookupPayment resolves a gateway payment id, as delivered by an
	// id-only webhook notification, into an event.
	LookupPayment(ctx context.Context, paymentID string) (*Event, error)
}
