package domain

// Principal types. Every authenticated actor is exactly one of these; admins are
// clients whose user record carries the admin flag.
const (
	PrincipalClient   = "client"
	PrincipalProvider = "provider"
)

// Service request lifecycle statuses.
const (
	StatusPendingProviderAcceptance = "pending_provider_acceptance"
	StatusAwaitingClientPayment     = "awaiting_client_payment"
	StatusAwaitingPaymentConfirm    = "awaiting_payment_confirmation"
	StatusProviderAccepted          = "provider_accepted"
	StatusProviderCompleted         = "provider_completed"
	StatusClientReviewed            = "client_reviewed"
	StatusProviderRejected          = "provider_rejected"
	StatusCancelled                 = "cancelled"
)

// AllStatuses lists every declared status; admin overrides validate against it.
var AllStatuses = []string{
	StatusPendingProviderAcceptance,
	StatusAwaitingClientPayment,
	StatusAwaitingPaymentConfirm,
	StatusProviderAccepted,
	StatusProviderCompleted,
	StatusClientReviewed,
	StatusProviderRejected,
	StatusCancelled,
}

// TerminalStatuses cannot be cancelled out of.
var TerminalStatuses = []string{
	StatusClientReviewed,
	StatusProviderRejected,
	StatusCancelled,
}

// ClientDeletableStatuses are the states in which the owning client may delete
// a request. Admins may delete from any state.
var ClientDeletableStatuses = []string{
	StatusPendingProviderAcceptance,
	StatusAwaitingClientPayment,
	StatusProviderRejected,
	StatusCancelled,
}

// Payment gateway event statuses as delivered on the webhook.
const (
	PaymentApproved = "approved"
	PaymentPending  = "pending"
	PaymentRejected = "rejected"
)

// Notification types.
const (
	NotifNewRequest      = "new_solicitation"
	NotifAccepted        = "solicitation_accepted"
	NotifRejected        = "solicitation_rejected"
	NotifPaymentReceived = "payment_received"
	NotifCompleted       = "service_concluded"
	NotifNewReview       = "new_review"
	NotifNewMessage      = "new_message"
)

func IsValidStatus(s string) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsTerminalStatus(s string) bool {
	for _, v := range TerminalStatuses {
		if v == s {
			return true
		}
	}
	return false
}
