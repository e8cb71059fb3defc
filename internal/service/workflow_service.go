package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wyn/config"
	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/pkg/payment"
)

// WorkflowService is the request lifecycle state machine. Every transition is
// applied as a conditional write keyed on the expected from-state, so
// concurrent actors get exactly one winner and the losers a conflict.
type WorkflowService struct {
	requests  RequestStore
	reviews   ReviewStore
	catalog   CatalogStore
	users     UserStore
	providers ProviderStore
	notif     *NotificationService
	guard     *Guard
	payments  payment.Provider
	mp        config.MercadoPagoConfig
}

func NewWorkflowService(
	requests RequestStore,
	reviews ReviewStore,
	catalog CatalogStore,
	users UserStore,
	providers ProviderStore,
	notif *NotificationService,
	guard *Guard,
	payments payment.Provider,
	mp config.MercadoPagoConfig,
) *WorkflowService {
	return &WorkflowService{
		requests:  requests,
		reviews:   reviews,
		catalog:   catalog,
		users:     users,
		providers: providers,
		notif:     notif,
		guard:     guard,
		payments:  payments,
		mp:        mp,
	}
}

func notFound(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *WorkflowService) load(id uint) (*models.ServiceRequest, error) {
	req, err := s.requests.GetByID(id)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: request", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return req, nil
}

// CreateRequestInput carries the client's submission against a catalog
// listing.
type CreateRequestInput struct {
	OfferedServiceID uint
	ProviderID       uint
	Address          string
	Notes            string
	Urgent           *bool
	PreferredDate    *time.Time
	PreferredTime    *string
}

// CreateRequest validates the submission against the catalog and creates the
// request in its initial state, notifying the provider.
func (s *WorkflowService) CreateRequest(ctx context.Context, p Principal, in CreateRequestInput) (*models.ServiceRequest, error) {
	if !p.IsClient() {
		return nil, fmt.Errorf("%w: client role required", domain.ErrForbidden)
	}
	if in.Address == "" {
		return nil, domain.Validationf("address is required")
	}
	if in.Urgent == nil {
		return nil, domain.Validationf("urgent flag is required")
	}
	if err := models.ValidateSchedule(in.PreferredDate, in.PreferredTime); err != nil {
		return nil, err
	}
	listing, err := s.catalog.GetByID(in.OfferedServiceID)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: offered service", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if listing.ProviderID != in.ProviderID {
		return nil, domain.Validationf("provider does not offer this service")
	}

	req := &models.ServiceRequest{
		ClientID:           p.ID,
		ProviderID:         in.ProviderID,
		OfferedServiceID:   listing.ID,
		ServiceName:        listing.Name,
		ServiceDescription: listing.Description,
		Address:            in.Address,
		Notes:              in.Notes,
		Urgent:             *in.Urgent,
		PreferredDate:      in.PreferredDate,
		PreferredTime:      in.PreferredTime,
		Status:             domain.StatusPendingProviderAcceptance,
	}
	if err := s.requests.Create(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	clientName := p.Email
	if u, err := s.users.GetByID(p.ID); err == nil {
		clientName = u.Name
	}
	_ = s.notif.NotifyNewRequest(req.ProviderID, req.ID, clientName, req.ServiceName)

	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"client_id":   req.ClientID,
		"provider_id": req.ProviderID,
	}).Info("request created")
	return req, nil
}

// Accept fixes the price and moves the request to awaiting_client_payment.
// The checkout session is created before the ledger write: a gateway failure
// leaves the request untouched.
func (s *WorkflowService) Accept(ctx context.Context, p Principal, requestID uint, value decimal.Decimal) (*models.ServiceRequest, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAssignedProvider(req, p); err != nil {
		return nil, err
	}
	if !value.IsPositive() {
		return nil, domain.Validationf("agreed value must be greater than zero")
	}
	value = value.Round(2)
	if req.Status != domain.StatusPendingProviderAcceptance {
		return nil, fmt.Errorf("%w: request is not awaiting acceptance", domain.ErrConflict)
	}

	checkout, err := s.payments.CreateCheckout(ctx, payment.CheckoutRequest{
		ExternalReference: strconv.FormatUint(uint64(req.ID), 10),
		Title:             "Service: " + req.ServiceName,
		Description:       req.ServiceDescription,
		Amount:            value,
		SuccessURL:        s.mp.ClientBaseURL + "/contracts?payment=success&request=" + strconv.FormatUint(uint64(req.ID), 10),
		FailureURL:        s.mp.ClientBaseURL + "/payment-pending?payment=failure&request=" + strconv.FormatUint(uint64(req.ID), 10),
		PendingURL:        s.mp.ClientBaseURL + "/payment-pending?payment=pending&request=" + strconv.FormatUint(uint64(req.ID), 10),
		NotificationURL:   s.mp.WebhookBaseURL + "/api/v1/webhooks/payment",
	})
	if err != nil {
		logrus.WithError(err).WithField("request_id", req.ID).Error("checkout creation failed")
		return nil, fmt.Errorf("%w: payment gateway: %v", domain.ErrUpstream, err)
	}

	now := time.Now()
	won, err := s.requests.UpdateStatusIf(req.ID,
		[]string{domain.StatusPendingProviderAcceptance},
		map[string]interface{}{
			"status":            domain.StatusAwaitingClientPayment,
			"agreed_value":      value,
			"accepted_at":       now,
			"payment_reference": checkout.Reference,
			"payment_link":      checkout.CheckoutURL,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !won {
		return nil, fmt.Errorf("%w: request is not awaiting acceptance", domain.ErrConflict)
	}

	req.Status = domain.StatusAwaitingClientPayment
	req.AgreedValue = &value
	req.AcceptedAt = &now
	req.PaymentReference = checkout.Reference
	req.PaymentLink = checkout.CheckoutURL

	_ = s.notif.NotifyAccepted(req.ClientID, req.ID, req.ServiceName, value)
	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"value":      value.StringFixed(2),
	}).Info("request accepted")
	return req, nil
}

// Reject moves a pending request to provider_rejected.
func (s *WorkflowService) Reject(ctx context.Context, p Principal, requestID uint) (*models.ServiceRequest, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAssignedProvider(req, p); err != nil {
		return nil, err
	}
	won, err := s.requests.UpdateStatusIf(req.ID,
		[]string{domain.StatusPendingProviderAcceptance},
		map[string]interface{}{"status": domain.StatusProviderRejected})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !won {
		return nil, fmt.Errorf("%w: request is not awaiting acceptance", domain.ErrConflict)
	}
	req.Status = domain.StatusProviderRejected
	_ = s.notif.NotifyRejected(req.ClientID, req.ID, req.ServiceName)
	return req, nil
}

// HandlePaymentEvent ingests an asynchronous gateway status report. It never
// returns an error for unknown references or unexpected states: the gateway
// redelivers, and processing must not crash the ingestion path.
//
// Duplicate "approved" deliveries are idempotent including the notification:
// only the delivery that wins the conditional status write notifies the
// provider.
func (s *WorkflowService) HandlePaymentEvent(ctx context.Context, externalReference, status string) {
	log := logrus.WithFields(logrus.Fields{
		"external_reference": externalReference,
		"payment_status":     status,
	})
	id64, err := strconv.ParseUint(externalReference, 10, 64)
	if err != nil {
		log.Warn("payment event with malformed reference")
		return
	}
	req, err := s.requests.GetByID(uint(id64))
	if err != nil {
		if notFound(err) {
			log.Warn("payment event for unknown request")
		} else {
			log.WithError(err).Error("payment event: load request")
		}
		return
	}

	switch status {
	case domain.PaymentApproved:
		won, err := s.requests.UpdateStatusIf(req.ID,
			[]string{domain.StatusAwaitingClientPayment, domain.StatusAwaitingPaymentConfirm},
			map[string]interface{}{"status": domain.StatusProviderAccepted})
		if err != nil {
			log.WithError(err).Error("payment event: approve transition")
			return
		}
		if !won {
			log.WithField("current_status", req.Status).Info("approved event ignored, request not awaiting payment")
			return
		}
		value := decimal.Zero
		if req.AgreedValue != nil {
			value = *req.AgreedValue
		}
		_ = s.notif.NotifyPaymentReceived(req.ProviderID, req.ID, req.ServiceName, value)
		log.Info("payment approved, request in progress")
	case domain.PaymentPending:
		won, err := s.requests.UpdateStatusIf(req.ID,
			[]string{domain.StatusAwaitingClientPayment},
			map[string]interface{}{"status": domain.StatusAwaitingPaymentConfirm})
		if err != nil {
			log.WithError(err).Error("payment event: pending transition")
			return
		}
		if won {
			log.Info("payment pending confirmation")
		}
	case domain.PaymentRejected:
		log.Warn("payment rejected, request status unchanged")
	default:
		log.Info("payment event with unhandled status ignored")
	}
}

// ProofUpload references a file already written to storage. Files are
// uploaded before the transition commits; the caller removes them again if
// the transition fails.
type ProofUpload struct {
	FileURL      string
	OriginalName string
}

// Complete moves an in-progress request to provider_completed and records the
// proof references.
func (s *WorkflowService) Complete(ctx context.Context, p Principal, requestID uint, proofs []ProofUpload) (*models.ServiceRequest, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAssignedProvider(req, p); err != nil {
		return nil, err
	}
	now := time.Now()
	won, err := s.requests.UpdateStatusIf(req.ID,
		[]string{domain.StatusProviderAccepted},
		map[string]interface{}{
			"status":       domain.StatusProviderCompleted,
			"completed_at": now,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !won {
		return nil, fmt.Errorf("%w: request is not in progress", domain.ErrConflict)
	}
	for _, pr := range proofs {
		if err := s.requests.CreateProof(&models.CompletionProof{
			RequestID:    req.ID,
			FileURL:      pr.FileURL,
			OriginalName: pr.OriginalName,
		}); err != nil {
			logrus.WithError(err).WithField("request_id", req.ID).Error("persist completion proof")
		}
	}
	req.Status = domain.StatusProviderCompleted
	req.CompletedAt = &now
	_ = s.notif.NotifyCompleted(req.ClientID, req.ID, req.ServiceName)
	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"proofs":     len(proofs),
	}).Info("request completed")
	return req, nil
}

// SubmitReview records the single client review and closes the workflow. The
// review row is written first (a duplicate is a conflict either from the
// pre-check or the unique index); if the status transition then loses a race
// the review is backed out so no partial write survives.
func (s *WorkflowService) SubmitReview(ctx context.Context, p Principal, requestID uint, rating int, comment string) (*models.Review, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwningClient(req, p); err != nil {
		return nil, err
	}
	if req.Status != domain.StatusProviderCompleted {
		return nil, fmt.Errorf("%w: request is not awaiting review", domain.ErrConflict)
	}
	rev := &models.Review{
		RequestID:  req.ID,
		ClientID:   req.ClientID,
		ProviderID: req.ProviderID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := rev.Validate(); err != nil {
		return nil, err
	}
	exists, err := s.reviews.ExistsForRequest(req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: request already reviewed", domain.ErrConflict)
	}
	if err := s.reviews.Create(rev); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: request already reviewed", domain.ErrConflict)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	won, err := s.requests.UpdateStatusIf(req.ID,
		[]string{domain.StatusProviderCompleted},
		map[string]interface{}{"status": domain.StatusClientReviewed})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !won {
		_ = s.reviews.DeleteByRequest(req.ID)
		return nil, fmt.Errorf("%w: request is not awaiting review", domain.ErrConflict)
	}
	_ = s.notif.NotifyNewReview(req.ProviderID, req.ID, req.ServiceName, rating)
	return rev, nil
}

// Cancel moves any non-terminal request to cancelled. Clients may cancel
// their own requests; admins any.
func (s *WorkflowService) Cancel(ctx context.Context, p Principal, requestID uint) (*models.ServiceRequest, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	owner := p.IsClient() && req.ClientID == p.ID
	if !owner && !s.guard.IsAdmin(p) {
		return nil, fmt.Errorf("%w: request", domain.ErrNotFound)
	}
	if domain.IsTerminalStatus(req.Status) {
		return nil, fmt.Errorf("%w: request is already in a terminal state", domain.ErrConflict)
	}
	nonTerminal := make([]string, 0, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		if !domain.IsTerminalStatus(st) {
			nonTerminal = append(nonTerminal, st)
		}
	}
	won, err := s.requests.UpdateStatusIf(req.ID, nonTerminal,
		map[string]interface{}{"status": domain.StatusCancelled})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !won {
		return nil, fmt.Errorf("%w: request is already in a terminal state", domain.ErrConflict)
	}
	req.Status = domain.StatusCancelled
	return req, nil
}

// Delete removes a request and everything referencing it. It returns the
// proof file URLs so the caller can remove the backing files best-effort.
func (s *WorkflowService) Delete(ctx context.Context, p Principal, requestID uint) ([]string, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CanDelete(req, p); err != nil {
		return nil, err
	}
	// TODO: expire the checkout preference at the gateway when a request is
	// deleted while awaiting payment, so the stale payment link stops working.
	proofs, err := s.requests.ListProofs(req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	urls := make([]string, 0, len(proofs))
	for _, pr := range proofs {
		urls = append(urls, pr.FileURL)
	}
	if err := s.requests.Delete(req.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	logrus.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"principal_id": p.ID,
	}).Info("request deleted")
	return urls, nil
}

// OverrideInput is the admin's sparse patch. Nil fields are untouched.
type OverrideInput struct {
	ProviderID    *uint
	Status        *string
	AgreedValue   *decimal.Decimal
	PreferredDate *time.Time
	PreferredTime *string
	Address       *string
	Notes         *string
	Urgent        *bool
}

func (in OverrideInput) empty() bool {
	return in.ProviderID == nil && in.Status == nil && in.AgreedValue == nil &&
		in.PreferredDate == nil && in.PreferredTime == nil && in.Address == nil &&
		in.Notes == nil && in.Urgent == nil
}

// AdminOverride mutates the request directly, bypassing transition guards.
// Acceptance/completion timestamps are set when the override first moves the
// request into those states.
func (s *WorkflowService) AdminOverride(ctx context.Context, p Principal, requestID uint, in OverrideInput) (*models.ServiceRequest, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, domain.Validationf("at least one field must be provided")
	}
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.ProviderID != nil {
		if _, err := s.providers.GetByID(*in.ProviderID); err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: provider", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		updates["provider_id"] = *in.ProviderID
	}
	if in.Status != nil {
		if !domain.IsValidStatus(*in.Status) {
			return nil, domain.Validationf("unknown status %q", *in.Status)
		}
		updates["status"] = *in.Status
		if *in.Status == domain.StatusProviderAccepted && req.AcceptedAt == nil {
			updates["accepted_at"] = time.Now()
		}
		if *in.Status == domain.StatusProviderCompleted && req.CompletedAt == nil {
			updates["completed_at"] = time.Now()
		}
	}
	if in.AgreedValue != nil {
		if !in.AgreedValue.IsPositive() {
			return nil, domain.Validationf("agreed value must be greater than zero")
		}
		updates["agreed_value"] = in.AgreedValue.Round(2)
	}
	if in.PreferredDate != nil {
		updates["preferred_date"] = *in.PreferredDate
	}
	if in.PreferredTime != nil {
		if !models.ValidTimeOfDay(*in.PreferredTime) {
			return nil, domain.Validationf("preferred_time must be HH:MM")
		}
		updates["preferred_time"] = *in.PreferredTime
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Urgent != nil {
		updates["urgent"] = *in.Urgent
	}

	if err := s.requests.AdminUpdate(req.ID, updates); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"admin_id":   p.ID,
	}).Info("admin override applied")
	return s.load(requestID)
}

// Proofs lists the completion evidence for a request, participant-gated.
func (s *WorkflowService) Proofs(ctx context.Context, p Principal, requestID uint) ([]models.CompletionProof, error) {
	req, err := s.load(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireParticipant(req, p); err != nil {
		return nil, err
	}
	proofs, err := s.requests.ListProofs(req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return proofs, nil
}
