package service

import (
	"context"
	"fmt"

	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// QueryService serves the read side of the request workflow: detail views,
// role-scoped listings and the provider dashboard.
type QueryService struct {
	requests *repository.RequestRepository
	reviews  *repository.ReviewRepository
	messages *repository.MessageRepository
	guard    *Guard
}

func NewQueryService(requests *repository.RequestRepository, reviews *repository.ReviewRepository, messages *repository.MessageRepository, guard *Guard) *QueryService {
	return &QueryService{requests: requests, reviews: reviews, messages: messages, guard: guard}
}

// Get returns one request, participant-gated.
func (s *QueryService) Get(ctx context.Context, p Principal, requestID uint) (*models.ServiceRequest, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: request", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.guard.RequireParticipant(req, p); err != nil {
		return nil, err
	}
	return req, nil
}

// ListForClient returns the caller's own requests, optionally filtered by
// status.
func (s *QueryService) ListForClient(ctx context.Context, p Principal, status string, limit, offset int) ([]models.ServiceRequest, error) {
	if !p.IsClient() {
		return nil, fmt.Errorf("%w: client role required", domain.ErrForbidden)
	}
	if status != "" {
		if !domain.IsValidStatus(status) {
			return nil, domain.Validationf("unknown status %q", status)
		}
		list, err := s.requests.ListByClientAndStatus(p.ID, []string{status}, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return list, nil
	}
	list, err := s.requests.ListByClient(p.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// PendingReview lists the caller's requests waiting on their review.
func (s *QueryService) PendingReview(ctx context.Context, p Principal, limit, offset int) ([]models.ServiceRequest, error) {
	if !p.IsClient() {
		return nil, fmt.Errorf("%w: client role required", domain.ErrForbidden)
	}
	list, err := s.requests.ListByClientAndStatus(p.ID,
		[]string{domain.StatusProviderCompleted}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// ListForProvider splits the assigned provider's inbox by workflow phase:
// "pending" (awaiting the provider's decision), "active" (accepted and in
// flight) and "history" (terminal).
func (s *QueryService) ListForProvider(ctx context.Context, p Principal, view string, limit, offset int) ([]models.ServiceRequest, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	var statuses []string
	switch view {
	case "pending":
		statuses = []string{domain.StatusPendingProviderAcceptance}
	case "active":
		statuses = []string{
			domain.StatusAwaitingClientPayment,
			domain.StatusAwaitingPaymentConfirm,
			domain.StatusProviderAccepted,
			domain.StatusProviderCompleted,
		}
	case "history":
		statuses = append([]string(nil), domain.TerminalStatuses...)
	case "", "all":
		statuses = append([]string(nil), domain.AllStatuses...)
	default:
		return nil, domain.Validationf("unknown view %q", view)
	}
	list, err := s.requests.ListByProviderAndStatus(p.ID, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// ListAll is the admin's unscoped listing.
func (s *QueryService) ListAll(ctx context.Context, p Principal, limit, offset int) ([]models.ServiceRequest, int64, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, 0, err
	}
	list, total, err := s.requests.ListAll(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, total, nil
}

// Dashboard is the provider's home-screen aggregate.
type Dashboard struct {
	PendingCount  int64                        `json:"pending_count"`
	ActiveCount   int64                        `json:"active_count"`
	AverageRating float64                      `json:"average_rating"`
	ReviewCount   int64                        `json:"review_count"`
	Earnings      []repository.MonthlyEarnings `json:"earnings"`
}

// ProviderDashboard aggregates counts, rating and the monthly earnings chart
// for the calling provider.
func (s *QueryService) ProviderDashboard(ctx context.Context, p Principal) (*Dashboard, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	d := &Dashboard{}

	pending, err := s.requests.CountByProviderAndStatus(p.ID,
		[]string{domain.StatusPendingProviderAcceptance})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	d.PendingCount = pending

	active, err := s.requests.CountByProviderAndStatus(p.ID, []string{
		domain.StatusAwaitingClientPayment,
		domain.StatusAwaitingPaymentConfirm,
		domain.StatusProviderAccepted,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	d.ActiveCount = active

	avg, count, err := s.reviews.AverageRatingByProvider(p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	d.AverageRating = avg
	d.ReviewCount = count

	earnings, err := s.requests.EarningsByMonth(p.ID, []string{
		domain.StatusProviderCompleted,
		domain.StatusClientReviewed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	d.Earnings = earnings
	return d, nil
}

// MyReviews lists the reviews left on the calling provider's work, newest
// first.
func (s *QueryService) MyReviews(ctx context.Context, p Principal, limit, offset int) ([]models.Review, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	list, err := s.reviews.ListByProvider(p.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// UnreadMessages counts unread chat messages across every conversation the
// principal is a party to.
func (s *QueryService) UnreadMessages(ctx context.Context, p Principal) (int64, error) {
	ids, err := s.requests.ListIDsByParticipant(p.ID, p.Type)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.messages.CountUnread(p.ID, p.Type, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return n, nil
}
