package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyn/config"
	"wyn/internal/domain"
	"wyn/internal/models"
)

type workflowFixture struct {
	svc       *WorkflowService
	requests  *fakeRequestStore
	reviews   *fakeReviewStore
	notifs    *fakeNotificationStore
	catalog   *fakeCatalogStore
	users     *fakeUserStore
	providers *fakeProviderStore
	gateway   *fakePaymentProvider
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		requests:  newFakeRequestStore(),
		reviews:   newFakeReviewStore(),
		notifs:    newFakeNotificationStore(),
		catalog:   newFakeCatalogStore(),
		users:     newFakeUserStore(),
		providers: newFakeProviderStore(),
		gateway:   &fakePaymentProvider{},
	}
	f.users.add(models.User{ID: 1, Name: "Ana", Email: "ana@example.com"})
	f.users.add(models.User{ID: 99, Name: "Root", Email: "root@example.com", IsAdmin: true})
	f.providers.add(models.Provider{ID: 2, Name: "Bruno", Email: "bruno@example.com"})
	f.catalog.add(models.OfferedService{ID: 10, ProviderID: 2, Name: "Pipe repair", Description: "Fix leaks"})

	guard := NewGuard(f.users)
	notifSvc := NewNotificationService(f.notifs)
	f.svc = NewWorkflowService(f.requests, f.reviews, f.catalog, f.users, f.providers, notifSvc, guard, f.gateway, config.MercadoPagoConfig{
		ClientBaseURL:  "https://app.example",
		WebhookBaseURL: "https://api.example",
	})
	return f
}

var (
	client   = Principal{ID: 1, Type: domain.PrincipalClient, Email: "ana@example.com"}
	provider = Principal{ID: 2, Type: domain.PrincipalProvider, Email: "bruno@example.com"}
	admin    = Principal{ID: 99, Type: domain.PrincipalClient, Email: "root@example.com", AdminClaim: true}
	stranger = Principal{ID: 77, Type: domain.PrincipalProvider, Email: "other@example.com"}
)

func boolPtr(b bool) *bool { return &b }

func (f *workflowFixture) createRequest(t *testing.T) *models.ServiceRequest {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), client, CreateRequestInput{
		OfferedServiceID: 10,
		ProviderID:       2,
		Address:          "Rua A 123",
		Urgent:           boolPtr(false),
	})
	require.NoError(t, err)
	return req
}

func (f *workflowFixture) acceptRequest(t *testing.T, id uint) *models.ServiceRequest {
	t.Helper()
	req, err := f.svc.Accept(context.Background(), provider, id, decimal.NewFromInt(150))
	require.NoError(t, err)
	return req
}

func TestCreateRequest(t *testing.T) {
	f := newWorkflowFixture(t)

	req := f.createRequest(t)
	assert.Equal(t, domain.StatusPendingProviderAcceptance, req.Status)
	assert.Equal(t, "Pipe repair", req.ServiceName)
	assert.Equal(t, uint(1), req.ClientID)

	notifs := f.notifs.ofType(domain.NotifNewRequest)
	require.Len(t, notifs, 1)
	assert.Equal(t, uint(2), notifs[0].RecipientID)
	assert.Equal(t, domain.PrincipalProvider, notifs[0].RecipientType)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.CreateRequest(context.Background(), provider, CreateRequestInput{
		OfferedServiceID: 10, ProviderID: 2, Address: "x", Urgent: boolPtr(false),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateRequest(context.Background(), client, CreateRequestInput{
		OfferedServiceID: 10, ProviderID: 2, Urgent: boolPtr(false),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// listing belongs to another provider
	f.providers.add(models.Provider{ID: 3, Name: "Carla", Email: "carla@example.com"})
	_, err = f.svc.CreateRequest(context.Background(), client, CreateRequestInput{
		OfferedServiceID: 10, ProviderID: 3, Address: "x", Urgent: boolPtr(false),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// schedule needs both halves
	hhmm := "14:30"
	_, err = f.svc.CreateRequest(context.Background(), client, CreateRequestInput{
		OfferedServiceID: 10, ProviderID: 2, Address: "x", Urgent: boolPtr(false),
		PreferredTime: &hhmm,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAccept(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	out := f.acceptRequest(t, req.ID)
	assert.Equal(t, domain.StatusAwaitingClientPayment, out.Status)
	require.NotNil(t, out.AgreedValue)
	assert.True(t, out.AgreedValue.Equal(decimal.NewFromInt(150)))
	assert.NotNil(t, out.AcceptedAt)
	assert.NotEmpty(t, out.PaymentLink)

	// checkout carries the request id as external reference
	assert.Equal(t, "1", f.gateway.lastReq.ExternalReference)

	notifs := f.notifs.ofType(domain.NotifAccepted)
	require.Len(t, notifs, 1)
	assert.Equal(t, uint(1), notifs[0].RecipientID)
}

func TestAcceptGatewayFailureKeepsState(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.gateway.failNext = true

	_, err := f.svc.Accept(context.Background(), provider, req.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrUpstream)

	stored, err := f.requests.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingProviderAcceptance, stored.Status)
	assert.Nil(t, stored.AgreedValue)

	// retry succeeds once the gateway recovers
	f.gateway.failNext = false
	out, err := f.svc.Accept(context.Background(), provider, req.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingClientPayment, out.Status)
}

func TestAcceptAuthorization(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	_, err := f.svc.Accept(context.Background(), client, req.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// the wrong provider must not learn the request exists
	_, err = f.svc.Accept(context.Background(), stranger, req.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptRequiresPositiveValue(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	_, err := f.svc.Accept(context.Background(), provider, req.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.gateway.calls)
}

func TestAcceptTwiceConflicts(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)

	_, err := f.svc.Accept(context.Background(), provider, req.ID, decimal.NewFromInt(200))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAcceptConcurrentSingleWinner(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(context.Background(), provider, req.ID, decimal.NewFromInt(150))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Len(t, f.notifs.ofType(domain.NotifAccepted), 1)
}

func TestReject(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	out, err := f.svc.Reject(context.Background(), provider, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProviderRejected, out.Status)
	require.Len(t, f.notifs.ofType(domain.NotifRejected), 1)

	_, err = f.svc.Reject(context.Background(), provider, req.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPaymentApproved(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)

	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)

	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusProviderAccepted, stored.Status)
	require.Len(t, f.notifs.ofType(domain.NotifPaymentReceived), 1)
}

func TestPaymentApprovedIdempotent(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)

	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)
	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)
	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)

	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusProviderAccepted, stored.Status)
	// duplicate deliveries must not duplicate the notification
	assert.Len(t, f.notifs.ofType(domain.NotifPaymentReceived), 1)
}

func TestPaymentPendingThenApproved(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)

	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentPending)
	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusAwaitingPaymentConfirm, stored.Status)

	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)
	stored, _ = f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusProviderAccepted, stored.Status)
}

func TestPaymentRejectedLeavesState(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)

	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentRejected)
	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusAwaitingClientPayment, stored.Status)
	assert.Empty(t, f.notifs.ofType(domain.NotifPaymentReceived))
}

func TestPaymentEventUnknownReference(t *testing.T) {
	f := newWorkflowFixture(t)
	// must not panic or write anything
	f.svc.HandlePaymentEvent(context.Background(), "999", domain.PaymentApproved)
	f.svc.HandlePaymentEvent(context.Background(), "not-a-number", domain.PaymentApproved)
	assert.Empty(t, f.notifs.ofType(domain.NotifPaymentReceived))
}

func approvedRequest(t *testing.T, f *workflowFixture) *models.ServiceRequest {
	t.Helper()
	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)
	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)
	stored, err := f.requests.GetByID(req.ID)
	require.NoError(t, err)
	return stored
}

func TestComplete(t *testing.T) {
	f := newWorkflowFixture(t)
	req := approvedRequest(t, f)

	out, err := f.svc.Complete(context.Background(), provider, req.ID, []ProofUpload{
		{FileURL: "https://cdn.example/p1.jpg", OriginalName: "before.jpg"},
		{FileURL: "https://cdn.example/p2.pdf", OriginalName: "invoice.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProviderCompleted, out.Status)
	assert.NotNil(t, out.CompletedAt)

	proofs, _ := f.requests.ListProofs(req.ID)
	assert.Len(t, proofs, 2)
	require.Len(t, f.notifs.ofType(domain.NotifCompleted), 1)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	_, err := f.svc.Complete(context.Background(), provider, req.ID, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func completedRequest(t *testing.T, f *workflowFixture) *models.ServiceRequest {
	t.Helper()
	req := approvedRequest(t, f)
	out, err := f.svc.Complete(context.Background(), provider, req.ID, nil)
	require.NoError(t, err)
	return out
}

func TestSubmitReview(t *testing.T) {
	f := newWorkflowFixture(t)
	req := completedRequest(t, f)

	rev, err := f.svc.SubmitReview(context.Background(), client, req.ID, 5, "great work")
	require.NoError(t, err)
	assert.Equal(t, 5, rev.Rating)
	assert.Equal(t, uint(2), rev.ProviderID)

	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusClientReviewed, stored.Status)
	require.Len(t, f.notifs.ofType(domain.NotifNewReview), 1)
}

func TestSubmitReviewOncePerRequest(t *testing.T) {
	f := newWorkflowFixture(t)
	req := completedRequest(t, f)

	_, err := f.svc.SubmitReview(context.Background(), client, req.ID, 5, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitReview(context.Background(), client, req.ID, 4, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.reviews.created)
}

func TestSubmitReviewValidation(t *testing.T) {
	f := newWorkflowFixture(t)
	req := completedRequest(t, f)

	_, err := f.svc.SubmitReview(context.Background(), client, req.ID, 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitReview(context.Background(), client, req.ID, 6, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitReview(context.Background(), provider, req.ID, 5, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmitReviewRequiresCompleted(t *testing.T) {
	f := newWorkflowFixture(t)
	req := approvedRequest(t, f)

	_, err := f.svc.SubmitReview(context.Background(), client, req.ID, 5, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	exists, _ := f.reviews.ExistsForRequest(req.ID)
	assert.False(t, exists)
}

func TestCancel(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	out, err := f.svc.Cancel(context.Background(), client, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, out.Status)

	_, err = f.svc.Cancel(context.Background(), client, req.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancelAuthorization(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	_, err := f.svc.Cancel(context.Background(), stranger, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// admins can cancel anyone's request
	_, err = f.svc.Cancel(context.Background(), admin, req.ID)
	assert.NoError(t, err)
}

func TestDeleteMatrix(t *testing.T) {
	f := newWorkflowFixture(t)

	// client can delete while still pending
	req := f.createRequest(t)
	_, err := f.svc.Delete(context.Background(), client, req.ID)
	assert.NoError(t, err)

	// and while awaiting payment
	req2 := f.createRequest(t)
	_, err = f.svc.Accept(context.Background(), provider, req2.ID, decimal.NewFromInt(80))
	require.NoError(t, err)
	_, err = f.svc.Delete(context.Background(), client, req2.ID)
	assert.NoError(t, err)

	// but not once the payment went through
	req3 := f.createRequest(t)
	_, err = f.svc.Accept(context.Background(), provider, req3.ID, decimal.NewFromInt(80))
	require.NoError(t, err)
	f.svc.HandlePaymentEvent(context.Background(), "3", domain.PaymentApproved)
	_, err = f.svc.Delete(context.Background(), client, req3.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// admin deletes from any state
	_, err = f.svc.Delete(context.Background(), admin, req3.ID)
	assert.NoError(t, err)
}

func TestDeleteReturnsProofURLs(t *testing.T) {
	f := newWorkflowFixture(t)
	req := completedRequest(t, f)
	require.NoError(t, f.requests.CreateProof(&models.CompletionProof{
		RequestID: req.ID, FileURL: "https://cdn.example/p.jpg",
	}))

	urls, err := f.svc.Delete(context.Background(), admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/p.jpg"}, urls)

	_, err = f.requests.GetByID(req.ID)
	assert.Error(t, err)
}

func TestAdminOverride(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	status := domain.StatusProviderAccepted
	out, err := f.svc.AdminOverride(context.Background(), admin, req.ID, OverrideInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProviderAccepted, out.Status)
	// first transition into accepted stamps the timestamp
	assert.NotNil(t, out.AcceptedAt)
}

func TestAdminOverrideValidation(t *testing.T) {
	f := newWorkflowFixture(t)
	req := f.createRequest(t)

	_, err := f.svc.AdminOverride(context.Background(), admin, req.ID, OverrideInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := "no_such_status"
	_, err = f.svc.AdminOverride(context.Background(), admin, req.ID, OverrideInput{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	missing := uint(404)
	_, err = f.svc.AdminOverride(context.Background(), admin, req.ID, OverrideInput{ProviderID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the admin flag is re-read from storage, not trusted from the claim
	fakeAdmin := Principal{ID: 1, Type: domain.PrincipalClient, AdminClaim: true}
	st := domain.StatusCancelled
	_, err = f.svc.AdminOverride(context.Background(), fakeAdmin, req.ID, OverrideInput{Status: &st})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFullLifecycle(t *testing.T) {
	f := newWorkflowFixture(t)

	req := f.createRequest(t)
	f.acceptRequest(t, req.ID)
	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentPending)
	f.svc.HandlePaymentEvent(context.Background(), "1", domain.PaymentApproved)
	_, err := f.svc.Complete(context.Background(), provider, req.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.SubmitReview(context.Background(), client, req.ID, 4, "solid")
	require.NoError(t, err)

	stored, _ := f.requests.GetByID(req.ID)
	assert.Equal(t, domain.StatusClientReviewed, stored.Status)

	// one notification per lifecycle event
	assert.Len(t, f.notifs.ofType(domain.NotifNewRequest), 1)
	assert.Len(t, f.notifs.ofType(domain.NotifAccepted), 1)
	assert.Len(t, f.notifs.ofType(domain.NotifPaymentReceived), 1)
	assert.Len(t, f.notifs.ofType(domain.NotifCompleted), 1)
	assert.Len(t, f.notifs.ofType(domain.NotifNewReview), 1)
}
