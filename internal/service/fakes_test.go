package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wyn/internal/models"
	"wyn/pkg/payment"
)

// In-memory fakes with the same not-found and conditional-update semantics as
// the gorm repositories.

type fakeRequestStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.ServiceRequest
	proofs map[uint][]models.CompletionProof
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{
		nextID: 1,
		byID:   make(map[uint]*models.ServiceRequest),
		proofs: make(map[uint][]models.CompletionProof),
	}
}

func (f *fakeRequestStore) Create(req *models.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = f.nextID
	f.nextID++
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeRequestStore) GetByID(id uint) (*models.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) UpdateStatusIf(id uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, s := range fromStatuses {
		if req.Status == s {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	applyRequestUpdates(req, updates)
	return true, nil
}

func (f *fakeRequestStore) AdminUpdate(id uint, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyRequestUpdates(req, updates)
	return nil
}

func (f *fakeRequestStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	delete(f.proofs, id)
	return nil
}

func (f *fakeRequestStore) CreateProof(p *models.CompletionProof) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proofs[p.RequestID] = append(f.proofs[p.RequestID], *p)
	return nil
}

func (f *fakeRequestStore) ListProofs(requestID uint) ([]models.CompletionProof, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CompletionProof(nil), f.proofs[requestID]...), nil
}

func applyRequestUpdates(req *models.ServiceRequest, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			req.Status = v.(string)
		case "agreed_value":
			d := v.(decimal.Decimal)
			req.AgreedValue = &d
		case "accepted_at":
			t := v.(time.Time)
			req.AcceptedAt = &t
		case "completed_at":
			t := v.(time.Time)
			req.CompletedAt = &t
		case "payment_reference":
			req.PaymentReference = v.(string)
		case "payment_link":
			req.PaymentLink = v.(string)
		case "provider_id":
			req.ProviderID = v.(uint)
		case "address":
			req.Address = v.(string)
		case "notes":
			req.Notes = v.(string)
		case "urgent":
			req.Urgent = v.(bool)
		case "preferred_time":
			s := v.(string)
			req.PreferredTime = &s
		case "preferred_date":
			t := v.(time.Time)
			req.PreferredDate = &t
		}
	}
}

type fakeReviewStore struct {
	mu      sync.Mutex
	nextID  uint
	byReq   map[uint]*models.Review
	created int
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{nextID: 1, byReq: make(map[uint]*models.Review)}
}

func (f *fakeReviewStore) Create(rev *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byReq[rev.RequestID]; ok {
		return gorm.ErrDuplicatedKey
	}
	rev.ID = f.nextID
	f.nextID++
	cp := *rev
	f.byReq[rev.RequestID] = &cp
	f.created++
	return nil
}

func (f *fakeReviewStore) ExistsForRequest(requestID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byReq[requestID]
	return ok, nil
}

func (f *fakeReviewStore) DeleteByRequest(requestID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byReq, requestID)
	return nil
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	nextID  uint
	entries []models.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{nextID: 1}
}

func (f *fakeNotificationStore) Create(n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = f.nextID
	f.nextID++
	f.entries = append(f.entries, *n)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(recipientID uint, recipientType string, limit, offset int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.entries {
		if n.RecipientID == recipientID && n.RecipientType == recipientType {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(id, recipientID uint, recipientType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		n := &f.entries[i]
		if n.ID == id && n.RecipientID == recipientID && n.RecipientType == recipientType {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationStore) CountUnread(recipientID uint, recipientType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if e.RecipientID == recipientID && e.RecipientType == recipientType && !e.Read {
			n++
		}
	}
	return n, nil
}

// ofType returns notifications of one type for assertions.
func (f *fakeNotificationStore) ofType(notifType string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.entries {
		if n.Type == notifType {
			out = append(out, n)
		}
	}
	return out
}

type fakeCatalogStore struct {
	byID map[uint]*models.OfferedService
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{byID: make(map[uint]*models.OfferedService)}
}

func (f *fakeCatalogStore) add(s models.OfferedService) {
	f.byID[s.ID] = &s
}

func (f *fakeCatalogStore) GetByID(id uint) (*models.OfferedService, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

type fakeUserStore struct {
	byID map[uint]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uint]*models.User)}
}

func (f *fakeUserStore) add(u models.User) {
	f.byID[u.ID] = &u
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) IsAdmin(id uint) (bool, error) {
	u, ok := f.byID[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return u.IsAdmin, nil
}

type fakeProviderStore struct {
	byID map[uint]*models.Provider
}

func newFakeProviderStore() *fakeProviderStore {
	return &fakeProviderStore{byID: make(map[uint]*models.Provider)}
}

func (f *fakeProviderStore) add(p models.Provider) {
	f.byID[p.ID] = &p
}

func (f *fakeProviderStore) GetByID(id uint) (*models.Provider, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeMessageStore struct {
	mu     sync.Mutex
	nextID uint
	msgs   []models.ChatMessage
	reads  map[uint][]models.MessageRead
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextID: 1, reads: make(map[uint][]models.MessageRead)}
}

func (f *fakeMessageStore) Create(m *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.nextID
	f.nextID++
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessageStore) ListByRequest(requestID uint) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.msgs {
		if m.RequestID != requestID {
			continue
		}
		cp := m
		cp.Reads = append([]models.MessageRead(nil), f.reads[m.ID]...)
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(messageIDs []uint, readerID uint, readerType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range messageIDs {
		dup := false
		for _, r := range f.reads[id] {
			if r.ReaderID == readerID && r.ReaderType == readerType {
				dup = true
				break
			}
		}
		if !dup {
			f.reads[id] = append(f.reads[id], models.MessageRead{
				MessageID:  id,
				ReaderID:   readerID,
				ReaderType: readerType,
			})
		}
	}
	return nil
}

type fakePaymentProvider struct {
	mu       sync.Mutex
	calls    int
	failNext bool
	lastReq  payment.CheckoutRequest
}

func (f *fakePaymentProvider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.failNext {
		return nil, errors.New("gateway unavailable")
	}
	return &payment.Checkout{Reference: "pref-1", CheckoutURL: "https://pay.example/pref-1"}, nil
}

func (f *fakePaymentProvider) LookupPayment(ctx context.Context, paymentID string) (*payment.Event, error) {
	return nil, errors.New("not supported")
}
