package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wyn/internal/domain"
	"wyn/internal/models"
)

// Principal is the authenticated actor for one operation. No process-wide
// identity state: every service call receives its principal explicitly.
// AdminClaim is the cached token claim; destructive paths go through
// RequireAdmin which re-reads the flag from storage.
type Principal struct {
	ID         uint
	Type       string // client | provider
	Email      string
	AdminClaim bool
}

func (p Principal) IsClient() bool   { return p.Type == domain.PrincipalClient }
func (p Principal) IsProvider() bool { return p.Type == domain.PrincipalProvider }

// Guard decides whether a principal may observe or mutate a request.
//
// Denial policy, applied consistently: a principal of the wrong TYPE for an
// operation gets ErrForbidden; a principal of the right type who is simply
// not the participant gets ErrNotFound, so public paths never confirm that a
// foreign request exists.
type Guard struct {
	users UserStore
}

func NewGuard(users UserStore) *Guard {
	return &Guard{users: users}
}

// RequireAdmin resolves admin status from the identity store at call time.
// Only client-typed principals can be admins.
func (g *Guard) RequireAdmin(p Principal) error {
	if !p.IsClient() {
		return fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	ok, err := g.users.IsAdmin(p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: admin access required", domain.ErrForbidden)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !ok {
		return fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}
	return nil
}

// IsAdmin is the non-erroring form for branching paths.
func (g *Guard) IsAdmin(p Principal) bool {
	return g.RequireAdmin(p) == nil
}

// RequireParticipant admits the request's client, its provider, or an admin.
func (g *Guard) RequireParticipant(req *models.ServiceRequest, p Principal) error {
	if req.IsParticipant(p.Type, p.ID) {
		return nil
	}
	if p.AdminClaim && g.IsAdmin(p) {
		return nil
	}
	return fmt.Errorf("%w: request", domain.ErrNotFound)
}

// RequireOwningClient admits only the client who created the request.
func (g *Guard) RequireOwningClient(req *models.ServiceRequest, p Principal) error {
	if !p.IsClient() {
		return fmt.Errorf("%w: client role required", domain.ErrForbidden)
	}
	if req.ClientID != p.ID {
		return fmt.Errorf("%w: request", domain.ErrNotFound)
	}
	return nil
}

// RequireAssignedProvider admits only the provider the request is assigned to.
func (g *Guard) RequireAssignedProvider(req *models.ServiceRequest, p Principal) error {
	if !p.IsProvider() {
		return fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	if req.ProviderID != p.ID {
		return fmt.Errorf("%w: request", domain.ErrNotFound)
	}
	return nil
}

// CanDelete enforces the deletion matrix: admins delete from any state, the
// owning client only from not-yet-committed states.
func (g *Guard) CanDelete(req *models.ServiceRequest, p Principal) error {
	if p.IsClient() && g.IsAdmin(p) {
		return nil
	}
	if err := g.RequireOwningClient(req, p); err != nil {
		return err
	}
	for _, s := range domain.ClientDeletableStatuses {
		if req.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: request cannot be deleted in status %s", domain.ErrForbidden, req.Status)
}
