package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// AdminService is the back-office surface: platform stats and account/review
// management. Every method re-verifies the admin flag from storage.
type AdminService struct {
	admin     *repository.AdminRepository
	users     *repository.UserRepository
	providers *repository.ProviderRepository
	reviews   *repository.ReviewRepository
	catalog   *repository.CatalogRepository
	guard     *Guard
}

func NewAdminService(admin *repository.AdminRepository, users *repository.UserRepository, providers *repository.ProviderRepository, reviews *repository.ReviewRepository, catalog *repository.CatalogRepository, guard *Guard) *AdminService {
	return &AdminService{admin: admin, users: users, providers: providers, reviews: reviews, catalog: catalog, guard: guard}
}

// Stats aggregates the dashboard counters and the per-status request
// breakdown.
type Stats struct {
	Counts   repository.DashboardCounts `json:"counts"`
	ByStatus []repository.StatusCount   `json:"requests_by_status"`
}

func (s *AdminService) Stats(ctx context.Context, p Principal) (*Stats, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, err
	}
	counts, err := s.admin.Counts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	byStatus, err := s.admin.RequestsByStatus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return &Stats{Counts: *counts, ByStatus: byStatus}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, p Principal, limit, offset int) ([]models.User, int64, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, 0, err
	}
	list, total, err := s.users.List(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, total, nil
}

func (s *AdminService) ListProviders(ctx context.Context, p Principal, limit, offset int) ([]models.Provider, int64, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, 0, err
	}
	list, total, err := s.providers.List(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, total, nil
}

// DeleteUser removes a client account. Self-deletion is rejected so the
// platform cannot lose its last admin by accident.
func (s *AdminService) DeleteUser(ctx context.Context, p Principal, userID uint) error {
	if err := s.guard.RequireAdmin(p); err != nil {
		return err
	}
	if userID == p.ID {
		return fmt.Errorf("%w: cannot delete own account", domain.ErrConflict)
	}
	if _, err := s.users.GetByID(userID); err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.users.Delete(userID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	logrus.WithFields(logrus.Fields{"admin_id": p.ID, "user_id": userID}).Info("user deleted")
	return nil
}

func (s *AdminService) DeleteProvider(ctx context.Context, p Principal, providerID uint) error {
	if err := s.guard.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(providerID); err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: provider", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.providers.Delete(providerID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	logrus.WithFields(logrus.Fields{"admin_id": p.ID, "provider_id": providerID}).Info("provider deleted")
	return nil
}

// DeleteService removes a catalog listing regardless of owner.
func (s *AdminService) DeleteService(ctx context.Context, p Principal, serviceID uint) error {
	if err := s.guard.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.catalog.GetByID(serviceID); err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: service", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.catalog.Delete(serviceID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	logrus.WithFields(logrus.Fields{"admin_id": p.ID, "service_id": serviceID}).Info("service listing deleted")
	return nil
}

func (s *AdminService) ListReviews(ctx context.Context, p Principal, limit, offset int) ([]models.Review, int64, error) {
	if err := s.guard.RequireAdmin(p); err != nil {
		return nil, 0, err
	}
	list, total, err := s.reviews.ListAll(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, total, nil
}

// ModerateReview edits or rewrites a review's text and rating.
func (s *AdminService) ModerateReview(ctx context.Context, p Principal, reviewID uint, rating *int, comment *string) error {
	if err := s.guard.RequireAdmin(p); err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if rating != nil {
		if *rating < 1 || *rating > 5 {
			return domain.Validationf("rating must be between 1 and 5")
		}
		updates["rating"] = *rating
	}
	if comment != nil {
		updates["comment"] = *comment
	}
	if len(updates) == 0 {
		return domain.Validationf("at least one field must be provided")
	}
	if _, err := s.reviews.GetByID(reviewID); err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: review", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.reviews.AdminUpdate(reviewID, updates); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *AdminService) DeleteReview(ctx context.Context, p Principal, reviewID uint) error {
	if err := s.guard.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.reviews.GetByID(reviewID); err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: review", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.reviews.Delete(reviewID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}
