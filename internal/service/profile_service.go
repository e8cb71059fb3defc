package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// ProfileService serves the caller's own account surface for both principal
// types.
type ProfileService struct {
	users     *repository.UserRepository
	providers *repository.ProviderRepository
	reviews   *repository.ReviewRepository
	requests  *repository.RequestRepository
}

func NewProfileService(users *repository.UserRepository, providers *repository.ProviderRepository, reviews *repository.ReviewRepository, requests *repository.RequestRepository) *ProfileService {
	return &ProfileService{users: users, providers: providers, reviews: reviews, requests: requests}
}

type ProfileUpdate struct {
	Name        *string
	Phone       *string
	Password    *string
	Specialties *string // providers only
	ServiceArea *string // providers only
}

// GetClient returns the client's own account and their total request count.
func (s *ProfileService) GetClient(ctx context.Context, p Principal) (*models.User, int64, error) {
	if !p.IsClient() {
		return nil, 0, fmt.Errorf("%w: client role required", domain.ErrForbidden)
	}
	u, err := s.users.GetByID(p.ID)
	if err != nil {
		if notFound(err) {
			return nil, 0, fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	count, err := s.requests.CountByClient(p.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return u, count, nil
}

// GetProvider returns a provider's public profile with its rating aggregate.
func (s *ProfileService) GetProvider(ctx context.Context, providerID uint) (*models.Provider, float64, int64, error) {
	pr, err := s.providers.GetByID(providerID)
	if err != nil {
		if notFound(err) {
			return nil, 0, 0, fmt.Errorf("%w: provider", domain.ErrNotFound)
		}
		return nil, 0, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	avg, count, err := s.reviews.AverageRatingByProvider(providerID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return pr, avg, count, nil
}

// Update patches the caller's own account.
func (s *ProfileService) Update(ctx context.Context, p Principal, in ProfileUpdate) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return domain.Validationf("name must not be empty")
	}
	if in.Password != nil && len(*in.Password) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}
	var hash string
	if in.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("%w: hash password: %v", domain.ErrStorage, err)
		}
		hash = string(h)
	}

	if p.IsProvider() {
		pr, err := s.providers.GetByID(p.ID)
		if err != nil {
			return fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		if in.Name != nil {
			pr.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone != nil {
			pr.Phone = *in.Phone
		}
		if in.Specialties != nil {
			pr.Specialties = *in.Specialties
		}
		if in.ServiceArea != nil {
			pr.ServiceArea = *in.ServiceArea
		}
		if hash != "" {
			pr.PasswordHash = hash
		}
		if err := s.providers.Update(pr); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return nil
	}

	u, err := s.users.GetByID(p.ID)
	if err != nil {
		return fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	if err := s.users.Update(u); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// SetPhoto records the uploaded profile photo's URL.
func (s *ProfileService) SetPhoto(ctx context.Context, p Principal, url string) error {
	if p.IsProvider() {
		pr, err := s.providers.GetByID(p.ID)
		if err != nil {
			return fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		pr.PhotoURL = url
		if err := s.providers.Update(pr); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return nil
	}
	u, err := s.users.GetByID(p.ID)
	if err != nil {
		return fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	u.PhotoURL = url
	if err := s.users.Update(u); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}
