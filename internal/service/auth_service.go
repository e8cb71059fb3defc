package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"wyn/config"
	"wyn/internal/auth"
	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// AuthService issues credentials for the two principal types. Clients and
// providers authenticate against separate tables; a token always carries
// which table it came from.
type AuthService struct {
	users     *repository.UserRepository
	providers *repository.ProviderRepository
	jwt       *config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, providers *repository.ProviderRepository, jwt *config.JWTConfig) *AuthService {
	return &AuthService{users: users, providers: providers, jwt: jwt}
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	Specialties string // providers only
	ServiceArea string // providers only
}

func (in *RegisterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return domain.Validationf("name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return domain.Validationf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", domain.ErrStorage, err)
	}
	return string(h), nil
}

// RegisterClient creates a client account and returns its first token pair.
func (s *AuthService) RegisterClient(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	if _, err := s.users.GetByEmail(in.Email); err == nil {
		return nil, nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !notFound(err) {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	pair, err := s.issue(u.ID, domain.PrincipalClient, u.Email, u.IsAdmin)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithField("user_id", u.ID).Info("client registered")
	return u, pair, nil
}

// RegisterProvider creates a provider account and returns its first token
// pair.
func (s *AuthService) RegisterProvider(ctx context.Context, in RegisterInput) (*models.Provider, *TokenPair, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	if _, err := s.providers.GetByEmail(in.Email); err == nil {
		return nil, nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !notFound(err) {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	p := &models.Provider{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Specialties:  in.Specialties,
		ServiceArea:  in.ServiceArea,
	}
	if err := s.providers.Create(p); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	pair, err := s.issue(p.ID, domain.PrincipalProvider, p.Email, false)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithField("provider_id", p.ID).Info("provider registered")
	return p, pair, nil
}

// Login authenticates against the table matching principalType. Credential
// failures are indistinguishable from unknown accounts.
func (s *AuthService) Login(ctx context.Context, principalType, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		id      uint
		hash    string
		isAdmin bool
	)
	switch principalType {
	case domain.PrincipalClient:
		u, err := s.users.GetByEmail(email)
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: invalid credentials", domain.ErrForbidden)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		id, hash, isAdmin = u.ID, u.PasswordHash, u.IsAdmin
	case domain.PrincipalProvider:
		p, err := s.providers.GetByEmail(email)
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: invalid credentials", domain.ErrForbidden)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		id, hash = p.ID, p.PasswordHash
	default:
		return nil, domain.Validationf("unknown principal type %q", principalType)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrForbidden)
	}
	return s.issue(id, principalType, email, isAdmin)
}

// Refresh exchanges a refresh token for a new pair. Account state is re-read
// so a deleted account cannot refresh and admin changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, principalType, err := auth.ParseRefreshToken(s.jwt, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrForbidden)
	}
	switch principalType {
	case domain.PrincipalClient:
		u, err := s.users.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrForbidden)
		}
		return s.issue(u.ID, principalType, u.Email, u.IsAdmin)
	case domain.PrincipalProvider:
		p, err := s.providers.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrForbidden)
		}
		return s.issue(p.ID, principalType, p.Email, false)
	}
	return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrForbidden)
}

func (s *AuthService) issue(id uint, principalType, email string, isAdmin bool) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(s.jwt, id, principalType, email, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(s.jwt, id, principalType)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
