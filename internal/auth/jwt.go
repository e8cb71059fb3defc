package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wyn/config"
)

// Claims carries the authenticated principal. IsAdmin is a cached claim good
// for cheap read paths only; destructive paths re-read the flag from the
// users table (see middleware.AdminRequired).
type Claims struct {
	PrincipalID   uint   `json:"principal_id"`
	PrincipalType string `json:"principal_type"` // client | provider
	Email         string `json:"email"`
	IsAdmin       bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(cfg *config.JWTConfig, id uint, principalType, email string, isAdmin bool) (string, error) {
	claims := Claims{
		PrincipalID:   id,
		PrincipalType: principalType,
		Email:         email,
		IsAdmin:       isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AccessSecret))
}

func GenerateRefreshToken(cfg *config.JWTConfig, id uint, principalType string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%s:%d", principalType, id),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.RefreshExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    cfg.Issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.RefreshSecret))
}

var ErrInvalidToken = errors.New("invalid token")

// ParseRefreshToken validates a refresh token and returns the principal it
// was issued to.
func ParseRefreshToken(cfg *config.JWTConfig, tokenString string) (id uint, principalType string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.RefreshSecret), nil
	})
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	typ, rest, found := strings.Cut(claims.Subject, ":")
	if !found || (typ != "client" && typ != "provider") {
		return 0, "", ErrInvalidToken
	}
	id64, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	return uint(id64), typ, nil
}

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
