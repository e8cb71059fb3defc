package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Cloudinary  CloudinaryConfig
	Payment     PaymentConfig
	MercadoPago MercadoPagoConfig
	Admin       AdminConfig
	Upload      UploadConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type PaymentConfig struct {
	WebhookSecret string
}

// MercadoPagoConfig drives hosted checkout-preference creation. WebhookBaseURL
// is the public base; the notification URL becomes WebhookBaseURL +
// /api/v1/webhooks/payment.
type MercadoPagoConfig struct {
	BaseURL        string
	AccessToken    string
	WebhookBaseURL string
	ClientBaseURL  string
}

type AdminConfig struct {
	Email    string
	Password string
}

type UploadConfig struct {
	MaxProofBytes   int64
	MaxProofFiles   int
	MaxProfileBytes int64
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8088"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DB_DSN", "wyn:wyn@tcp(localhost:3306)/wyn?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  time.Hour,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "wyn",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: env("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    env("CLOUDINARY_API_KEY", ""),
			APISecret: env("CLOUDINARY_API_SECRET", ""),
		},
		Payment: PaymentConfig{
			WebhookSecret: env("PAYMENT_WEBHOOK_SECRET", ""),
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:        env("MP_BASE_URL", "https://api.mercadopago.com"),
			AccessToken:    env("MP_ACCESS_TOKEN", ""),
			WebhookBaseURL: env("MP_WEBHOOK_BASE_URL", "http://localhost:8088"),
			ClientBaseURL:  env("CLIENT_BASE_URL", "http://localhost:3000"),
		},
		Admin: AdminConfig{
			Email:    env("ADMIN_EMAIL", "admin@wyn.local"),
			Password: env("ADMIN_PASSWORD", ""),
		},
		Upload: UploadConfig{
			MaxProofBytes:   5 << 20,
			MaxProofFiles:   5,
			MaxProfileBytes: 2 << 20,
		},
	}
}
