package database

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wyn/config"
	"wyn/internal/models"
)

// gormConfig is shared by NewDB and tests. TranslateError maps driver errors
// (mysql error 1062 in particular) onto gorm's sentinels, which the services
// match against to distinguish conflicts from storage failures.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	}
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Provider{},
		&models.OfferedService{},
		&models.ServiceRequest{},
		&models.CompletionProof{},
		&models.Review{},
		&models.ChatMessage{},
		&models.MessageRead{},
		&models.Notification{},
		&models.ProviderAvailability{},
		&models.UnavailablePeriod{},
	)
}

// SeedAdmin creates the bootstrap admin account when ADMIN_PASSWORD is set and
// no user with the configured email exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	if cfg.Password == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", cfg.Email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("seed admin: hash password")
		return
	}
	u := &models.User{
		Name:         "Administrator",
		Email:        cfg.Email,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
	if err := db.Create(u).Error; err != nil {
		logrus.WithError(err).Error("seed admin: create user")
		return
	}
	logrus.WithField("email", cfg.Email).Info("seeded admin account")
}
