package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"wyn/config"
	"wyn/internal/database"
	"wyn/internal/router"
	"wyn/pkg/cloudinary"
	"wyn/pkg/payment"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Server.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("database connection")
	}
	if err := database.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("migrate")
	}
	database.SeedAdmin(db, &cfg.Admin)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		logrus.WithError(err).Fatal("cloudinary")
	}

	var gateway payment.Provider
	if cfg.MercadoPago.AccessToken != "" {
		gateway = payment.NewMercadoPagoProvider(cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken)
	} else {
		logrus.Warn("MP_ACCESS_TOKEN not set, using stub payment provider")
		gateway = &payment.StubProvider{}
	}

	engine := router.Setup(cfg, db, cloud, gateway)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("server shutdown")
	}
	logrus.Info("server stopped")
}
