// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/database"
	"github.com/pmdq/biodiversity-backend/internal/i18n"
	"github.com/pmdq/biodiversity-backend/internal/router"
	"github.com/pmdq/biodiversity-backend/internal/services"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(db); err != nil {
		logrus.Fatalf("Failed to seed database: %v", err)
	}

	i18n.Load(cfg.I18n.SupportedLanguages)

	r := router.Setup(db, cfg)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// The daily sweep is the only writer of the expired status. Reads
	// project expiry on the fly, so a missed run never shows stale data.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runExpirySweep(sweepCtx, db, cfg)

	go func() {
		logrus.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server stopped")
}

// runExpirySweep expires due permits once at startup and then daily at the
// configured hour.
func runExpirySweep(ctx context.Context, db *gorm.DB, cfg *config.Config) {
	notificationService := services.NewNotificationService(db, cfg)
	signatureService := services.NewSignatureService(db)
	permitService := services.NewPermitService(db, signatureService, notificationService, cfg)

	sweep := func() {
		if _, err := permitService.ExpireDuePermits(); err != nil {
			logrus.Errorf("Expiry sweep failed: %v", err)
		}
	}

	sweep()
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), cfg.Permits.ExpirySweepHour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			sweep()
		}
	}
}
