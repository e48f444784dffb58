package main

import (
	"os"
	"os/signal"
	"syscall"

	"tontinepro/internal/adapters/http/middleware"
	"tontinepro/internal/adapters/http/routes"
	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/config"
	"tontinepro/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.IsProd() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("failed to auto migrate")
	}
	logrus.Info("database migration completed")

	// Daily housekeeping (tontine auto-completion)
	maintenance := services.NewMaintenanceService(repositories.NewTontineRepository(db))
	if err := maintenance.Start(); err != nil {
		logrus.WithError(err).Fatal("failed to start maintenance scheduler")
	}
	defer maintenance.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TontinePro API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	logrus.WithFields(logrus.Fields{
		"port": cfg.Port,
		"mode": cfg.AppMode,
	}).Info("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logrus.WithError(err).Error("error during shutdown")
	}
	logrus.Info("server stopped gracefully")
}
