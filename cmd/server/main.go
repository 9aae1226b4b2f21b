package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/delivery/http"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/network"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/publish"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/sampling"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/service"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/config"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

func main() {
	// Configuration
	cfg := config.Load()

	var log *logrus.Logger
	if cfg.IsProduction() {
		log = logging.NewJSONLogger(cfg.LogLevel)
	} else {
		log = logging.NewLogger(cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Inputs
	hotspots, err := hotspot.Load(cfg.HotspotsPath)
	if err != nil {
		log.WithError(err).WithField("path", cfg.HotspotsPath).Fatal("Failed to load hotspots")
	}
	nodes, err := network.LoadNodes(cfg.NodesPath)
	if err != nil {
		log.WithError(err).WithField("path", cfg.NodesPath).Fatal("Failed to load road-network nodes")
	}
	hotspots.Hotspots = network.Snap(hotspots.Hotspots, nodes, log)
	log.WithFields(logrus.Fields{
		"hotspots": len(hotspots.Hotspots),
		"nodes":    len(nodes),
	}).Info("Loaded generator inputs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Dependency Injection: Repositories
	repo, closeRepo, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open incident store")
	}
	defer closeRepo()

	// Optional simulator feed
	var publisher service.IncidentPublisher
	if cfg.MQTTBroker != "" {
		client, err := publish.Connect(publish.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, log)
		if err != nil {
			log.WithError(err).Warn("MQTT disabled")
		} else {
			defer client.Disconnect(250)
			publisher = publish.NewMQTTPublisher(client, cfg.MQTTTopic, log)
		}
	}

	// Dependency Injection: Services
	incidentSvc := service.NewIncidentService(hotspots, nodes, repo, publisher, service.Defaults{
		HorizonMin:      cfg.HorizonMin,
		HotspotFraction: cfg.HotspotFraction,
		Seed:            cfg.Seed,
		Severity:        sampling.DefaultSeverityTable,
	}, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Kigali EMS Incident Generator v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, incidentSvc, log)

	// Graceful shutdown
	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("Server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Server forced to shutdown")
	}
	incidentSvc.WaitBackground()
	log.Info("Server exited gracefully")
}
