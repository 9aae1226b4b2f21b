package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, incidentSvc *service.IncidentService, logger *logrus.Logger) {
	handler := NewHandler(incidentSvc, logger)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Hotspot configuration
		api.Get("/hotspots", handler.GetHotspots)
		api.Post("/hotspots/validate", handler.ValidateHotspots)

		// Incident ledger
		api.Get("/incidents/last-id", handler.GetLastIncidentID)
		api.Post("/incidents/preview", handler.PreviewIncidents)
		api.Post("/incidents/extend", handler.ExtendIncidents)
	}
}

// ErrorHandler renders errors as the API's JSON error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
