package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/service"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

// Handler contains all HTTP handlers
type Handler struct {
	incidentSvc *service.IncidentService
	logger      *logrus.Entry
}

// NewHandler creates a new handler
func NewHandler(incidentSvc *service.IncidentService, logger *logrus.Logger) *Handler {
	return &Handler{
		incidentSvc: incidentSvc,
		logger:      logging.ForComponent(logger, "http"),
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK
	if err := h.incidentSvc.Health(c.Context()); err != nil {
		h.logger.WithError(err).Warn("Incident store health check failed")
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"service":  "incident-generator",
		"version":  "1.0.0",
		"hotspots": len(h.incidentSvc.Hotspots()),
		"nodes":    h.incidentSvc.NodeCount(),
	})
}

// GetHotspots returns the loaded hotspot table
func (h *Handler) GetHotspots(c *fiber.Ctx) error {
	rows := h.incidentSvc.Hotspots()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    rows,
		"count":   len(rows),
	})
}

// ValidateHotspots checks a candidate hotspot document sent as JSON or YAML
func (h *Handler) ValidateHotspots(c *fiber.Ctx) error {
	var (
		doc map[string]any
		err error
	)
	if strings.Contains(c.Get(fiber.HeaderContentType), "yaml") {
		doc, err = hotspot.ParseYAML(c.Body())
	} else {
		doc, err = hotspot.ParseJSON(c.Body())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid hotspot document")
	}

	problems := h.incidentSvc.ValidateHotspots(doc)
	if problems == nil {
		problems = []string{}
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

// GetLastIncidentID returns the last persisted incident id
func (h *Handler) GetLastIncidentID(c *fiber.Ctx) error {
	last, err := h.incidentSvc.LastID(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read last incident id")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to read last incident id")
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"last_incident_id": last,
	})
}

// PreviewIncidents generates a batch without persisting it
func (h *Handler) PreviewIncidents(c *fiber.Ctx) error {
	req, err := parseGenerateRequest(c)
	if err != nil {
		return err
	}

	batch, err := h.incidentSvc.Preview(req)
	if err != nil {
		return h.generationError(err, "Failed to generate incidents")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    batch,
	})
}

// ExtendIncidents generates a batch and appends it to the ledger
func (h *Handler) ExtendIncidents(c *fiber.Ctx) error {
	req, err := parseGenerateRequest(c)
	if err != nil {
		return err
	}

	batch, err := h.incidentSvc.Extend(c.Context(), req)
	if err != nil {
		return h.generationError(err, "Failed to extend incident ledger")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    batch,
	})
}

func parseGenerateRequest(c *fiber.Ctx) (service.GenerateRequest, error) {
	var req service.GenerateRequest
	if len(c.Body()) == 0 {
		return req, fiber.NewError(fiber.StatusBadRequest, "Request body is required")
	}
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return req, nil
}

func (h *Handler) generationError(err error, message string) error {
	if service.IsInputError(err) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	h.logger.WithError(err).Error(message)
	return fiber.NewError(fiber.StatusInternalServerError, message)
}
