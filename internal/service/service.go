package service

import (
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// IncidentRepository is re-exported from domain for convenience
type IncidentRepository = domain.IncidentRepository

// IncidentPublisher is re-exported from domain for convenience
type IncidentPublisher = domain.IncidentPublisher
