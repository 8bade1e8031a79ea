package dto

import "github.com/noah-isme/edt-api/internal/models"

// GenerateRequest tunes a best-effort bulk placement run.
type GenerateRequest struct {
	Scope string `json:"scope" validate:"omitempty,oneof=official draft"`
	Seed  int64  `json:"seed"`
	Apply bool   `json:"apply"`
}

// GenerateResult reports the produced sessions and anything left unplaced.
type GenerateResult struct {
	Sessions []models.Session `json:"sessions"`
	Warnings []string         `json:"warnings,omitempty"`
	Applied  bool             `json:"applied"`
	Version  int              `json:"version,omitempty"`
}
