package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bounty-service/internal/api/dto"
	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/service"
)

// AuditHandler exposes the read-only ledger endpoint.
type AuditHandler struct {
	service *service.BountyService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(bountyService *service.BountyService) *AuditHandler {
	return &AuditHandler{service: bountyService}
}

// List GET /audit-log.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries, err := h.service.ListAuditLog(c.Context(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, auditEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

func auditEntryResponse(entry domain.AuditLogEntry) dto.AuditLogEntryResponse {
	return dto.AuditLogEntryResponse{
		ID:                 entry.ID,
		Timestamp:          entry.Timestamp,
		EventType:          entry.EventType,
		ActorUserID:        entry.ActorUserID,
		ActorDisplayName:   entry.ActorDisplayName,
		TargetBountyID:     entry.TargetBountyID,
		TargetBountyTitle:  entry.TargetBountyTitle,
		TargetSubmissionID: entry.TargetSubmissionID,
		TargetUserID:       entry.TargetUserID,
		Details:            entry.Details,
	}
}
