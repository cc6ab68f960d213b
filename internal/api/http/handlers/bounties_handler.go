package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bounty-service/internal/api/dto"
	"github.com/spec-kit/bounty-service/internal/auth"
	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/service"
	apperrors "github.com/spec-kit/bounty-service/pkg/util"
)

// BountiesHandler manages bounty and submission endpoints.
type BountiesHandler struct {
	service *service.BountyService
}

// NewBountiesHandler constructs handler.
func NewBountiesHandler(bountyService *service.BountyService) *BountiesHandler {
	return &BountiesHandler{service: bountyService}
}

// Create POST /bounties.
func (h *BountiesHandler) Create(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	bounty, err := h.service.PostBounty(c.Context(), actor, service.BountyCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,
		RewardBTC:   req.RewardBTC,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": bountyResponse(bounty)})
}

// ListOpen GET /bounties.
func (h *BountiesHandler) ListOpen(c *fiber.Ctx) error {
	bounties, err := h.service.ListOpenBounties(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bountyResponses(bounties)})
}

// Get GET /bounties/:id.
func (h *BountiesHandler) Get(c *fiber.Ctx) error {
	bounty, err := h.service.GetBounty(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bountyResponse(bounty)})
}

// SelectWinner POST /bounties/:id/winner.
func (h *BountiesHandler) SelectWinner(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SelectWinnerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SubmissionID == "" {
		return apperrors.NewValidationError("submission_id required", nil)
	}
	if err := h.service.SelectWinner(c.Context(), actor, c.Params("id"), req.SubmissionID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkPaid POST /bounties/:id/paid.
func (h *BountiesHandler) MarkPaid(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkPaid(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SubmitSolution POST /bounties/:id/submissions.
func (h *BountiesHandler) SubmitSolution(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	submission, err := h.service.SubmitSolution(c.Context(), actor, service.SubmissionCreateInput{
		BountyID:          c.Params("id"),
		RepoURL:           req.RepoURL,
		SolutionHash:      req.SolutionHash,
		CommitHash:        req.CommitHash,
		DeployedURL:       req.DeployedURL,
		HostedSolutionURL: req.HostedSolutionURL,
		Comments:          req.Comments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": submissionResponse(submission)})
}

// ListSubmissions GET /bounties/:id/submissions.
func (h *BountiesHandler) ListSubmissions(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	submissions, err := h.service.ListSubmissions(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		items = append(items, submissionResponse(&submissions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func actingPrincipal(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{
		ID:          principal.Profile.ID,
		DisplayName: principal.Profile.DisplayName,
		Role:        principal.Profile.Role,
	}, nil
}

func bountyResponse(bounty *domain.Bounty) dto.BountyResponse {
	return dto.BountyResponse{
		ID:                  bounty.ID,
		CompanyID:           bounty.CompanyID,
		CompanyName:         bounty.CompanyName,
		Title:               bounty.Title,
		Description:         bounty.Description,
		Skills:              bounty.Skills,
		RewardBTC:           bounty.RewardBTC,
		Status:              bounty.Status,
		CreatedAt:           bounty.CreatedAt,
		Deadline:            bounty.Deadline,
		WinnerID:            bounty.WinnerID,
		WinningSubmissionID: bounty.WinningSubmissionID,
	}
}

func bountyResponses(bounties []domain.Bounty) []dto.BountyResponse {
	items := make([]dto.BountyResponse, 0, len(bounties))
	for i := range bounties {
		items = append(items, bountyResponse(&bounties[i]))
	}
	return items
}

func submissionResponse(submission *domain.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:                submission.ID,
		BountyID:          submission.BountyID,
		DeveloperID:       submission.DeveloperID,
		DeveloperName:     submission.DeveloperName,
		RepoURL:           submission.RepoURL,
		DeployedURL:       submission.DeployedURL,
		SolutionHash:      submission.SolutionHash,
		CommitHash:        submission.CommitHash,
		HostedSolutionURL: submission.HostedSolutionURL,
		Comments:          submission.Comments,
		Status:            submission.Status,
		SubmittedAt:       submission.SubmittedAt,
	}
}
