package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bounty-service/internal/api/dto"
	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/service"
	apperrors "github.com/spec-kit/bounty-service/pkg/util"
)

// UsersHandler exposes auth and profile endpoints.
type UsersHandler struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	bounties *service.BountyService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, profileService *service.ProfileService, bountyService *service.BountyService) *UsersHandler {
	return &UsersHandler{auth: authService, profiles: profileService, bounties: bountyService}
}

// Signup handles POST /auth/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	profile, token, exp, err := h.auth.Signup(c.Context(), service.SignupInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        req.Role,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": profileResponse(profile),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	profile, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": profileResponse(profile),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *UsersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	token, err := h.auth.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *UsersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetProfile handles GET /users/:id.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdatePayoutAddress handles PUT /users/:id/payout-address.
func (h *UsersHandler) UpdatePayoutAddress(c *fiber.Ctx) error {
	actor, err := actingPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PayoutAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.profiles.UpdatePayoutAddress(c.Context(), actor, c.Params("id"), req.Address); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListActivity handles GET /users/:id/activity: a company's bounties or a
// developer's submissions, depending on the profile role.
func (h *UsersHandler) ListActivity(c *fiber.Ctx) error {
	profile, err := h.profiles.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if profile.Role == domain.RoleCompany {
		bounties, err := h.bounties.ListCompanyBounties(c.Context(), profile.ID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"bounties": bountyResponses(bounties)}})
	}
	submissions, err := h.bounties.ListDeveloperSubmissions(c.Context(), profile.ID)
	if err != nil {
		return err
	}
	items := make([]dto.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		items = append(items, submissionResponse(&submissions[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"submissions": items}})
}

func profileResponse(profile *domain.UserProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:            profile.ID,
		Email:         profile.Email,
		DisplayName:   profile.DisplayName,
		Role:          profile.Role,
		CompanyName:   profile.CompanyName,
		PayoutAddress: profile.PayoutAddress,
		CreatedAt:     profile.CreatedAt,
	}
}
