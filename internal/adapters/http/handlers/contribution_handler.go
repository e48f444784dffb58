package handlers

import (
	"errors"

	"tontinepro/internal/core/domain"
	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ContributionHandler handles contribution endpoints
type ContributionHandler struct {
	contributionService *services.ContributionService
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributionService *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{
		contributionService: contributionService,
	}
}

func mapContributionError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrTontineNotFound):
		return response.NotFound(c, "Tontine not found")
	case errors.Is(err, domain.ErrMemberNotFound):
		return response.NotFound(c, "You are not a member of this tontine")
	case errors.Is(err, domain.ErrTontineNotActive):
		return response.BadRequest(c, "Tontine is not active")
	case errors.Is(err, domain.ErrMemberNotActive):
		return response.BadRequest(c, "Membership is not active")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return response.BadRequest(c, "Insufficient wallet balance")
	}
	return response.InternalServerError(c, fallback)
}

// Record records a contribution settled outside the platform (cash at a
// meeting)
func (h *ContributionHandler) Record(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	var req ActorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	contribution, err := h.contributionService.Record(c.Context(), tontineID, req.UserID)
	if err != nil {
		return mapContributionError(c, err, "Failed to record contribution")
	}

	return response.Created(c, "Contribution recorded", contribution)
}

// PayFromWallet pays a contribution straight from the caller's wallet
func (h *ContributionHandler) PayFromWallet(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	var req ActorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	contribution, err := h.contributionService.PayFromWallet(c.Context(), tontineID, req.UserID)
	if err != nil {
		return mapContributionError(c, err, "Failed to pay contribution")
	}

	return response.Created(c, "Contribution paid from wallet", contribution)
}
