package handlers

import (
	"errors"

	"tontinepro/internal/core/domain"
	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AllocationHandler handles beneficiary allocation endpoints
type AllocationHandler struct {
	allocationService *services.AllocationService
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(allocationService *services.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// Stats returns the current cycle and eligibility counters
func (h *AllocationHandler) Stats(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	stats, err := h.allocationService.Stats(c.Context(), tontineID)
	if err != nil {
		if errors.Is(err, domain.ErrTontineNotFound) {
			return response.NotFound(c, "Tontine not found")
		}
		return response.InternalServerError(c, "Failed to fetch allocation stats")
	}

	return response.Success(c, "Allocation stats fetched", stats)
}

// AllocateRequest represents a beneficiary designation
type AllocateRequest struct {
	UserID   uint `json:"user_id"`
	MemberID uint `json:"member_id"`
}

// Allocate designates a member as the beneficiary of the current cycle
func (h *AllocationHandler) Allocate(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	var req AllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.MemberID == 0 {
		return response.BadRequest(c, "Member id is required")
	}

	allocation, err := h.allocationService.Allocate(c.Context(), tontineID, req.MemberID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTontineNotFound):
			return response.NotFound(c, "Tontine not found")
		case errors.Is(err, domain.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrNotManager):
			return response.Forbidden(c, "Only the manager can allocate")
		case errors.Is(err, domain.ErrMemberNotActive):
			return response.BadRequest(c, "Member is not active")
		case errors.Is(err, domain.ErrAlreadyReceivedThisCycle):
			return response.Conflict(c, "Member already received this cycle")
		}
		return response.InternalServerError(c, "Failed to allocate beneficiary")
	}

	return response.Created(c, "Beneficiary allocated", allocation)
}

// History returns past allocations, newest first
func (h *AllocationHandler) History(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	allocations, err := h.allocationService.History(c.Context(), tontineID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch allocations")
	}

	return response.Success(c, "Allocations fetched", allocations)
}
