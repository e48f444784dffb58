package handlers

import (
	"errors"

	"tontinepro/internal/core/domain"
	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TontineHandler handles tontine lifecycle and membership endpoints
type TontineHandler struct {
	tontineService *services.TontineService
}

// NewTontineHandler creates a new tontine handler
func NewTontineHandler(tontineService *services.TontineService) *TontineHandler {
	return &TontineHandler{
		tontineService: tontineService,
	}
}

// mapTontineError translates the common tontine errors to HTTP responses,
// falling back to 500
func mapTontineError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrTontineNotFound):
		return response.NotFound(c, "Tontine not found")
	case errors.Is(err, domain.ErrMemberNotFound):
		return response.NotFound(c, "Member not found")
	case errors.Is(err, domain.ErrTontineNotActive):
		return response.BadRequest(c, "Tontine is not active")
	case errors.Is(err, services.ErrNotManager):
		return response.Forbidden(c, "Only the manager can do this")
	case errors.Is(err, services.ErrAccessDenied):
		return response.Forbidden(c, "No access to this tontine")
	case errors.Is(err, services.ErrNotDraft):
		return response.BadRequest(c, "Only draft tontines can be changed")
	case errors.Is(err, services.ErrAlreadyMember):
		return response.Conflict(c, "User is already a member")
	case errors.Is(err, services.ErrCodeTaken):
		return response.Conflict(c, "Tontine code already in use")
	case errors.Is(err, services.ErrInvalidRole):
		return response.BadRequest(c, "Invalid member role")
	case errors.Is(err, services.ErrInvalidStatus):
		return response.BadRequest(c, "Invalid member status")
	case errors.Is(err, services.ErrCannotRemoveManager):
		return response.BadRequest(c, "The manager's membership cannot be removed")
	}
	return response.InternalServerError(c, fallback)
}

// CreateTontineRequest represents create tontine request
type CreateTontineRequest struct {
	UserID uint `json:"user_id"`
	services.CreateTontineInput
}

// Create creates a new tontine in draft
func (h *TontineHandler) Create(c *fiber.Ctx) error {
	var req CreateTontineRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Name is required")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}
	if req.ContributionAmount <= 0 {
		return response.BadRequest(c, "Contribution amount must be greater than 0")
	}
	if req.StartDate.IsZero() {
		return response.BadRequest(c, "Start date is required")
	}

	tontine, err := h.tontineService.Create(c.Context(), req.UserID, &req.CreateTontineInput)
	if err != nil {
		return mapTontineError(c, err, "Failed to create tontine")
	}

	return response.Created(c, "Tontine created", tontine)
}

// UpdateTontineRequest represents update tontine request
type UpdateTontineRequest struct {
	UserID uint `json:"user_id"`
	services.UpdateTontineInput
}

// Update edits a draft tontine
func (h *TontineHandler) Update(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	var req UpdateTontineRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	tontine, err := h.tontineService.Update(c.Context(), tontineID, req.UserID, &req.UpdateTontineInput)
	if err != nil {
		return mapTontineError(c, err, "Failed to update tontine")
	}

	return response.Success(c, "Tontine updated", tontine)
}

// ActorRequest carries the acting user for state transitions
type ActorRequest struct {
	UserID uint `json:"user_id"`
}

// Activate moves a draft tontine to active
func (h *TontineHandler) Activate(c *fiber.Ctx) error {
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

	tontine, err := h.tontineService.Activate(c.Context(), tontineID, req.UserID)
	if err != nil {
		return mapTontineError(c, err, "Failed to activate tontine")
	}

	return response.Success(c, "Tontine activated", tontine)
}

// List returns the caller's tontines with stats
func (h *TontineHandler) List(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id"))
	if userID == 0 {
		return response.BadRequest(c, "user_id query parameter is required")
	}

	out, err := h.tontineService.List(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch tontines")
	}

	return response.Success(c, "Tontines fetched", out)
}

// Detail returns a tontine with members and stats
func (h *TontineHandler) Detail(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}
	userID := uint(c.QueryInt("user_id"))
	if userID == 0 {
		return response.BadRequest(c, "user_id query parameter is required")
	}

	out, err := h.tontineService.Detail(c.Context(), tontineID, userID)
	if err != nil {
		return mapTontineError(c, err, "Failed to fetch tontine")
	}

	return response.Success(c, "Tontine fetched", out)
}

// JoinRequest represents a join-by-code request
type JoinRequest struct {
	UserID uint   `json:"user_id"`
	Code   string `json:"code"`
}

// Join files a pending membership request by tontine code
func (h *TontineHandler) Join(c *fiber.Ctx) error {
	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	member, err := h.tontineService.JoinByCode(c.Context(), req.Code, req.UserID)
	if err != nil {
		return mapTontineError(c, err, "Failed to join tontine")
	}

	return response.Created(c, "Join request filed", member)
}

// InviteRequest represents a member invitation
type InviteRequest struct {
	UserID     uint   `json:"user_id"`
	Identifier string `json:"identifier"`
	Role       string `json:"role,omitempty"`
}

// Invite adds a user as a pending member by username or email
func (h *TontineHandler) Invite(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.Identifier == "" {
		return response.BadRequest(c, "Identifier is required")
	}

	member, err := h.tontineService.Invite(c.Context(), tontineID, req.UserID, req.Identifier, domain.MemberRole(req.Role))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return mapTontineError(c, err, "Failed to invite member")
	}

	return response.Created(c, "Member invited", member)
}

// MemberRoleRequest represents a role change
type MemberRoleRequest struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

// ChangeMemberRole sets a member's role
func (h *TontineHandler) ChangeMemberRole(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}
	memberID, err := parseIDParam(c, "memberId")
	if err != nil {
		return response.BadRequest(c, "Invalid member id")
	}

	var req MemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	member, err := h.tontineService.ChangeMemberRole(c.Context(), tontineID, memberID, req.UserID, domain.MemberRole(req.Role))
	if err != nil {
		return mapTontineError(c, err, "Failed to change role")
	}

	return response.Success(c, "Role updated", member)
}

// MemberStatusRequest represents a status change
type MemberStatusRequest struct {
	UserID uint   `json:"user_id"`
	Status string `json:"status"`
}

// ChangeMemberStatus sets a member's status; setting it to active approves
// a pending join request
func (h *TontineHandler) ChangeMemberStatus(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}
	memberID, err := parseIDParam(c, "memberId")
	if err != nil {
		return response.BadRequest(c, "Invalid member id")
	}

	var req MemberStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	member, err := h.tontineService.ChangeMemberStatus(c.Context(), tontineID, memberID, req.UserID, domain.MemberStatus(req.Status))
	if err != nil {
		return mapTontineError(c, err, "Failed to change status")
	}

	return response.Success(c, "Status updated", member)
}

// RemoveMember deletes a membership
func (h *TontineHandler) RemoveMember(c *fiber.Ctx) error {
	tontineID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid tontine id")
	}
	memberID, err := parseIDParam(c, "memberId")
	if err != nil {
		return response.BadRequest(c, "Invalid member id")
	}

	var req ActorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	if err := h.tontineService.RemoveMember(c.Context(), tontineID, memberID, req.UserID); err != nil {
		return mapTontineError(c, err, "Failed to remove member")
	}

	return response.Success(c, "Member removed", nil)
}
