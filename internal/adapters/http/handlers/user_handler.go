package handlers

import (
	"errors"
	"strconv"

	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/pagination"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// parseIDParam reads a numeric route parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// Register registers a new user account
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" {
		return response.BadRequest(c, "Username is required")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.PhoneNumber == "" {
		return response.BadRequest(c, "Phone number is required")
	}

	user, err := h.userService.Register(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword),
			errors.Is(err, services.ErrInvalidUserType):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUsernameTaken),
			errors.Is(err, services.ErrEmailTaken),
			errors.Is(err, services.ErrPhoneTaken):
			return response.Conflict(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to register user")
	}

	return response.Created(c, "User registered", user.ToResponse())
}

// Get returns a user profile
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, "User fetched", user.ToResponse())
}

// List returns users with pagination
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	out := make([]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}

	return response.Success(c, "Users fetched", pagination.NewResponse(out, params, total))
}
