package handlers

import (
	"errors"

	"tontinepro/internal/core/domain"
	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/pagination"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles wallet and vault endpoints
type WalletHandler struct {
	ledgerService *services.LedgerService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledgerService *services.LedgerService) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
	}
}

func mapLedgerError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return response.BadRequest(c, "Insufficient funds")
	case errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, "Amount must be greater than 0")
	case errors.Is(err, domain.ErrVaultNotFound):
		return response.NotFound(c, "Vault not found")
	case errors.Is(err, domain.ErrVaultLocked):
		return response.BadRequest(c, "Vault is locked")
	case errors.Is(err, domain.ErrWalletNotFound):
		return response.NotFound(c, "Wallet not found")
	}
	return response.InternalServerError(c, fallback)
}

// Overview returns the caller's wallet, vaults and recent transactions
func (h *WalletHandler) Overview(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id"))
	if userID == 0 {
		return response.BadRequest(c, "user_id query parameter is required")
	}
	params := pagination.GetParams(c)

	overview, err := h.ledgerService.Overview(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return mapLedgerError(c, err, "Failed to fetch wallet overview")
	}

	return response.Success(c, "Wallet overview fetched", overview)
}

// CreateVaultRequest represents vault creation request
type CreateVaultRequest struct {
	UserID uint `json:"user_id"`
	services.CreateVaultInput
}

// CreateVault creates a savings vault, optionally funded from the wallet
func (h *WalletHandler) CreateVault(c *fiber.Ctx) error {
	var req CreateVaultRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Name is required")
	}

	vault, err := h.ledgerService.CreateVault(c.Context(), req.UserID, &req.CreateVaultInput)
	if err != nil {
		return mapLedgerError(c, err, "Failed to create vault")
	}

	return response.Created(c, "Vault created", vault)
}

// ListVaults returns the caller's vaults
func (h *WalletHandler) ListVaults(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id"))
	if userID == 0 {
		return response.BadRequest(c, "user_id query parameter is required")
	}

	vaults, err := h.ledgerService.ListVaults(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch vaults")
	}

	return response.Success(c, "Vaults fetched", vaults)
}

// VaultMoveRequest represents a wallet/vault transfer
type VaultMoveRequest struct {
	UserID uint    `json:"user_id"`
	Amount float64 `json:"amount"`
}

// DepositToVault moves money from the wallet into a vault
func (h *WalletHandler) DepositToVault(c *fiber.Ctx) error {
	vaultID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid vault id")
	}

	var req VaultMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	if err := h.ledgerService.DepositToVault(c.Context(), req.UserID, vaultID, req.Amount); err != nil {
		return mapLedgerError(c, err, "Failed to deposit to vault")
	}

	return response.Success(c, "Deposited to vault", nil)
}

// WithdrawFromVault moves money from an unlocked vault back to the wallet
func (h *WalletHandler) WithdrawFromVault(c *fiber.Ctx) error {
	vaultID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid vault id")
	}

	var req VaultMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}

	if err := h.ledgerService.WithdrawFromVault(c.Context(), req.UserID, vaultID, req.Amount); err != nil {
		return mapLedgerError(c, err, "Failed to withdraw from vault")
	}

	return response.Success(c, "Withdrawn from vault", nil)
}
