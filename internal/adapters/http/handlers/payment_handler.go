package handlers

import (
	"encoding/json"
	"errors"

	"tontinepro/internal/core/domain"
	"tontinepro/internal/core/services"
	"tontinepro/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the aggregator's HMAC over the webhook body
const SignatureHeader = "X-Webhook-Signature"

// PaymentHandler handles mobile-money gateway endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// InitiateRequest represents a deposit or withdrawal initiation
type InitiateRequest struct {
	UserID      uint    `json:"user_id"`
	Amount      float64 `json:"amount"`
	PhoneNumber string  `json:"phone_number"`
	Method      string  `json:"method"`
}

func (r *InitiateRequest) validate(c *fiber.Ctx) error {
	if r.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if r.Amount <= 0 {
		return response.BadRequest(c, "Amount must be greater than 0")
	}
	if r.PhoneNumber == "" {
		return response.BadRequest(c, "Phone number is required")
	}
	if r.Method == "" {
		return response.BadRequest(c, "Payment method is required")
	}
	return nil
}

func mapGatewayError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, "Amount must be greater than 0")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return response.BadRequest(c, "Insufficient wallet balance")
	case errors.Is(err, domain.ErrWalletNotFound):
		return response.NotFound(c, "Wallet not found")
	case errors.Is(err, domain.ErrAggregatorUnavailable):
		return response.Error(c, fiber.StatusBadGateway, "Payment provider is unavailable")
	case errors.Is(err, domain.ErrAggregatorRejected):
		return response.BadRequest(c, "Payment provider rejected the request")
	}
	return response.InternalServerError(c, fallback)
}

// Deposit initiates a mobile-money collection into the caller's wallet
func (h *PaymentHandler) Deposit(c *fiber.Ctx) error {
	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	result, err := h.paymentService.InitiateDeposit(c.Context(), req.UserID, req.Amount, req.PhoneNumber, req.Method)
	if err != nil {
		return mapGatewayError(c, err, "Failed to initiate deposit")
	}

	return response.Created(c, "Deposit initiated", result)
}

// Withdraw initiates a mobile-money payout from the caller's wallet
func (h *PaymentHandler) Withdraw(c *fiber.Ctx) error {
	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	result, err := h.paymentService.InitiateWithdrawal(c.Context(), req.UserID, req.Amount, req.PhoneNumber, req.Method)
	if err != nil {
		return mapGatewayError(c, err, "Failed to initiate withdrawal")
	}

	return response.Created(c, "Withdrawal initiated", result)
}

// Webhook receives aggregator callbacks. The signature is checked over the
// raw body before anything is parsed out of it.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get(SignatureHeader)
	if signature == "" {
		return response.Unauthorized(c, "Missing signature")
	}

	body := c.Body()
	if !h.paymentService.VerifyWebhook(signature, body) {
		return response.Unauthorized(c, "Invalid signature")
	}

	var payload services.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return response.BadRequest(c, "Invalid webhook body")
	}

	handled, err := h.paymentService.ProcessWebhook(c.Context(), &payload)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return response.NotFound(c, "Unknown transaction")
		}
		return response.InternalServerError(c, "Failed to process webhook")
	}

	return response.Success(c, "Webhook received", fiber.Map{"handled": handled})
}
