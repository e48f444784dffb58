package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/config"
	"tontinepro/internal/core/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Webhook event types delivered by the aggregator
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPayoutCompleted  = "payout.completed"
	EventPayoutFailed     = "payout.failed"
)

// PaymentService bridges the wallet ledger to the GetMiPay mobile-money
// aggregator (Wave, Orange Money, Moov, MTN, Visa). Deposits credit the
// wallet only when the confirmation webhook arrives; withdrawals debit the
// wallet up front and are credited back if the payout fails.
type PaymentService struct {
	cfg             config.GatewayConfig
	db              *gorm.DB
	client          *http.Client
	walletRepo      *repositories.WalletRepository
	transactionRepo *repositories.TransactionRepository
}

// NewPaymentService creates a new payment service with injected gateway
// credentials
func NewPaymentService(
	cfg config.GatewayConfig,
	db *gorm.DB,
	walletRepo *repositories.WalletRepository,
	transactionRepo *repositories.TransactionRepository,
) *PaymentService {
	return &PaymentService{
		cfg:             cfg,
		db:              db,
		client:          &http.Client{Timeout: cfg.Timeout},
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// gatewayResponse represents the aggregator's initiate response
type gatewayResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	Message       string `json:"message,omitempty"`
}

// InitiateResult represents a successfully initiated gateway operation
type InitiateResult struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	LedgerEntryID uint   `json:"ledger_entry_id"`
}

// WebhookPayload represents the body the aggregator delivers on callbacks
type WebhookPayload struct {
	Event         string  `json:"event"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
}

// sign computes the HMAC-SHA256 signature over the canonical (key-sorted)
// JSON encoding of the payload
func (s *PaymentService) sign(secret string, payload map[string]interface{}) string {
	// json.Marshal sorts map keys, which is the canonical form both sides
	// agree on.
	message, _ := json.Marshal(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// call POSTs a signed payload to the aggregator and decodes the response
func (s *PaymentService) call(ctx context.Context, path string, payload map[string]interface{}) (*gatewayResponse, error) {
	payload["signature"] = s.sign(s.cfg.SecretKey, payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TontinePro/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAggregatorUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAggregatorUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", domain.ErrAggregatorUnavailable, resp.StatusCode)
	}

	var gwResp gatewayResponse
	if err := json.Unmarshal(respBody, &gwResp); err != nil {
		return nil, fmt.Errorf("%w: bad response body", domain.ErrAggregatorUnavailable)
	}
	if !gwResp.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrAggregatorRejected, gwResp.Message)
	}
	return &gwResp, nil
}

// initiatePayload builds the common request body for initiate calls
func (s *PaymentService) initiatePayload(amount float64, phone, method, reference string) map[string]interface{} {
	return map[string]interface{}{
		"api_key":      s.cfg.APIKey,
		"amount":       amount,
		"currency":     "XOF",
		"phone_number": phone,
		"method":       method,
		"reference":    reference,
		"callback_url": s.cfg.CallbackURL,
	}
}

// InitiateDeposit asks the aggregator to collect amount from the payer's
// mobile-money account. A pending deposit entry is recorded; the wallet is
// credited only when the payment.completed webhook confirms.
func (s *PaymentService) InitiateDeposit(ctx context.Context, userID uint, amount float64, phone, method string) (*InitiateResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("DEPOSIT-%d-%s", userID, uuid.NewString())
	gwResp, err := s.call(ctx, "/v1/payments/initiate", s.initiatePayload(amount, phone, method, reference))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount,
			"method":  method,
		}).WithError(err).Error("deposit initiation failed")
		return nil, err
	}

	entry := &models.Transaction{
		UserID:     userID,
		WalletID:   &wallet.ID,
		Amount:     amount,
		Type:       string(domain.TxDeposit),
		Status:     string(domain.TxStatusPending),
		GatewayRef: gwResp.TransactionID,
		Note:       fmt.Sprintf("Deposit initiated via %s - %s", method, gwResp.TransactionID),
	}
	if err := s.transactionRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"amount":      amount,
		"gateway_ref": gwResp.TransactionID,
	}).Info("deposit initiated")

	return &InitiateResult{
		TransactionID: gwResp.TransactionID,
		PaymentURL:    gwResp.PaymentURL,
		LedgerEntryID: entry.ID,
	}, nil
}

// InitiateWithdrawal asks the aggregator to pay amount out to the user's
// mobile-money account. The wallet is debited as soon as the aggregator
// accepts, with a pending withdraw entry; payout.failed credits it back.
// Debiting first prevents a double-withdrawal of the same funds at the cost
// of a temporary hold while the payout settles.
func (s *PaymentService) InitiateWithdrawal(ctx context.Context, userID uint, amount float64, phone, method string) (*InitiateResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, domain.ErrInsufficientFunds
	}

	reference := fmt.Sprintf("WITHDRAWAL-%d-%s", userID, uuid.NewString())
	gwResp, err := s.call(ctx, "/v1/payouts/initiate", s.initiatePayload(amount, phone, method, reference))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount,
			"method":  method,
		}).WithError(err).Error("withdrawal initiation failed")
		return nil, err
	}

	entry := &models.Transaction{
		UserID:     userID,
		WalletID:   &wallet.ID,
		Amount:     amount,
		Type:       string(domain.TxWithdraw),
		Status:     string(domain.TxStatusPending),
		GatewayRef: gwResp.TransactionID,
		Note:       fmt.Sprintf("Withdrawal initiated via %s - %s", method, gwResp.TransactionID),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.walletRepo.WithTx(tx).Debit(ctx, wallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			// Balance moved between the check and the debit.
			return domain.ErrInsufficientFunds
		}
		return s.transactionRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"amount":      amount,
		"gateway_ref": gwResp.TransactionID,
	}).Info("withdrawal initiated, wallet debited")

	return &InitiateResult{
		TransactionID: gwResp.TransactionID,
		LedgerEntryID: entry.ID,
	}, nil
}

// VerifyWebhook recomputes the HMAC-SHA256 signature over the canonical
// form of the delivered body and compares in constant time
func (s *PaymentService) VerifyWebhook(signature string, body []byte) bool {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	expected := s.sign(s.cfg.WebhookSecret, payload)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ProcessWebhook applies an aggregator callback to the referenced pending
// ledger entry:
//
//	payment.completed (success) -> credit wallet, mark completed
//	payment.failed              -> mark failed
//	payout.completed  (success) -> mark completed (already debited)
//	payout.failed               -> credit wallet back, mark failed
//
// The processed-webhook ledger and the pending-status guard make replayed
// deliveries no-ops: handled=false, no mutation. Unknown events are logged
// and reported unhandled; an unknown transaction id is an error.
func (s *PaymentService) ProcessWebhook(ctx context.Context, payload *WebhookPayload) (bool, error) {
	switch payload.Event {
	case EventPaymentCompleted, EventPaymentFailed, EventPayoutCompleted, EventPayoutFailed:
	default:
		logrus.WithField("event", payload.Event).Warn("unrecognized webhook event")
		return false, nil
	}

	entry, err := s.transactionRepo.GetByGatewayRef(ctx, payload.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.ErrTransactionNotFound
		}
		return false, err
	}

	if !entry.IsPending() {
		logrus.WithFields(logrus.Fields{
			"event":       payload.Event,
			"gateway_ref": payload.TransactionID,
		}).Warn("webhook for settled transaction ignored")
		return false, nil
	}

	processed, err := s.transactionRepo.WebhookProcessed(ctx, payload.Event, payload.TransactionID)
	if err != nil {
		return false, err
	}
	if processed {
		return false, nil
	}

	handled := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.transactionRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		apply := func(status, noteSuffix string) error {
			if err := txRepo.RecordWebhook(ctx, payload.Event, payload.TransactionID); err != nil {
				return err
			}
			return txRepo.UpdateStatus(ctx, entry.ID, status, entry.Note+noteSuffix)
		}

		switch {
		case payload.Event == EventPaymentCompleted && payload.Status == "success" && entry.Type == string(domain.TxDeposit):
			if err := walletRepo.Credit(ctx, *entry.WalletID, payload.Amount); err != nil {
				return err
			}
			if err := apply(string(domain.TxStatusCompleted), " - COMPLETED"); err != nil {
				return err
			}
			handled = true

		case payload.Event == EventPaymentFailed && entry.Type == string(domain.TxDeposit):
			if err := apply(string(domain.TxStatusFailed), " - FAILED"); err != nil {
				return err
			}
			handled = true

		case payload.Event == EventPayoutCompleted && payload.Status == "success" && entry.Type == string(domain.TxWithdraw):
			if err := apply(string(domain.TxStatusCompleted), " - COMPLETED"); err != nil {
				return err
			}
			handled = true

		case payload.Event == EventPayoutFailed && entry.Type == string(domain.TxWithdraw):
			// Compensate the optimistic debit.
			if err := walletRepo.Credit(ctx, *entry.WalletID, payload.Amount); err != nil {
				return err
			}
			if err := apply(string(domain.TxStatusFailed), " - FAILED, refunded"); err != nil {
				return err
			}
			handled = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if handled {
		logrus.WithFields(logrus.Fields{
			"event":       payload.Event,
			"gateway_ref": payload.TransactionID,
			"amount":      payload.Amount,
		}).Info("webhook processed")
	}
	return handled, nil
}
