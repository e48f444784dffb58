package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/config"
	"tontinepro/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec-test"

// fakeAggregator is a stand-in for the mobile-money provider
type fakeAggregator struct {
	*httptest.Server
	requests []string
	respond  func(w http.ResponseWriter)
}

func newFakeAggregator(t *testing.T) *fakeAggregator {
	t.Helper()
	f := &fakeAggregator{}
	f.respond = func(w http.ResponseWriter) {
		f.requests = append(f.requests, "")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"transaction_id": fmt.Sprintf("GMP-%d", len(f.requests)),
			"payment_url":    "https://pay.example.com/checkout",
		})
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		f.respond(w)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func newPaymentService(db *gorm.DB, baseURL string) *PaymentService {
	r := newTestRepos(db)
	cfg := config.GatewayConfig{
		APIKey:        "key-test",
		SecretKey:     "secret-test",
		BaseURL:       baseURL,
		WebhookSecret: testWebhookSecret,
		CallbackURL:   "https://tontinepro.test/api/v1/payments/webhook",
		Timeout:       2 * time.Second,
	}
	return NewPaymentService(cfg, db, r.wallets, r.transactions)
}

// signedWebhook builds a webhook body and its signature the way the
// aggregator does: HMAC-SHA256 over the canonical key-sorted JSON
func signedWebhook(t *testing.T, event, ref, status string, amount float64) (*WebhookPayload, string) {
	t.Helper()
	payload := map[string]interface{}{
		"event":          event,
		"transaction_id": ref,
		"status":         status,
		"amount":         amount,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	var parsed WebhookPayload
	require.NoError(t, json.Unmarshal(body, &parsed))
	return &parsed, signature
}

func TestInitiateDepositCreatesPendingWithoutCredit(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "nafi")

	result, err := svc.InitiateDeposit(ctx, user.ID, 2000, "+22990001111", "mtn")
	require.NoError(t, err)
	assert.Equal(t, "GMP-1", result.TransactionID)
	assert.NotEmpty(t, result.PaymentURL)

	// Wallet was created lazily but not credited
	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Zero(t, wallet.Balance)

	var entry models.Transaction
	require.NoError(t, db.First(&entry, result.LedgerEntryID).Error)
	assert.Equal(t, string(domain.TxStatusPending), entry.Status)
	assert.Equal(t, string(domain.TxDeposit), entry.Type)
	assert.Equal(t, "GMP-1", entry.GatewayRef)
}

func TestInitiateDepositAggregatorDown(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	gateway.Close()
	svc := newPaymentService(db, gateway.URL)
	user := createTestUser(t, db, "coura")

	_, err := svc.InitiateDeposit(context.Background(), user.ID, 2000, "+22990001111", "mtn")
	require.ErrorIs(t, err, domain.ErrAggregatorUnavailable)

	// No ledger entry on failure
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitiateDepositAggregatorRejects(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	gateway.respond = func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "unsupported operator",
		})
	}
	svc := newPaymentService(db, gateway.URL)
	user := createTestUser(t, db, "thiane")

	_, err := svc.InitiateDeposit(context.Background(), user.ID, 2000, "+22990001111", "mtn")
	require.ErrorIs(t, err, domain.ErrAggregatorRejected)
}

func TestDepositWebhookRoundTrip(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "ndella")

	result, err := svc.InitiateDeposit(ctx, user.ID, 2000, "+22990001111", "mtn")
	require.NoError(t, err)

	payload, _ := signedWebhook(t, EventPaymentCompleted, result.TransactionID, "success", 2000)
	handled, err := svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.True(t, handled)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Equal(t, 2000.0, wallet.Balance)

	var entry models.Transaction
	require.NoError(t, db.First(&entry, result.LedgerEntryID).Error)
	assert.Equal(t, string(domain.TxStatusCompleted), entry.Status)
}

func TestDepositWebhookReplayDoesNotDoubleCredit(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "yaye")

	result, err := svc.InitiateDeposit(ctx, user.ID, 2000, "+22990001111", "mtn")
	require.NoError(t, err)

	payload, _ := signedWebhook(t, EventPaymentCompleted, result.TransactionID, "success", 2000)

	handled, err := svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.True(t, handled)

	// Same delivery again: accepted quietly, nothing moves
	handled, err = svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.False(t, handled)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Equal(t, 2000.0, wallet.Balance)
}

func TestDepositFailedWebhook(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "madjiguene")

	result, err := svc.InitiateDeposit(ctx, user.ID, 2000, "+22990001111", "mtn")
	require.NoError(t, err)

	payload, _ := signedWebhook(t, EventPaymentFailed, result.TransactionID, "failed", 2000)
	handled, err := svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.True(t, handled)

	var entry models.Transaction
	require.NoError(t, db.First(&entry, result.LedgerEntryID).Error)
	assert.Equal(t, string(domain.TxStatusFailed), entry.Status)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Zero(t, wallet.Balance)
}

func TestInitiateWithdrawalOptimisticDebit(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "soda")
	wallet := createTestWallet(t, db, user.ID, 5000)

	result, err := svc.InitiateWithdrawal(ctx, user.ID, 2000, "+22990002222", "moov")
	require.NoError(t, err)

	// Debited as soon as the aggregator accepts
	assert.Equal(t, 3000.0, walletBalance(t, db, wallet.ID))

	var entry models.Transaction
	require.NoError(t, db.First(&entry, result.LedgerEntryID).Error)
	assert.Equal(t, string(domain.TxStatusPending), entry.Status)
	assert.Equal(t, string(domain.TxWithdraw), entry.Type)
}

func TestInitiateWithdrawalInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	user := createTestUser(t, db, "mbathio")
	wallet := createTestWallet(t, db, user.ID, 1000)

	_, err := svc.InitiateWithdrawal(context.Background(), user.ID, 2000, "+22990002222", "moov")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 1000.0, walletBalance(t, db, wallet.ID))
	// Rejected before the aggregator was ever called
	assert.Empty(t, gateway.requests)
}

func TestPayoutFailureCompensatesWallet(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "tabara")
	wallet := createTestWallet(t, db, user.ID, 5000)

	result, err := svc.InitiateWithdrawal(ctx, user.ID, 2000, "+22990002222", "moov")
	require.NoError(t, err)
	require.Equal(t, 3000.0, walletBalance(t, db, wallet.ID))

	payload, _ := signedWebhook(t, EventPayoutFailed, result.TransactionID, "failed", 2000)
	handled, err := svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.True(t, handled)

	// Back to the original balance
	assert.Equal(t, 5000.0, walletBalance(t, db, wallet.ID))

	var entry models.Transaction
	require.NoError(t, db.First(&entry, result.LedgerEntryID).Error)
	assert.Equal(t, string(domain.TxStatusFailed), entry.Status)
}

func TestPayoutCompletedLeavesDebitInPlace(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)
	ctx := context.Background()
	user := createTestUser(t, db, "dado")
	wallet := createTestWallet(t, db, user.ID, 5000)

	result, err := svc.InitiateWithdrawal(ctx, user.ID, 2000, "+22990002222", "moov")
	require.NoError(t, err)

	payload, _ := signedWebhook(t, EventPayoutCompleted, result.TransactionID, "success", 2000)
	handled, err := svc.ProcessWebhook(ctx, payload)
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, 3000.0, walletBalance(t, db, wallet.ID))
}

func TestProcessWebhookUnknownTransaction(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)

	payload, _ := signedWebhook(t, EventPaymentCompleted, "GMP-nope", "success", 100)
	_, err := svc.ProcessWebhook(context.Background(), payload)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestProcessWebhookUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)

	payload, _ := signedWebhook(t, "payment.reversed", "GMP-1", "success", 100)
	handled, err := svc.ProcessWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestVerifyWebhookSignature(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeAggregator(t)
	svc := newPaymentService(db, gateway.URL)

	body, err := json.Marshal(map[string]interface{}{
		"event":          EventPaymentCompleted,
		"transaction_id": "GMP-1",
		"status":         "success",
		"amount":         2000.0,
	})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, svc.VerifyWebhook(good, body))
	assert.False(t, svc.VerifyWebhook("deadbeef", body))
	assert.False(t, svc.VerifyWebhook(good, []byte(`{"event":"payment.failed"}`)))
}
