package repositories

import (
	"context"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TransactionRepository handles the immutable transaction ledger and the
// processed-webhook dedup table
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create creates a new ledger entry
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// GetByID gets a ledger entry by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).First(&transaction, id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetByGatewayRef gets a ledger entry by aggregator transaction id
func (r *TransactionRepository) GetByGatewayRef(ctx context.Context, gatewayRef string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("gateway_ref = ?", gatewayRef).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateStatus sets the settlement status and appends to the note
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uint, status, note string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": status,
			"note":   note,
		}).Error
}

// ListByUser lists a user's ledger entries, newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Transaction, int64, error) {
	var transactions []*models.Transaction
	var total int64

	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// RecordWebhook inserts a processed-webhook row. The unique index on
// (event, gateway_ref) makes a re-delivered webhook fail here, which aborts
// the surrounding transaction before any balance is touched twice.
func (r *TransactionRepository) RecordWebhook(ctx context.Context, event, gatewayRef string) error {
	return r.db.WithContext(ctx).Create(&models.ProcessedWebhook{
		Event:      event,
		GatewayRef: gatewayRef,
	}).Error
}

// WebhookProcessed checks whether a webhook delivery was already applied
func (r *TransactionRepository) WebhookProcessed(ctx context.Context, event, gatewayRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedWebhook{}).
		Where("event = ? AND gateway_ref = ?", event, gatewayRef).
		Count(&count).Error
	return count > 0, err
}
