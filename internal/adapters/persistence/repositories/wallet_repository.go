package repositories

import (
	"context"
	"errors"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// WalletRepository handles wallet persistence
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

// GetByID gets a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, id).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetByUserID gets the wallet of a user
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetOrCreate returns the user's wallet, creating it on first financial action
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return nil, err
	}
	return wallet, nil
}

// Credit atomically adds amount to a wallet balance
func (r *WalletRepository) Credit(ctx context.Context, walletID uint, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error
}

// Debit atomically subtracts amount from a wallet balance. The balance guard
// is part of the UPDATE itself, so two concurrent debits cannot overdraw.
// Returns false when the balance was insufficient.
func (r *WalletRepository) Debit(ctx context.Context, walletID uint, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
