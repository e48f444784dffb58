package repositories

import (
	"context"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// VaultRepository handles vault persistence
type VaultRepository struct {
	db *gorm.DB
}

// NewVaultRepository creates a new vault repository
func NewVaultRepository(db *gorm.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *VaultRepository) WithTx(tx *gorm.DB) *VaultRepository {
	return &VaultRepository{db: tx}
}

// Create creates a new vault
func (r *VaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	return r.db.WithContext(ctx).Create(vault).Error
}

// GetByID gets a vault by ID
func (r *VaultRepository) GetByID(ctx context.Context, id uint) (*models.Vault, error) {
	var vault models.Vault
	err := r.db.WithContext(ctx).First(&vault, id).Error
	if err != nil {
		return nil, err
	}
	return &vault, nil
}

// GetByIDAndOwner gets a vault by ID scoped to its owner
func (r *VaultRepository) GetByIDAndOwner(ctx context.Context, id, ownerID uint) (*models.Vault, error) {
	var vault models.Vault
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&vault).Error
	if err != nil {
		return nil, err
	}
	return &vault, nil
}

// ListByOwner lists the vaults of a user, newest first
func (r *VaultRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Vault, error) {
	var vaults []*models.Vault
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&vaults).Error
	if err != nil {
		return nil, err
	}
	return vaults, nil
}

// Credit atomically adds amount to a vault balance
func (r *VaultRepository) Credit(ctx context.Context, vaultID uint, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Vault{}).
		Where("id = ?", vaultID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error
}

// Debit atomically subtracts amount from a vault balance with an in-UPDATE
// balance guard. Returns false when the balance was insufficient.
func (r *VaultRepository) Debit(ctx context.Context, vaultID uint, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Vault{}).
		Where("id = ? AND balance >= ?", vaultID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
