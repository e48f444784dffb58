package repositories

import (
	"context"
	"time"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TontineRepository handles tontine persistence
type TontineRepository struct {
	db *gorm.DB
}

// NewTontineRepository creates a new tontine repository
func NewTontineRepository(db *gorm.DB) *TontineRepository {
	return &TontineRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *TontineRepository) WithTx(tx *gorm.DB) *TontineRepository {
	return &TontineRepository{db: tx}
}

// Create creates a new tontine
func (r *TontineRepository) Create(ctx context.Context, tontine *models.Tontine) error {
	return r.db.WithContext(ctx).Create(tontine).Error
}

// GetByID gets a tontine by ID
func (r *TontineRepository) GetByID(ctx context.Context, id uint) (*models.Tontine, error) {
	var tontine models.Tontine
	err := r.db.WithContext(ctx).First(&tontine, id).Error
	if err != nil {
		return nil, err
	}
	return &tontine, nil
}

// GetByCode gets a tontine by its join code
func (r *TontineRepository) GetByCode(ctx context.Context, code string) (*models.Tontine, error) {
	var tontine models.Tontine
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&tontine).Error
	if err != nil {
		return nil, err
	}
	return &tontine, nil
}

// Update updates a tontine
func (r *TontineRepository) Update(ctx context.Context, tontine *models.Tontine) error {
	return r.db.WithContext(ctx).Save(tontine).Error
}

// IncrementPot atomically adds amount to the tontine pot
func (r *TontineRepository) IncrementPot(ctx context.Context, tontineID uint, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Tontine{}).
		Where("id = ?", tontineID).
		UpdateColumn("total_pot", gorm.Expr("total_pot + ?", amount)).Error
}

// ListByMemberUser lists tontines where the user holds a membership
func (r *TontineRepository) ListByMemberUser(ctx context.Context, userID uint) ([]*models.Tontine, error) {
	var tontines []*models.Tontine
	err := r.db.WithContext(ctx).
		Joins("JOIN tontine_members ON tontine_members.tontine_id = tontines.id").
		Where("tontine_members.user_id = ?", userID).
		Distinct().
		Find(&tontines).Error
	if err != nil {
		return nil, err
	}
	return tontines, nil
}

// ListByManager lists tontines managed by the user
func (r *TontineRepository) ListByManager(ctx context.Context, managerID uint) ([]*models.Tontine, error) {
	var tontines []*models.Tontine
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Find(&tontines).Error
	if err != nil {
		return nil, err
	}
	return tontines, nil
}

// ListActivePastEndDate lists active tontines whose end date has passed
func (r *TontineRepository) ListActivePastEndDate(ctx context.Context, now time.Time) ([]*models.Tontine, error) {
	var tontines []*models.Tontine
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", "active", now).
		Find(&tontines).Error
	if err != nil {
		return nil, err
	}
	return tontines, nil
}
