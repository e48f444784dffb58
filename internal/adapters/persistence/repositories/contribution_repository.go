package repositories

import (
	"context"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ContributionRepository handles contribution persistence (append-only)
type ContributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *ContributionRepository) WithTx(tx *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: tx}
}

// Create creates a new contribution
func (r *ContributionRepository) Create(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Create(contribution).Error
}

// ListRecentByTontine lists the latest contributions of a tontine
func (r *ContributionRepository) ListRecentByTontine(ctx context.Context, tontineID uint, limit int) ([]*models.Contribution, error) {
	var contributions []*models.Contribution
	err := r.db.WithContext(ctx).
		Preload("Member.User").
		Where("tontine_id = ?", tontineID).
		Order("created_at DESC").
		Limit(limit).
		Find(&contributions).Error
	if err != nil {
		return nil, err
	}
	return contributions, nil
}

// SumByTontine sums all contribution amounts recorded for a tontine
func (r *ContributionRepository) SumByTontine(ctx context.Context, tontineID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Where("tontine_id = ?", tontineID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumByMember sums all contribution amounts recorded for a member
func (r *ContributionRepository) SumByMember(ctx context.Context, memberID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
