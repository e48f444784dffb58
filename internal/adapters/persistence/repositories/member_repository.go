package repositories

import (
	"context"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// MemberRepository handles tontine membership persistence
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{db: tx}
}

// Create creates a new membership
func (r *MemberRepository) Create(ctx context.Context, member *models.TontineMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets a membership by ID within a tontine
func (r *MemberRepository) GetByID(ctx context.Context, tontineID, memberID uint) (*models.TontineMember, error) {
	var member models.TontineMember
	err := r.db.WithContext(ctx).
		Where("id = ? AND tontine_id = ?", memberID, tontineID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByTontineAndUser gets the membership of a user in a tontine
func (r *MemberRepository) GetByTontineAndUser(ctx context.Context, tontineID, userID uint) (*models.TontineMember, error) {
	var member models.TontineMember
	err := r.db.WithContext(ctx).
		Where("tontine_id = ? AND user_id = ?", tontineID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Exists checks whether a user already has a membership in a tontine
func (r *MemberRepository) Exists(ctx context.Context, tontineID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TontineMember{}).
		Where("tontine_id = ? AND user_id = ?", tontineID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListByTontine lists all members of a tontine with their users preloaded
func (r *MemberRepository) ListByTontine(ctx context.Context, tontineID uint) ([]*models.TontineMember, error) {
	var members []*models.TontineMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tontine_id = ?", tontineID).
		Order("joined_date ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListActiveByTontine lists active members of a tontine
func (r *MemberRepository) ListActiveByTontine(ctx context.Context, tontineID uint) ([]*models.TontineMember, error) {
	var members []*models.TontineMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tontine_id = ? AND status = ?", tontineID, "active").
		Order("joined_date ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Update updates a membership
func (r *MemberRepository) Update(ctx context.Context, member *models.TontineMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// IncrementContributed atomically adds amount to the member's running total
func (r *MemberRepository) IncrementContributed(ctx context.Context, memberID uint, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.TontineMember{}).
		Where("id = ?", memberID).
		UpdateColumn("total_contributed", gorm.Expr("total_contributed + ?", amount)).Error
}

// Delete removes a membership (hard delete)
func (r *MemberRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.TontineMember{}, id).Error
}

// SumContributedByUser sums total_contributed across a user's active memberships
func (r *MemberRepository) SumContributedByUser(ctx context.Context, userID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.TontineMember{}).
		Where("user_id = ? AND status = ?", userID, "active").
		Select("COALESCE(SUM(total_contributed), 0)").
		Scan(&total).Error
	return total, err
}

// CountByTontine counts total and active members of a tontine
func (r *MemberRepository) CountByTontine(ctx context.Context, tontineID uint) (total, active int64, err error) {
	err = r.db.WithContext(ctx).
		Model(&models.TontineMember{}).
		Where("tontine_id = ?", tontineID).
		Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.TontineMember{}).
		Where("tontine_id = ? AND status = ?", tontineID, "active").
		Count(&active).Error
	return total, active, err
}
