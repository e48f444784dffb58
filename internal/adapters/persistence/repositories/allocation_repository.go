package repositories

import (
	"context"

	"tontinepro/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// AllocationRepository handles beneficiary allocation persistence
type AllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository creates a new allocation repository
func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *AllocationRepository) WithTx(tx *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: tx}
}

// Create creates a new allocation. The unique index on
// (tontine_id, member_id, cycle_number) backstops the allocator's own check.
func (r *AllocationRepository) Create(ctx context.Context, allocation *models.BeneficiaryAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

// MaxCycle returns the highest cycle number recorded for a tontine (0 if none)
func (r *AllocationRepository) MaxCycle(ctx context.Context, tontineID uint) (int, error) {
	var maxCycle int
	err := r.db.WithContext(ctx).
		Model(&models.BeneficiaryAllocation{}).
		Where("tontine_id = ?", tontineID).
		Select("COALESCE(MAX(cycle_number), 0)").
		Scan(&maxCycle).Error
	return maxCycle, err
}

// MemberIDsForCycle returns the member ids that already received in a cycle
func (r *AllocationRepository) MemberIDsForCycle(ctx context.Context, tontineID uint, cycle int) ([]uint, error) {
	var memberIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.BeneficiaryAllocation{}).
		Where("tontine_id = ? AND cycle_number = ?", tontineID, cycle).
		Pluck("member_id", &memberIDs).Error
	if err != nil {
		return nil, err
	}
	return memberIDs, nil
}

// ListByTontine lists all allocations of a tontine, newest first
func (r *AllocationRepository) ListByTontine(ctx context.Context, tontineID uint) ([]*models.BeneficiaryAllocation, error) {
	var allocations []*models.BeneficiaryAllocation
	err := r.db.WithContext(ctx).
		Preload("Member.User").
		Where("tontine_id = ?", tontineID).
		Order("cycle_number DESC, id DESC").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}
