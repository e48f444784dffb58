package services

import (
	"context"
	"errors"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Allocation service errors
var (
	ErrNotManager = errors.New("only the tontine manager can do this")
)

// AllocationService decides who receives the pot each cycle. A cycle is the
// set of active members; a member receives at most once per cycle, and the
// next cycle opens only when every active member has received.
type AllocationService struct {
	tontineRepo    *repositories.TontineRepository
	memberRepo     *repositories.MemberRepository
	allocationRepo *repositories.AllocationRepository
}

// NewAllocationService creates a new allocation service
func NewAllocationService(
	tontineRepo *repositories.TontineRepository,
	memberRepo *repositories.MemberRepository,
	allocationRepo *repositories.AllocationRepository,
) *AllocationService {
	return &AllocationService{
		tontineRepo:    tontineRepo,
		memberRepo:     memberRepo,
		allocationRepo: allocationRepo,
	}
}

// AllocationStats represents the allocation state of a tontine
type AllocationStats struct {
	CurrentCycle    int                     `json:"current_cycle"`
	TotalMembers    int                     `json:"total_members"`
	Eligible        []*models.TontineMember `json:"eligible"`
	AlreadyReceived []*models.TontineMember `json:"already_received"`
	AllReceived     bool                    `json:"all_received"`
}

// Stats computes the current cycle and who can still receive in it.
// The cycle is derived from recorded allocations: it is the highest cycle
// number on file (1 when none), rolling to the next one once every active
// member has an allocation in it.
func (s *AllocationService) Stats(ctx context.Context, tontineID uint) (*AllocationStats, error) {
	members, err := s.memberRepo.ListActiveByTontine(ctx, tontineID)
	if err != nil {
		return nil, err
	}

	cycle, err := s.allocationRepo.MaxCycle(ctx, tontineID)
	if err != nil {
		return nil, err
	}
	if cycle == 0 {
		cycle = 1
	}

	receivedIDs, err := s.allocationRepo.MemberIDsForCycle(ctx, tontineID, cycle)
	if err != nil {
		return nil, err
	}
	received := make(map[uint]bool, len(receivedIDs))
	for _, id := range receivedIDs {
		received[id] = true
	}

	stats := &AllocationStats{
		CurrentCycle: cycle,
		TotalMembers: len(members),
	}
	for _, m := range members {
		if received[m.ID] {
			stats.AlreadyReceived = append(stats.AlreadyReceived, m)
		} else {
			stats.Eligible = append(stats.Eligible, m)
		}
	}
	stats.AllReceived = len(members) > 0 && len(stats.Eligible) == 0

	// Cycle exhausted: the next allocation opens a fresh cycle where
	// everyone is eligible again.
	if stats.AllReceived {
		stats.CurrentCycle = cycle + 1
		stats.Eligible = members
		stats.AlreadyReceived = nil
		stats.AllReceived = false
	}

	return stats, nil
}

// Allocate records that a member receives the pot in the current cycle.
// The manager picks the recipient; no ordering is enforced beyond the
// once-per-cycle rule. The recorded amount is the running pot total, which
// is not decremented (the pot keeps accumulating as the original books do).
func (s *AllocationService) Allocate(ctx context.Context, tontineID, memberID, actorID uint) (*models.BeneficiaryAllocation, error) {
	tontine, err := s.tontineRepo.GetByID(ctx, tontineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTontineNotFound
		}
		return nil, err
	}
	if tontine.ManagerID != actorID {
		return nil, ErrNotManager
	}

	member, err := s.memberRepo.GetByID(ctx, tontineID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if !member.IsActive() {
		return nil, domain.ErrMemberNotActive
	}

	stats, err := s.Stats(ctx, tontineID)
	if err != nil {
		return nil, err
	}
	for _, m := range stats.AlreadyReceived {
		if m.ID == member.ID {
			return nil, domain.ErrAlreadyReceivedThisCycle
		}
	}

	allocation := &models.BeneficiaryAllocation{
		TontineID:   tontine.ID,
		MemberID:    member.ID,
		CycleNumber: stats.CurrentCycle,
		Amount:      tontine.TotalPot,
	}
	if err := s.allocationRepo.Create(ctx, allocation); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tontine_id": tontine.ID,
		"member_id":  member.ID,
		"cycle":      allocation.CycleNumber,
		"amount":     allocation.Amount,
	}).Info("beneficiary allocated")

	return allocation, nil
}

// History lists all allocations of a tontine, newest first
func (s *AllocationService) History(ctx context.Context, tontineID uint) ([]*models.BeneficiaryAllocation, error) {
	return s.allocationRepo.ListByTontine(ctx, tontineID)
}
