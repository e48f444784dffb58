package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Tontine service errors
var (
	ErrCodeTaken           = errors.New("tontine code already in use")
	ErrNotDraft            = errors.New("only draft tontines can be changed")
	ErrAlreadyMember       = errors.New("user is already a member of this tontine")
	ErrCannotRemoveManager = errors.New("the manager's own membership cannot be removed")
	ErrInvalidRole         = errors.New("invalid member role")
	ErrInvalidStatus       = errors.New("invalid member status")
	ErrAccessDenied        = errors.New("no access to this tontine")
)

// TontineService handles tontine lifecycle and membership
type TontineService struct {
	tontineRepo      *repositories.TontineRepository
	memberRepo       *repositories.MemberRepository
	contributionRepo *repositories.ContributionRepository
	userRepo         repositories.UserRepository
}

// NewTontineService creates a new tontine service
func NewTontineService(
	tontineRepo *repositories.TontineRepository,
	memberRepo *repositories.MemberRepository,
	contributionRepo *repositories.ContributionRepository,
	userRepo repositories.UserRepository,
) *TontineService {
	return &TontineService{
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		contributionRepo: contributionRepo,
		userRepo:         userRepo,
	}
}

// CreateTontineInput represents create tontine input
type CreateTontineInput struct {
	Name               string     `json:"name"`
	Code               string     `json:"code"`
	Description        string     `json:"description,omitempty"`
	ContributionAmount float64    `json:"contribution_amount"`
	CycleDuration      int        `json:"cycle_duration,omitempty"`
	MeetingSchedule    string     `json:"meeting_schedule,omitempty"`
	MeetingLocation    string     `json:"meeting_location,omitempty"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
}

// Create creates a tontine in draft and enrolls the manager as its
// president, already active
func (s *TontineService) Create(ctx context.Context, managerID uint, input *CreateTontineInput) (*models.Tontine, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if _, err := s.tontineRepo.GetByCode(ctx, code); err == nil {
		return nil, ErrCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cycleDuration := input.CycleDuration
	if cycleDuration <= 0 {
		cycleDuration = 30
	}

	tontine := &models.Tontine{
		Name:               input.Name,
		Code:               code,
		Description:        input.Description,
		ManagerID:          managerID,
		Status:             string(domain.TontineDraft),
		ContributionAmount: input.ContributionAmount,
		CycleDuration:      cycleDuration,
		MeetingSchedule:    input.MeetingSchedule,
		MeetingLocation:    input.MeetingLocation,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
	}
	if err := s.tontineRepo.Create(ctx, tontine); err != nil {
		return nil, err
	}

	manager := &models.TontineMember{
		TontineID: tontine.ID,
		UserID:    managerID,
		Role:      string(domain.RolePresident),
		Status:    string(domain.MemberActive),
	}
	if err := s.memberRepo.Create(ctx, manager); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tontine_id": tontine.ID,
		"code":       tontine.Code,
		"manager_id": managerID,
	}).Info("tontine created")

	return tontine, nil
}

// UpdateTontineInput represents editable draft fields
type UpdateTontineInput struct {
	Name               string     `json:"name,omitempty"`
	Description        string     `json:"description,omitempty"`
	ContributionAmount float64    `json:"contribution_amount,omitempty"`
	CycleDuration      int        `json:"cycle_duration,omitempty"`
	MeetingSchedule    string     `json:"meeting_schedule,omitempty"`
	MeetingLocation    string     `json:"meeting_location,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
}

// Update edits a tontine. Manager only, draft only.
func (s *TontineService) Update(ctx context.Context, tontineID, actorID uint, input *UpdateTontineInput) (*models.Tontine, error) {
	tontine, err := s.getManaged(ctx, tontineID, actorID)
	if err != nil {
		return nil, err
	}
	if tontine.Status != string(domain.TontineDraft) {
		return nil, ErrNotDraft
	}

	if input.Name != "" {
		tontine.Name = input.Name
	}
	if input.Description != "" {
		tontine.Description = input.Description
	}
	if input.ContributionAmount > 0 {
		tontine.ContributionAmount = input.ContributionAmount
	}
	if input.CycleDuration > 0 {
		tontine.CycleDuration = input.CycleDuration
	}
	if input.MeetingSchedule != "" {
		tontine.MeetingSchedule = input.MeetingSchedule
	}
	if input.MeetingLocation != "" {
		tontine.MeetingLocation = input.MeetingLocation
	}
	if input.StartDate != nil {
		tontine.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		tontine.EndDate = input.EndDate
	}

	if err := s.tontineRepo.Update(ctx, tontine); err != nil {
		return nil, err
	}
	return tontine, nil
}

// Activate moves a draft tontine to active. Manager only.
func (s *TontineService) Activate(ctx context.Context, tontineID, actorID uint) (*models.Tontine, error) {
	tontine, err := s.getManaged(ctx, tontineID, actorID)
	if err != nil {
		return nil, err
	}
	if tontine.Status != string(domain.TontineDraft) {
		return nil, ErrNotDraft
	}

	tontine.Status = string(domain.TontineActive)
	if err := s.tontineRepo.Update(ctx, tontine); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tontine_id": tontine.ID,
		"code":       tontine.Code,
	}).Info("tontine activated")

	return tontine, nil
}

// JoinByCode files a pending membership request against an active tontine
func (s *TontineService) JoinByCode(ctx context.Context, code string, userID uint) (*models.TontineMember, error) {
	tontine, err := s.tontineRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTontineNotFound
		}
		return nil, err
	}
	if tontine.Status != string(domain.TontineActive) {
		return nil, domain.ErrTontineNotActive
	}

	exists, err := s.memberRepo.Exists(ctx, tontine.ID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	member := &models.TontineMember{
		TontineID: tontine.ID,
		UserID:    userID,
		Role:      string(domain.RoleMember),
		Status:    string(domain.MemberPending),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Invite adds a user (looked up by username or email) as a pending member
// with the given role. Manager only.
func (s *TontineService) Invite(ctx context.Context, tontineID, actorID uint, identifier string, role domain.MemberRole) (*models.TontineMember, error) {
	tontine, err := s.getManaged(ctx, tontineID, actorID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	exists, err := s.memberRepo.Exists(ctx, tontine.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	member := &models.TontineMember{
		TontineID: tontine.ID,
		UserID:    user.ID,
		Role:      string(role),
		Status:    string(domain.MemberPending),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// ChangeMemberRole sets a member's role. Manager only.
func (s *TontineService) ChangeMemberRole(ctx context.Context, tontineID, memberID, actorID uint, role domain.MemberRole) (*models.TontineMember, error) {
	if _, err := s.getManaged(ctx, tontineID, actorID); err != nil {
		return nil, err
	}
	if !domain.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	member, err := s.memberRepo.GetByID(ctx, tontineID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	member.Role = string(role)
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// ChangeMemberStatus sets a member's status (pending/active/suspended).
// Manager only; promoting to active is how join requests get approved.
func (s *TontineService) ChangeMemberStatus(ctx context.Context, tontineID, memberID, actorID uint, status domain.MemberStatus) (*models.TontineMember, error) {
	if _, err := s.getManaged(ctx, tontineID, actorID); err != nil {
		return nil, err
	}
	if !domain.ValidMemberStatus(status) {
		return nil, ErrInvalidStatus
	}

	member, err := s.memberRepo.GetByID(ctx, tontineID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	member.Status = string(status)
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember hard-deletes a membership. Manager only; the manager's own
// membership stays.
func (s *TontineService) RemoveMember(ctx context.Context, tontineID, memberID, actorID uint) error {
	tontine, err := s.getManaged(ctx, tontineID, actorID)
	if err != nil {
		return err
	}

	member, err := s.memberRepo.GetByID(ctx, tontineID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	if member.UserID == tontine.ManagerID {
		return ErrCannotRemoveManager
	}

	return s.memberRepo.Delete(ctx, member.ID)
}

// TontineListOutput represents the tontine list page aggregate
type TontineListOutput struct {
	UserTontines    []*models.Tontine `json:"user_tontines"`
	ManagedTontines []*models.Tontine `json:"managed_tontines"`
	Stats           TontineListStats  `json:"stats"`
}

// TontineListStats represents the list page counters
type TontineListStats struct {
	TotalTontines    int     `json:"total_tontines"`
	ActiveTontines   int     `json:"active_tontines"`
	TotalContributed float64 `json:"total_contributed"`
}

// List returns the tontines a user belongs to or manages, with counters
func (s *TontineService) List(ctx context.Context, userID uint) (*TontineListOutput, error) {
	userTontines, err := s.tontineRepo.ListByMemberUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	managed, err := s.tontineRepo.ListByManager(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalContributed, err := s.memberRepo.SumContributedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, t := range userTontines {
		if t.Status == string(domain.TontineActive) {
			active++
		}
	}

	return &TontineListOutput{
		UserTontines:    userTontines,
		ManagedTontines: managed,
		Stats: TontineListStats{
			TotalTontines:    len(userTontines),
			ActiveTontines:   active,
			TotalContributed: totalContributed,
		},
	}, nil
}

// TontineDetailOutput represents the tontine detail page aggregate
type TontineDetailOutput struct {
	Tontine             *models.Tontine         `json:"tontine"`
	Members             []*models.TontineMember `json:"members"`
	TotalMembers        int64                   `json:"total_members"`
	ActiveMembers       int64                   `json:"active_members"`
	TotalCollected      float64                 `json:"total_collected"`
	RecentContributions []*models.Contribution  `json:"recent_contributions"`
	IsManager           bool                    `json:"is_manager"`
}

// Detail returns a tontine with members and stats. Only the manager and
// members may see it.
func (s *TontineService) Detail(ctx context.Context, tontineID, userID uint) (*TontineDetailOutput, error) {
	tontine, err := s.tontineRepo.GetByID(ctx, tontineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTontineNotFound
		}
		return nil, err
	}

	isMember, err := s.memberRepo.Exists(ctx, tontineID, userID)
	if err != nil {
		return nil, err
	}
	if tontine.ManagerID != userID && !isMember {
		return nil, ErrAccessDenied
	}

	members, err := s.memberRepo.ListByTontine(ctx, tontineID)
	if err != nil {
		return nil, err
	}
	total, active, err := s.memberRepo.CountByTontine(ctx, tontineID)
	if err != nil {
		return nil, err
	}
	collected, err := s.contributionRepo.SumByTontine(ctx, tontineID)
	if err != nil {
		return nil, err
	}
	recent, err := s.contributionRepo.ListRecentByTontine(ctx, tontineID, 8)
	if err != nil {
		return nil, err
	}

	return &TontineDetailOutput{
		Tontine:             tontine,
		Members:             members,
		TotalMembers:        total,
		ActiveMembers:       active,
		TotalCollected:      collected,
		RecentContributions: recent,
		IsManager:           tontine.ManagerID == userID,
	}, nil
}

// getManaged loads a tontine and checks the actor manages it
func (s *TontineService) getManaged(ctx context.Context, tontineID, actorID uint) (*models.Tontine, error) {
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
	return tontine, nil
}
