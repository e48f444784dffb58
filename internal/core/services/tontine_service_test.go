package services

import (
	"context"
	"testing"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTontineService(db *gorm.DB) *TontineService {
	r := newTestRepos(db)
	return NewTontineService(r.tontines, r.members, r.contributions, r.users)
}

func createInput(code string) *CreateTontineInput {
	return &CreateTontineInput{
		Name:               "Neighborhood Circle",
		Code:               code,
		ContributionAmount: 1000,
		StartDate:          time.Now(),
	}
}

func TestCreateTontineEnrollsManagerAsPresident(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")

	tontine, err := svc.Create(ctx, manager.ID, createInput("circle1"))
	require.NoError(t, err)

	assert.Equal(t, string(domain.TontineDraft), tontine.Status)
	assert.Equal(t, "CIRCLE1", tontine.Code)

	var member models.TontineMember
	require.NoError(t, db.Where("tontine_id = ? AND user_id = ?", tontine.ID, manager.ID).First(&member).Error)
	assert.Equal(t, string(domain.RolePresident), member.Role)
	assert.Equal(t, string(domain.MemberActive), member.Status)
}

func TestCreateTontineDuplicateCode(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")

	_, err := svc.Create(ctx, manager.ID, createInput("dup"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, manager.ID, createInput("DUP"))
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestActivateTontine(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	other := createTestUser(t, db, "other")

	tontine, err := svc.Create(ctx, manager.ID, createInput("act"))
	require.NoError(t, err)

	_, err = svc.Activate(ctx, tontine.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotManager)

	activated, err := svc.Activate(ctx, tontine.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TontineActive), activated.Status)

	// Already active: not a draft anymore
	_, err = svc.Activate(ctx, tontine.ID, manager.ID)
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestUpdateTontineDraftOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")

	tontine, err := svc.Create(ctx, manager.ID, createInput("upd"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, tontine.ID, manager.ID, &UpdateTontineInput{
		Name:               "Renamed Circle",
		ContributionAmount: 2500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Circle", updated.Name)
	assert.Equal(t, 2500.0, updated.ContributionAmount)

	_, err = svc.Activate(ctx, tontine.ID, manager.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, tontine.ID, manager.ID, &UpdateTontineInput{Name: "Too late"})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestJoinByCode(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	joiner := createTestUser(t, db, "joiner")

	tontine, err := svc.Create(ctx, manager.ID, createInput("join"))
	require.NoError(t, err)

	// Draft tontines cannot be joined
	_, err = svc.JoinByCode(ctx, "join", joiner.ID)
	assert.ErrorIs(t, err, domain.ErrTontineNotActive)

	_, err = svc.Activate(ctx, tontine.ID, manager.ID)
	require.NoError(t, err)

	// Code lookup is case-insensitive
	member, err := svc.JoinByCode(ctx, "  join ", joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.MemberPending), member.Status)
	assert.Equal(t, string(domain.RoleMember), member.Role)

	_, err = svc.JoinByCode(ctx, "JOIN", joiner.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.JoinByCode(ctx, "NOSUCH", joiner.ID)
	assert.ErrorIs(t, err, domain.ErrTontineNotFound)
}

func TestInviteByUsernameOrEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	invitee := createTestUser(t, db, "guest")

	tontine, err := svc.Create(ctx, manager.ID, createInput("inv"))
	require.NoError(t, err)

	member, err := svc.Invite(ctx, tontine.ID, manager.ID, "guest@example.com", domain.RoleTreasurer)
	require.NoError(t, err)
	assert.Equal(t, invitee.ID, member.UserID)
	assert.Equal(t, string(domain.RoleTreasurer), member.Role)
	assert.Equal(t, string(domain.MemberPending), member.Status)

	_, err = svc.Invite(ctx, tontine.ID, manager.ID, "guest", domain.RoleMember)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.Invite(ctx, tontine.ID, manager.ID, "ghost", domain.RoleMember)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApproveJoinRequest(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	joiner := createTestUser(t, db, "joiner")

	tontine, err := svc.Create(ctx, manager.ID, createInput("appr"))
	require.NoError(t, err)
	_, err = svc.Activate(ctx, tontine.ID, manager.ID)
	require.NoError(t, err)

	member, err := svc.JoinByCode(ctx, "appr", joiner.ID)
	require.NoError(t, err)

	approved, err := svc.ChangeMemberStatus(ctx, tontine.ID, member.ID, manager.ID, domain.MemberActive)
	require.NoError(t, err)
	assert.Equal(t, string(domain.MemberActive), approved.Status)

	_, err = svc.ChangeMemberStatus(ctx, tontine.ID, member.ID, manager.ID, "banned")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.ChangeMemberStatus(ctx, tontine.ID, member.ID, joiner.ID, domain.MemberSuspended)
	assert.ErrorIs(t, err, ErrNotManager)
}

func TestRemoveMember(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	joiner := createTestUser(t, db, "joiner")

	tontine, err := svc.Create(ctx, manager.ID, createInput("rm"))
	require.NoError(t, err)
	member := addTestMember(t, db, tontine.ID, joiner.ID, domain.MemberActive)

	// The manager's own membership is protected
	var managerMember models.TontineMember
	require.NoError(t, db.Where("tontine_id = ? AND user_id = ?", tontine.ID, manager.ID).First(&managerMember).Error)
	err = svc.RemoveMember(ctx, tontine.ID, managerMember.ID, manager.ID)
	assert.ErrorIs(t, err, ErrCannotRemoveManager)

	require.NoError(t, svc.RemoveMember(ctx, tontine.ID, member.ID, manager.ID))

	// Hard delete: the row is gone, so the user can join again
	var count int64
	require.NoError(t, db.Model(&models.TontineMember{}).Where("id = ?", member.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTontineListAndStats(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	user := createTestUser(t, db, "saver")

	active := createTestTontine(t, db, manager.ID, domain.TontineActive, 1000)
	draftMine, err := svc.Create(ctx, user.ID, createInput("mine"))
	require.NoError(t, err)

	m := addTestMember(t, db, active.ID, user.ID, domain.MemberActive)
	require.NoError(t, db.Model(m).Update("total_contributed", 4000).Error)

	out, err := svc.List(ctx, user.ID)
	require.NoError(t, err)

	// Belongs to both (own draft through the auto-created membership)
	assert.Equal(t, 2, out.Stats.TotalTontines)
	assert.Equal(t, 1, out.Stats.ActiveTontines)
	assert.Equal(t, 4000.0, out.Stats.TotalContributed)
	require.Len(t, out.ManagedTontines, 1)
	assert.Equal(t, draftMine.ID, out.ManagedTontines[0].ID)
}

func TestTontineDetailAccessControl(t *testing.T) {
	db := newTestDB(t)
	svc := newTontineService(db)
	contributions := newContributionService(db)
	ctx := context.Background()
	manager := createTestUser(t, db, "founder")
	member := createTestUser(t, db, "insider")
	outsider := createTestUser(t, db, "outsider")

	tontine := createTestTontine(t, db, manager.ID, domain.TontineActive, 1000)
	addTestMember(t, db, tontine.ID, manager.ID, domain.MemberActive)
	addTestMember(t, db, tontine.ID, member.ID, domain.MemberActive)
	_, err := contributions.Record(ctx, tontine.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.Detail(ctx, tontine.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	out, err := svc.Detail(ctx, tontine.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, out.IsManager)
	assert.Equal(t, int64(2), out.TotalMembers)
	assert.Equal(t, int64(2), out.ActiveMembers)
	assert.Equal(t, 1000.0, out.TotalCollected)
	assert.Len(t, out.RecentContributions, 1)

	out, err = svc.Detail(ctx, tontine.ID, manager.ID)
	require.NoError(t, err)
	assert.True(t, out.IsManager)
}
