package services

import (
	"context"
	"testing"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) *UserService {
	r := newTestRepos(db)
	return NewUserService(r.users, r.wallets)
}

func TestRegisterProvisionsWallet(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)

	user, err := svc.Register(context.Background(), &RegisterInput{
		Username:    "Arame",
		Email:       "Arame@Example.com",
		Password:    "s3cret-pass",
		FullName:    "Arame Diop",
		PhoneNumber: "+221770000001",
		UserType:    "rural_woman",
	})
	require.NoError(t, err)

	// Normalized identifiers, hashed password
	assert.Equal(t, "arame", user.Username)
	assert.Equal(t, "arame@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.Password)
	assert.True(t, password.Verify("s3cret-pass", user.Password))

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&wallet).Error)
	assert.Zero(t, wallet.Balance)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	base := &RegisterInput{
		Username:    "khoudia",
		Email:       "khoudia@example.com",
		Password:    "s3cret-pass",
		PhoneNumber: "+221770000002",
	}
	_, err := svc.Register(ctx, base)
	require.NoError(t, err)

	dup := *base
	dup.Email = "other@example.com"
	dup.PhoneNumber = "+221770000003"
	_, err = svc.Register(ctx, &dup)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	dup = *base
	dup.Username = "other"
	dup.PhoneNumber = "+221770000003"
	_, err = svc.Register(ctx, &dup)
	assert.ErrorIs(t, err, ErrEmailTaken)

	dup = *base
	dup.Username = "other"
	dup.Email = "other@example.com"
	_, err = svc.Register(ctx, &dup)
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{
		Username:    "short",
		Email:       "short@example.com",
		Password:    "short",
		PhoneNumber: "+221770000004",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, &RegisterInput{
		Username:    "alien",
		Email:       "alien@example.com",
		Password:    "s3cret-pass",
		PhoneNumber: "+221770000005",
		UserType:    "robot",
	})
	assert.ErrorIs(t, err, ErrInvalidUserType)
}

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	user := createTestUser(t, db, "lookup")

	found, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, found.Username)

	_, err = svc.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
