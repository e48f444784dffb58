package services

import (
	"fmt"
	"testing"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
// Max one open connection, otherwise every pooled connection would see its
// own empty :memory: database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// testRepos bundles the repositories most tests need
type testRepos struct {
	users         repositories.UserRepository
	tontines      *repositories.TontineRepository
	members       *repositories.MemberRepository
	contributions *repositories.ContributionRepository
	allocations   *repositories.AllocationRepository
	wallets       *repositories.WalletRepository
	vaults        *repositories.VaultRepository
	transactions  *repositories.TransactionRepository
}

func newTestRepos(db *gorm.DB) *testRepos {
	return &testRepos{
		users:         repositories.NewUserRepository(db),
		tontines:      repositories.NewTontineRepository(db),
		members:       repositories.NewMemberRepository(db),
		contributions: repositories.NewContributionRepository(db),
		allocations:   repositories.NewAllocationRepository(db),
		wallets:       repositories.NewWalletRepository(db),
		vaults:        repositories.NewVaultRepository(db),
		transactions:  repositories.NewTransactionRepository(db),
	}
}

var testSeq int

func nextSeq() int {
	testSeq++
	return testSeq
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	seq := nextSeq()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "not-a-real-hash",
		PhoneNumber: fmt.Sprintf("+2299000%04d", seq),
		UserType:    string(domain.UserWoman),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestWallet(t *testing.T, db *gorm.DB, userID uint, balance float64) *models.Wallet {
	t.Helper()
	wallet := &models.Wallet{UserID: userID, Balance: balance}
	require.NoError(t, db.Create(wallet).Error)
	return wallet
}

func createTestTontine(t *testing.T, db *gorm.DB, managerID uint, status domain.TontineStatus, amount float64) *models.Tontine {
	t.Helper()
	tontine := &models.Tontine{
		Name:               "Market Women Circle",
		Code:               fmt.Sprintf("T%04d", nextSeq()),
		ManagerID:          managerID,
		Status:             string(status),
		ContributionAmount: amount,
		CycleDuration:      30,
		StartDate:          time.Now(),
	}
	require.NoError(t, db.Create(tontine).Error)
	return tontine
}

func addTestMember(t *testing.T, db *gorm.DB, tontineID, userID uint, status domain.MemberStatus) *models.TontineMember {
	t.Helper()
	member := &models.TontineMember{
		TontineID: tontineID,
		UserID:    userID,
		Role:      string(domain.RoleMember),
		Status:    string(status),
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func walletBalance(t *testing.T, db *gorm.DB, walletID uint) float64 {
	t.Helper()
	var wallet models.Wallet
	require.NoError(t, db.First(&wallet, walletID).Error)
	return wallet.Balance
}
