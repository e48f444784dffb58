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

func newLedgerService(db *gorm.DB) *LedgerService {
	r := newTestRepos(db)
	return NewLedgerService(db, r.wallets, r.vaults, r.transactions)
}

func TestLedgerCreditCreatesWalletLazily(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "aisha")

	entry, err := svc.Credit(ctx, user.ID, 1500, domain.TxDeposit, "first deposit")
	require.NoError(t, err)
	require.NotNil(t, entry.WalletID)

	assert.Equal(t, 1500.0, walletBalance(t, db, *entry.WalletID))
	assert.Equal(t, string(domain.TxStatusCompleted), entry.Status)
}

func TestLedgerDebitInsufficientFundsLeavesBalance(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "mariam")
	wallet := createTestWallet(t, db, user.ID, 1000)

	_, err := svc.Debit(ctx, user.ID, 2500, domain.TxWithdraw, "too much")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 1000.0, walletBalance(t, db, wallet.ID))

	// No orphan ledger entry either
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLedgerDebitRecordsEntry(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "fanta")
	wallet := createTestWallet(t, db, user.ID, 5000)

	entry, err := svc.Debit(ctx, user.ID, 2000, domain.TxWithdraw, "cash out")
	require.NoError(t, err)

	assert.Equal(t, 3000.0, walletBalance(t, db, wallet.ID))
	assert.Equal(t, string(domain.TxWithdraw), entry.Type)
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "zara")

	_, err := svc.Credit(ctx, user.ID, 0, domain.TxDeposit, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Debit(ctx, user.ID, -5, domain.TxWithdraw, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestVaultCreateWithInitialFunding(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "awa")
	wallet := createTestWallet(t, db, user.ID, 10000)

	vault, err := svc.CreateVault(ctx, user.ID, &CreateVaultInput{
		Name:          "School fees",
		InitialAmount: 4000,
	})
	require.NoError(t, err)

	assert.Equal(t, 4000.0, vault.Balance)
	assert.Equal(t, 6000.0, walletBalance(t, db, wallet.ID))

	// The move shows up as a single transfer entry
	var entries []models.Transaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, string(domain.TxTransfer), entries[0].Type)
}

func TestVaultDepositInsufficientWallet(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "bintou")
	wallet := createTestWallet(t, db, user.ID, 500)

	vault, err := svc.CreateVault(ctx, user.ID, &CreateVaultInput{Name: "Rainy day"})
	require.NoError(t, err)

	err = svc.DepositToVault(ctx, user.ID, vault.ID, 800)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 500.0, walletBalance(t, db, wallet.ID))

	var fresh models.Vault
	require.NoError(t, db.First(&fresh, vault.ID).Error)
	assert.Zero(t, fresh.Balance)
}

func TestVaultWithdrawRefusedWhileLocked(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "rokia")
	createTestWallet(t, db, user.ID, 10000)

	lockedUntil := time.Now().AddDate(0, 1, 0)
	vault, err := svc.CreateVault(ctx, user.ID, &CreateVaultInput{
		Name:          "Locked savings",
		LockedUntil:   &lockedUntil,
		InitialAmount: 3000,
	})
	require.NoError(t, err)

	err = svc.WithdrawFromVault(ctx, user.ID, vault.ID, 1000)
	assert.ErrorIs(t, err, domain.ErrVaultLocked)

	var fresh models.Vault
	require.NoError(t, db.First(&fresh, vault.ID).Error)
	assert.Equal(t, 3000.0, fresh.Balance)
}

func TestVaultWithdrawAfterLockExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "djeneba")
	wallet := createTestWallet(t, db, user.ID, 10000)

	expired := time.Now().AddDate(0, 0, -1)
	vault, err := svc.CreateVault(ctx, user.ID, &CreateVaultInput{
		Name:          "Matured savings",
		LockedUntil:   &expired,
		InitialAmount: 3000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.WithdrawFromVault(ctx, user.ID, vault.ID, 2000))

	assert.Equal(t, 9000.0, walletBalance(t, db, wallet.ID))
}

func TestVaultNotVisibleToOtherUsers(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "oumou")
	stranger := createTestUser(t, db, "kadia")
	createTestWallet(t, db, owner.ID, 5000)
	createTestWallet(t, db, stranger.ID, 5000)

	vault, err := svc.CreateVault(ctx, owner.ID, &CreateVaultInput{Name: "Private"})
	require.NoError(t, err)

	err = svc.DepositToVault(ctx, stranger.ID, vault.ID, 100)
	assert.ErrorIs(t, err, domain.ErrVaultNotFound)
}

func TestWalletOverview(t *testing.T) {
	db := newTestDB(t)
	svc := newLedgerService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "salimata")
	createTestWallet(t, db, user.ID, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Credit(ctx, user.ID, 1000, domain.TxDeposit, "top up")
		require.NoError(t, err)
	}
	_, err := svc.CreateVault(ctx, user.ID, &CreateVaultInput{Name: "Goal", InitialAmount: 500})
	require.NoError(t, err)

	overview, err := svc.Overview(ctx, user.ID, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, overview.Wallet.Balance)
	assert.Len(t, overview.Vaults, 1)
	assert.Len(t, overview.Transactions, 2)
	assert.Equal(t, int64(4), overview.Total)
}
