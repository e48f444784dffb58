package services

import (
	"context"
	"errors"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LedgerService owns wallet and vault balances. Every balance move runs
// inside a database transaction together with its Transaction row: either
// both land or neither does.
type LedgerService struct {
	db              *gorm.DB
	walletRepo      *repositories.WalletRepository
	vaultRepo       *repositories.VaultRepository
	transactionRepo *repositories.TransactionRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *gorm.DB,
	walletRepo *repositories.WalletRepository,
	vaultRepo *repositories.VaultRepository,
	transactionRepo *repositories.TransactionRepository,
) *LedgerService {
	return &LedgerService{
		db:              db,
		walletRepo:      walletRepo,
		vaultRepo:       vaultRepo,
		transactionRepo: transactionRepo,
	}
}

// GetOrCreateWallet returns the user's wallet, creating it on first use
func (s *LedgerService) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return s.walletRepo.GetOrCreate(ctx, userID)
}

// Credit adds amount to the user's wallet and records the ledger entry
func (s *LedgerService) Credit(ctx context.Context, userID uint, amount float64, txType domain.TransactionType, note string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		UserID:   userID,
		WalletID: &wallet.ID,
		Amount:   amount,
		Type:     string(txType),
		Status:   string(domain.TxStatusCompleted),
		Note:     note,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.WithTx(tx).Credit(ctx, wallet.ID, amount); err != nil {
			return err
		}
		return s.transactionRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"type":    txType,
	}).Info("wallet credited")

	return entry, nil
}

// Debit subtracts amount from the user's wallet and records the ledger
// entry. Fails with ErrInsufficientFunds without touching the balance.
func (s *LedgerService) Debit(ctx context.Context, userID uint, amount float64, txType domain.TransactionType, note string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	entry := &models.Transaction{
		UserID:   userID,
		WalletID: &wallet.ID,
		Amount:   amount,
		Type:     string(txType),
		Status:   string(domain.TxStatusCompleted),
		Note:     note,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.walletRepo.WithTx(tx).Debit(ctx, wallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		return s.transactionRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"type":    txType,
	}).Info("wallet debited")

	return entry, nil
}

// CreateVaultInput represents vault creation input
type CreateVaultInput struct {
	Name          string     `json:"name"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	InitialAmount float64    `json:"initial_amount,omitempty"`
}

// CreateVault creates a savings vault, optionally funding it from the wallet
func (s *LedgerService) CreateVault(ctx context.Context, userID uint, input *CreateVaultInput) (*models.Vault, error) {
	vault := &models.Vault{
		OwnerID:     userID,
		Name:        input.Name,
		LockedUntil: input.LockedUntil,
	}
	if err := s.vaultRepo.Create(ctx, vault); err != nil {
		return nil, err
	}

	if input.InitialAmount > 0 {
		if err := s.DepositToVault(ctx, userID, vault.ID, input.InitialAmount); err != nil {
			return nil, err
		}
		vault.Balance = input.InitialAmount
	}
	return vault, nil
}

// DepositToVault moves amount from the user's wallet into a vault. Both legs
// plus the transfer ledger entry commit as one unit.
func (s *LedgerService) DepositToVault(ctx context.Context, userID, vaultID uint, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrWalletNotFound
		}
		return err
	}

	vault, err := s.vaultRepo.GetByIDAndOwner(ctx, vaultID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrVaultNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.walletRepo.WithTx(tx).Debit(ctx, wallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		if err := s.vaultRepo.WithTx(tx).Credit(ctx, vault.ID, amount); err != nil {
			return err
		}
		return s.transactionRepo.WithTx(tx).Create(ctx, &models.Transaction{
			UserID:   userID,
			WalletID: &wallet.ID,
			VaultID:  &vault.ID,
			Amount:   amount,
			Type:     string(domain.TxTransfer),
			Status:   string(domain.TxStatusCompleted),
			Note:     "Transfer to vault " + vault.Name,
		})
	})
}

// WithdrawFromVault moves amount from a vault back into the user's wallet.
// Refused while the vault is locked.
func (s *LedgerService) WithdrawFromVault(ctx context.Context, userID, vaultID uint, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	vault, err := s.vaultRepo.GetByIDAndOwner(ctx, vaultID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrVaultNotFound
		}
		return err
	}
	if vault.IsLocked(time.Now()) {
		return domain.ErrVaultLocked
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.vaultRepo.WithTx(tx).Debit(ctx, vault.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		if err := s.walletRepo.WithTx(tx).Credit(ctx, wallet.ID, amount); err != nil {
			return err
		}
		return s.transactionRepo.WithTx(tx).Create(ctx, &models.Transaction{
			UserID:   userID,
			WalletID: &wallet.ID,
			VaultID:  &vault.ID,
			Amount:   amount,
			Type:     string(domain.TxTransfer),
			Status:   string(domain.TxStatusCompleted),
			Note:     "Transfer from vault " + vault.Name,
		})
	})
}

// WalletOverview represents the wallet page aggregate
type WalletOverview struct {
	Wallet       *models.Wallet        `json:"wallet"`
	Vaults       []*models.Vault       `json:"vaults"`
	Transactions []*models.Transaction `json:"transactions"`
	Total        int64                 `json:"total_transactions"`
}

// Overview returns the user's wallet, vaults and recent ledger entries
func (s *LedgerService) Overview(ctx context.Context, userID uint, offset, limit int) (*WalletOverview, error) {
	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	vaults, err := s.vaultRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, total, err := s.transactionRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	return &WalletOverview{
		Wallet:       wallet,
		Vaults:       vaults,
		Transactions: transactions,
		Total:        total,
	}, nil
}

// ListVaults lists the user's vaults
func (s *LedgerService) ListVaults(ctx context.Context, userID uint) ([]*models.Vault, error) {
	return s.vaultRepo.ListByOwner(ctx, userID)
}
