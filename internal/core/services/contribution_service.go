package services

import (
	"context"
	"errors"
	"fmt"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContributionService records member contributions. Each call is a
// deliberate new contribution; there is no dedup.
type ContributionService struct {
	db               *gorm.DB
	tontineRepo      *repositories.TontineRepository
	memberRepo       *repositories.MemberRepository
	contributionRepo *repositories.ContributionRepository
	walletRepo       *repositories.WalletRepository
	transactionRepo  *repositories.TransactionRepository
}

// NewContributionService creates a new contribution service
func NewContributionService(
	db *gorm.DB,
	tontineRepo *repositories.TontineRepository,
	memberRepo *repositories.MemberRepository,
	contributionRepo *repositories.ContributionRepository,
	walletRepo *repositories.WalletRepository,
	transactionRepo *repositories.TransactionRepository,
) *ContributionService {
	return &ContributionService{
		db:               db,
		tontineRepo:      tontineRepo,
		memberRepo:       memberRepo,
		contributionRepo: contributionRepo,
		walletRepo:       walletRepo,
		transactionRepo:  transactionRepo,
	}
}

// loadActiveTontineAndMember applies the shared guards: the tontine must be
// active and the caller an active member of it.
func (s *ContributionService) loadActiveTontineAndMember(ctx context.Context, tontineID, userID uint) (*models.Tontine, *models.TontineMember, error) {
	tontine, err := s.tontineRepo.GetByID(ctx, tontineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrTontineNotFound
		}
		return nil, nil, err
	}
	if tontine.Status != string(domain.TontineActive) {
		return nil, nil, domain.ErrTontineNotActive
	}

	member, err := s.memberRepo.GetByTontineAndUser(ctx, tontineID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrMemberNotFound
		}
		return nil, nil, err
	}
	if !member.IsActive() {
		return nil, nil, domain.ErrMemberNotActive
	}
	return tontine, member, nil
}

// Record appends a contribution of the tontine's fixed amount for the user
// and rolls the member and pot totals forward in the same transaction.
func (s *ContributionService) Record(ctx context.Context, tontineID, userID uint) (*models.Contribution, error) {
	tontine, member, err := s.loadActiveTontineAndMember(ctx, tontineID, userID)
	if err != nil {
		return nil, err
	}

	contribution := &models.Contribution{
		TontineID: tontine.ID,
		MemberID:  member.ID,
		Amount:    tontine.ContributionAmount,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.contributionRepo.WithTx(tx).Create(ctx, contribution); err != nil {
			return err
		}
		if err := s.memberRepo.WithTx(tx).IncrementContributed(ctx, member.ID, contribution.Amount); err != nil {
			return err
		}
		return s.tontineRepo.WithTx(tx).IncrementPot(ctx, tontine.ID, contribution.Amount)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tontine_id": tontine.ID,
		"member_id":  member.ID,
		"amount":     contribution.Amount,
	}).Info("contribution recorded")

	return contribution, nil
}

// PayFromWallet records a contribution paid out of the user's wallet: the
// wallet debit, its payment ledger entry, the contribution and both running
// totals commit as one atomic unit.
func (s *ContributionService) PayFromWallet(ctx context.Context, tontineID, userID uint) (*models.Contribution, error) {
	tontine, member, err := s.loadActiveTontineAndMember(ctx, tontineID, userID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	amount := tontine.ContributionAmount
	contribution := &models.Contribution{
		TontineID: tontine.ID,
		MemberID:  member.ID,
		Amount:    amount,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.walletRepo.WithTx(tx).Debit(ctx, wallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		entry := &models.Transaction{
			UserID:   userID,
			WalletID: &wallet.ID,
			Amount:   amount,
			Type:     string(domain.TxPayment),
			Status:   string(domain.TxStatusCompleted),
			Note:     fmt.Sprintf("Contribution to tontine %s (%s)", tontine.Name, tontine.Code),
		}
		if err := s.transactionRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		if err := s.contributionRepo.WithTx(tx).Create(ctx, contribution); err != nil {
			return err
		}
		if err := s.memberRepo.WithTx(tx).IncrementContributed(ctx, member.ID, amount); err != nil {
			return err
		}
		return s.tontineRepo.WithTx(tx).IncrementPot(ctx, tontine.ID, amount)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tontine_id": tontine.ID,
		"member_id":  member.ID,
		"amount":     amount,
	}).Info("contribution paid from wallet")

	return contribution, nil
}
