package services

import (
	"context"
	"errors"
	"strings"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"
	"tontinepro/internal/pkg/password"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// User service errors
var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrPhoneTaken      = errors.New("phone number already registered")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidUserType = errors.New("invalid user type")
	ErrUserNotFound    = errors.New("user not found")
)

// UserService handles user accounts
type UserService struct {
	userRepo   repositories.UserRepository
	walletRepo *repositories.WalletRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, walletRepo *repositories.WalletRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		walletRepo: walletRepo,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type,omitempty"`
}

// Register creates a user with a hashed password and provisions a wallet
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	userType := input.UserType
	if userType == "" {
		userType = string(domain.UserWoman)
	}
	if !domain.ValidUserType(domain.UserType(userType)) {
		return nil, ErrInvalidUserType
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if taken, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.userRepo.ExistsByPhone(ctx, input.PhoneNumber); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrPhoneTaken
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    hashed,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		UserType:    userType,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Wallet is provisioned at registration so every account can
	// transact without a lazy-create on the first ledger touch.
	if _, err := s.walletRepo.GetOrCreate(ctx, user.ID); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")

	return user, nil
}

// GetByID returns a user by id
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns users with pagination
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, offset, limit)
}
