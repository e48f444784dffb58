package models

import (
	"time"

	"gorm.io/gorm"

	"tontinepro/internal/core/domain"
)

// ============================================================
// Accounts
// ============================================================

// User represents users table
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	FullName    string         `gorm:"size:150" json:"full_name"`
	PhoneNumber string         `gorm:"uniqueIndex;size:20;not null" json:"phone_number"`
	UserType    string         `gorm:"size:20;default:'woman'" json:"user_type"`
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	UserType    string    `json:"user_type"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		UserType:    u.UserType,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

// ============================================================
// Tontines
// ============================================================

// Tontine represents tontines table
type Tontine struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"size:200;not null" json:"name"`
	Code               string     `gorm:"uniqueIndex;size:10;not null" json:"code"`
	Description        string     `gorm:"type:text" json:"description"`
	ManagerID          uint       `gorm:"not null;index" json:"manager_id"`
	Status             string     `gorm:"size:20;not null;default:'draft'" json:"status"`
	ContributionAmount float64    `gorm:"type:decimal(12,2);not null" json:"contribution_amount"`
	TotalPot           float64    `gorm:"type:decimal(15,2);not null;default:0" json:"total_pot"`
	CycleDuration      int        `gorm:"not null;default:30" json:"cycle_duration"`
	MeetingSchedule    string     `gorm:"size:100" json:"meeting_schedule"`
	MeetingLocation    string     `gorm:"size:200" json:"meeting_location"`
	StartDate          time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate            *time.Time `gorm:"type:date" json:"end_date"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Manager *User           `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Members []TontineMember `gorm:"foreignKey:TontineID" json:"members,omitempty"`
}

func (Tontine) TableName() string {
	return "tontines"
}

// TontineMember represents tontine_members table.
// One row per (tontine, user); removal is a hard delete.
type TontineMember struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TontineID        uint      `gorm:"not null;uniqueIndex:idx_tontine_user" json:"tontine_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_tontine_user" json:"user_id"`
	Role             string    `gorm:"size:20;not null;default:'member'" json:"role"`
	Status           string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	TotalContributed float64   `gorm:"type:decimal(12,2);not null;default:0" json:"total_contributed"`
	JoinedDate       time.Time `gorm:"autoCreateTime" json:"joined_date"`

	// Relations
	Tontine *Tontine `gorm:"foreignKey:TontineID" json:"tontine,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TontineMember) TableName() string {
	return "tontine_members"
}

// IsActive reports whether the membership has been approved by the manager
func (m *TontineMember) IsActive() bool {
	return m.Status == string(domain.MemberActive)
}

// Contribution represents contributions table (append-only)
type Contribution struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TontineID uint      `gorm:"not null;index" json:"tontine_id"`
	MemberID  uint      `gorm:"not null;index" json:"member_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Tontine *Tontine       `gorm:"foreignKey:TontineID" json:"tontine,omitempty"`
	Member  *TontineMember `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Contribution) TableName() string {
	return "contributions"
}

// BeneficiaryAllocation represents beneficiary_allocations table.
// Unique per (tontine, member, cycle): nobody receives twice before the
// cycle is exhausted.
type BeneficiaryAllocation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TontineID     uint      `gorm:"not null;uniqueIndex:idx_alloc_cycle" json:"tontine_id"`
	MemberID      uint      `gorm:"not null;uniqueIndex:idx_alloc_cycle" json:"member_id"`
	CycleNumber   int       `gorm:"not null;uniqueIndex:idx_alloc_cycle" json:"cycle_number"`
	Amount        float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	AllocatedDate time.Time `gorm:"autoCreateTime" json:"allocated_date"`

	// Relations
	Tontine *Tontine       `gorm:"foreignKey:TontineID" json:"tontine,omitempty"`
	Member  *TontineMember `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (BeneficiaryAllocation) TableName() string {
	return "beneficiary_allocations"
}

// ============================================================
// Ledger
// ============================================================

// Wallet represents wallets table (one per user, created lazily)
type Wallet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   float64   `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Vault represents vaults table (segregated savings pockets)
type Vault struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Balance     float64    `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	LockedUntil *time.Time `gorm:"type:date" json:"locked_until"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Vault) TableName() string {
	return "vaults"
}

// IsLocked reports whether the vault refuses withdrawals at time now
func (v *Vault) IsLocked(now time.Time) bool {
	if v.LockedUntil == nil {
		return false
	}
	return now.Before(*v.LockedUntil)
}

// Transaction represents transactions table (immutable audit trail).
// Every balance mutation is paired with exactly one row here. GatewayRef
// carries the aggregator transaction id for gateway-backed entries and is
// what webhooks resolve against.
type Transaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	WalletID   *uint     `gorm:"index" json:"wallet_id"`
	VaultID    *uint     `gorm:"index" json:"vault_id"`
	Amount     float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type       string    `gorm:"size:20;not null" json:"type"`
	Status     string    `gorm:"size:20;not null;default:'completed';index" json:"status"`
	GatewayRef string    `gorm:"size:128;index" json:"gateway_ref,omitempty"`
	Note       string    `gorm:"size:255" json:"note"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	User   *User   `gorm:"foreignKey:UserID" json:"-"`
	Wallet *Wallet `gorm:"foreignKey:WalletID" json:"-"`
	Vault  *Vault  `gorm:"foreignKey:VaultID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsPending reports whether the entry still awaits webhook settlement
func (t *Transaction) IsPending() bool {
	return t.Status == string(domain.TxStatusPending)
}

// ProcessedWebhook represents processed_webhooks table.
// One row per (event, gateway_ref) delivery already applied; re-deliveries
// from the aggregator hit the unique index and are ignored.
type ProcessedWebhook struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Event      string    `gorm:"size:50;not null;uniqueIndex:idx_event_ref" json:"event"`
	GatewayRef string    `gorm:"size:128;not null;uniqueIndex:idx_event_ref" json:"gateway_ref"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ProcessedWebhook) TableName() string {
	return "processed_webhooks"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Accounts
		&User{},
		// Tontines
		&Tontine{},
		&TontineMember{},
		&Contribution{},
		&BeneficiaryAllocation{},
		// Ledger
		&Wallet{},
		&Vault{},
		&Transaction{},
		&ProcessedWebhook{},
	)
}
