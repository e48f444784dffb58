package domain

// TontineStatus represents the lifecycle state of a tontine
type TontineStatus string

const (
	TontineDraft     TontineStatus = "draft"
	TontineActive    TontineStatus = "active"
	TontinePaused    TontineStatus = "paused"
	TontineCompleted TontineStatus = "completed"
)

// MemberStatus represents the membership state inside a tontine
type MemberStatus string

const (
	MemberPending   MemberStatus = "pending"
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

// MemberRole represents the role a member holds inside a tontine
type MemberRole string

const (
	RoleMember        MemberRole = "member"
	RoleTreasurer     MemberRole = "treasurer"
	RoleSecretary     MemberRole = "secretary"
	RoleVicePresident MemberRole = "vice_president"
	RolePresident     MemberRole = "president"
)

// ValidMemberRole reports whether role is one of the known roles
func ValidMemberRole(role MemberRole) bool {
	switch role {
	case RoleMember, RoleTreasurer, RoleSecretary, RoleVicePresident, RolePresident:
		return true
	}
	return false
}

// ValidMemberStatus reports whether status is one of the known member states
func ValidMemberStatus(status MemberStatus) bool {
	switch status {
	case MemberPending, MemberActive, MemberSuspended:
		return true
	}
	return false
}

// TransactionType classifies ledger entries
type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
	TxPayment  TransactionType = "payment"
	TxTransfer TransactionType = "transfer"
)

// TransactionStatus tracks the settlement state of a ledger entry.
// Local wallet moves settle immediately; gateway-backed entries stay pending
// until the aggregator webhook confirms or fails them.
type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
)

// UserType mirrors the account categories of the platform
type UserType string

const (
	UserAdmin      UserType = "admin"
	UserWoman      UserType = "woman"
	UserMan        UserType = "man"
	UserChild      UserType = "child"
	UserRuralWoman UserType = "rural_woman"
	UserStudent    UserType = "student"
	UserCommunity  UserType = "community"
	UserManager    UserType = "manager"
)

// ValidUserType reports whether t is one of the known account categories
func ValidUserType(t UserType) bool {
	switch t {
	case UserAdmin, UserWoman, UserMan, UserChild, UserRuralWoman, UserStudent, UserCommunity, UserManager:
		return true
	}
	return false
}
