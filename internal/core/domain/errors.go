package domain

import "errors"

// Ledger errors
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrVaultNotFound       = errors.New("vault not found")
	ErrVaultLocked         = errors.New("vault is locked")
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Tontine errors
var (
	ErrTontineNotFound         = errors.New("tontine not found")
	ErrTontineNotActive        = errors.New("tontine is not active")
	ErrMemberNotFound          = errors.New("member not found")
	ErrMemberNotActive         = errors.New("member is not active")
	ErrAlreadyReceivedThisCycle = errors.New("member already received the pot this cycle")
)

// Payment gateway errors
var (
	ErrSignatureMismatch     = errors.New("webhook signature mismatch")
	ErrAggregatorUnavailable = errors.New("payment aggregator unavailable")
	ErrAggregatorRejected    = errors.New("payment aggregator rejected the request")
)
