// Package coin holds the ledger domain model: per-user coin balances and the
// append-only transaction log that records every mutation.
package coin

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInsufficientCoins = errors.New("insufficient coins for debit")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Balance represents a user's spendable coin count. One row exists per user,
// created lazily on the first ledger operation. Coins never go negative.
type Balance struct {
	UserID    int64     `json:"user_id"`
	Coins     int64     `json:"coins"`
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBalance creates an empty balance for a user. Balances always start at
// zero; the first credit follows as a separate ledger operation.
func NewBalance(userID int64) *Balance {
	now := time.Now()
	return &Balance{
		UserID:    userID,
		Coins:     0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds the specified amount to the balance
func (b *Balance) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	b.Coins += amount
	b.UpdatedAt = time.Now()
	b.Version++
	return nil
}

// Debit subtracts the specified amount from the balance. It refuses to
// overdraw: the caller treats ErrInsufficientCoins as a declined operation.
func (b *Balance) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if b.Coins < amount {
		return ErrInsufficientCoins
	}

	b.Coins -= amount
	b.UpdatedAt = time.Now()
	b.Version++
	return nil
}

// CanSpend checks whether the balance covers the required amount
func (b *Balance) CanSpend(amount int64) bool {
	return b.Coins >= amount
}
