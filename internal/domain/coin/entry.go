package coin

import (
	"fmt"
	"time"
)

// TransactionType classifies ledger mutations. Credit types carry positive
// amounts, SPEND carries negative amounts.
type TransactionType string

const (
	TransactionTypePurchase    TransactionType = "PURCHASE"     // Coins bought through the payment gateway
	TransactionTypeSpend       TransactionType = "SPEND"        // Coins spent unlocking chapters
	TransactionTypeRefund      TransactionType = "REFUND"       // Admin-initiated refund
	TransactionTypeBonus       TransactionType = "BONUS"        // Promotional credit
	TransactionTypeAdminAdjust TransactionType = "ADMIN_ADJUST" // Manual correction
)

// IsCredit reports whether the type increases the balance
func (t TransactionType) IsCredit() bool {
	return t != TransactionTypeSpend
}

// Valid reports whether the type is one of the known ledger mutation kinds
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeSpend, TransactionTypeRefund,
		TransactionTypeBonus, TransactionTypeAdminAdjust:
		return true
	}
	return false
}

// Entry is one immutable row of the transaction log. Amount is signed:
// positive for credits, negative for debits. BalanceAfter always equals
// BalanceBefore + Amount.
type Entry struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	Description   string          `json:"description,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEntry builds a log entry for a balance mutation. The signed amount is
// derived from the type direction so callers always pass a positive magnitude.
func NewEntry(userID int64, txType TransactionType, amount int64, balanceBefore int64, description, referenceID string) (*Entry, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("unknown transaction type: %s", txType)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	signed := amount
	if !txType.IsCredit() {
		signed = -amount
	}

	return &Entry{
		UserID:        userID,
		Type:          txType,
		Amount:        signed,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + signed,
		Description:   description,
		ReferenceID:   referenceID,
		CreatedAt:     time.Now(),
	}, nil
}
