// Package payment models coin purchase payments reconciled against an
// external gateway. A payment starts PENDING and moves exactly once to a
// terminal status; the coin credit happens only on the transition to
// COMPLETED.
package payment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Method identifies the payment channel
type Method string

const (
	MethodGateway Method = "GATEWAY"
	MethodManual  Method = "MANUAL"
)

// Payment is one coin purchase attempt. TransactionRef is the merchant-side
// reference echoed back by the gateway callback and is unique per payment.
type Payment struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	TransactionRef string          `json:"transaction_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Coins          int64           `json:"coins"`
	Method         Method          `json:"method"`
	Status         Status          `json:"status"`
	PackageID      *int64          `json:"package_id,omitempty"`
	PayURL         string          `json:"pay_url,omitempty"`
	GatewayCode    string          `json:"gateway_code,omitempty"`
	CallbackData   string          `json:"callback_data,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewPayment creates a pending payment for the given amount and coin total
func NewPayment(userID int64, transactionRef string, amount decimal.Decimal, coins int64, packageID *int64) *Payment {
	now := time.Now()
	return &Payment{
		UserID:         userID,
		TransactionRef: transactionRef,
		Amount:         amount,
		Coins:          coins,
		Method:         MethodGateway,
		Status:         StatusPending,
		PackageID:      packageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Transition moves the payment to a terminal status. Only PENDING payments
// may transition; a second transition attempt is a state error, which
// reconciliation uses to detect replayed callbacks.
func (p *Payment) Transition(to Status, gatewayCode string) error {
	if !to.Terminal() {
		return fmt.Errorf("cannot transition payment %s to non-terminal status %s", p.TransactionRef, to)
	}
	if p.Status != StatusPending {
		return ErrAlreadyReconciled{TransactionRef: p.TransactionRef, Status: p.Status}
	}
	p.Status = to
	p.GatewayCode = gatewayCode
	p.UpdatedAt = time.Now()
	if to == StatusCompleted {
		completedAt := p.UpdatedAt
		p.CompletedAt = &completedAt
	}
	return nil
}
