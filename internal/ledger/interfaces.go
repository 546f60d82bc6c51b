// Package ledger implements the coin ledger service. Every balance mutation
// runs in a single database transaction that locks the balance row, applies
// the change, appends a log entry, and enqueues an activity event through the
// transactional outbox.
package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/novelreads-coin-ledger/internal/domain/coin"
)

// CreditRequest describes a balance increase
type CreditRequest struct {
	UserID        int64
	Type          coin.TransactionType
	Amount        int64
	Description   string
	ReferenceID   string
	CorrelationID string
}

// DebitRequest describes a balance decrease. Debits are always SPEND entries.
type DebitRequest struct {
	UserID        int64
	Amount        int64
	Description   string
	ReferenceID   string
	CorrelationID string
}

// Service defines the coin ledger operations. Credit and Debit manage their
// own transaction; ApplyCredit and ApplyDebit run inside a caller-owned
// transaction so unlock and payment reconciliation can combine a balance
// mutation with their own writes atomically.
type Service interface {
	Credit(ctx context.Context, req CreditRequest) (*coin.Entry, error)
	Debit(ctx context.Context, req DebitRequest) (*coin.Entry, error)

	ApplyCredit(ctx context.Context, tx pgx.Tx, req CreditRequest) (*coin.Entry, error)
	ApplyDebit(ctx context.Context, tx pgx.Tx, req DebitRequest) (*coin.Entry, error)

	UserCoins(ctx context.Context, userID int64) (*coin.Balance, error)
	HasEnoughCoins(ctx context.Context, userID, amount int64) (bool, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]*coin.Entry, int64, error)
}
