package payment

import (
	"context"
	"errors"
	"net/url"

	"github.com/shopspring/decimal"

	domain "github.com/novelreads-coin-ledger/internal/domain/payment"
)

// ErrInvalidSignature indicates a callback whose signature does not match
var ErrInvalidSignature = errors.New("invalid gateway signature")

// ErrInvalidAmount indicates a custom purchase amount below the minimum
var ErrInvalidAmount = errors.New("payment amount below the minimum")

// CreateRequest describes a new coin purchase. Either PackageID selects a
// fixed package, or Amount buys coins at the tiered custom rate.
type CreateRequest struct {
	UserID        int64
	PackageID     *int64
	Amount        decimal.Decimal
	ClientIP      string
	CorrelationID string
}

// CreateResult carries the pending payment and the signed gateway URL the
// client must be redirected to.
type CreateResult struct {
	Payment *domain.Payment
	PayURL  string
}

// ReconcileResult reports the reconciled payment. Replayed is true when the
// callback arrived for an already terminal payment; nothing was credited.
type ReconcileResult struct {
	Payment  *domain.Payment
	Replayed bool
}

// Service defines coin purchase operations
type Service interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Reconcile(ctx context.Context, params url.Values, correlationID string) (*ReconcileResult, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]*domain.Payment, int64, error)
	ListPackages(ctx context.Context) ([]*domain.CoinPackage, error)
}
