package payment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repository manages payment persistence. GetByTransactionRefForUpdate locks
// the payment row so reconciliation reads the status and applies the credit
// under the same lock.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByTransactionRef(ctx context.Context, transactionRef string) (*Payment, error)
	GetByTransactionRefForUpdate(ctx context.Context, transactionRef string) (*Payment, error)
	UpdateStatus(ctx context.Context, payment *Payment) error
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Payment, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// PackageRepository serves the coin package catalog
type PackageRepository interface {
	GetByID(ctx context.Context, id int64) (*CoinPackage, error)
	ListActive(ctx context.Context) ([]*CoinPackage, error)
}

// ErrPaymentNotFound indicates no payment exists for the transaction reference
type ErrPaymentNotFound struct {
	TransactionRef string
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.TransactionRef
}

// Is matches any ErrPaymentNotFound when the target carries no reference
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	if t.TransactionRef == "" {
		return true
	}
	return e.TransactionRef == t.TransactionRef
}

// ErrPackageNotFound indicates no active coin package exists for the ID
type ErrPackageNotFound struct {
	PackageID int64
}

func (e ErrPackageNotFound) Error() string {
	return fmt.Sprintf("coin package not found: %d", e.PackageID)
}

// Is matches any ErrPackageNotFound when the target carries a zero ID
func (e ErrPackageNotFound) Is(target error) bool {
	t, ok := target.(ErrPackageNotFound)
	if !ok {
		return false
	}
	if t.PackageID == 0 {
		return true
	}
	return e.PackageID == t.PackageID
}

// ErrAlreadyReconciled indicates the payment already reached a terminal
// status. Replayed gateway callbacks surface this and are acknowledged
// without a second credit.
type ErrAlreadyReconciled struct {
	TransactionRef string
	Status         Status
}

func (e ErrAlreadyReconciled) Error() string {
	return fmt.Sprintf("payment %s already reconciled with status %s", e.TransactionRef, e.Status)
}

// Is matches any ErrAlreadyReconciled when the target carries no reference
func (e ErrAlreadyReconciled) Is(target error) bool {
	t, ok := target.(ErrAlreadyReconciled)
	if !ok {
		return false
	}
	if t.TransactionRef == "" {
		return true
	}
	return e.TransactionRef == t.TransactionRef
}
