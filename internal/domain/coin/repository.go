package coin

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository defines balance persistence operations. Mutations only
// happen through the ledger service, which acquires the row lock first.
type BalanceRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*Balance, error)

	// UpsertForUpdate creates the balance row if it does not exist yet and
	// returns it locked for the duration of the surrounding transaction.
	// Lazy creation is an explicit upsert so the first ledger operation for
	// a user is visible in the write path, not a side effect of a getter.
	UpsertForUpdate(ctx context.Context, userID int64) (*Balance, error)

	// Update persists a mutated balance using an optimistic version check
	Update(ctx context.Context, balance *Balance) error

	WithTx(tx pgx.Tx) BalanceRepository
}

// EntryRepository manages the append-only transaction log
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Entry, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	WithTx(tx pgx.Tx) EntryRepository
}

// ErrBalanceNotFound indicates no balance row exists for the user yet.
// Read paths treat this as a zero balance.
type ErrBalanceNotFound struct {
	UserID int64
}

func (e ErrBalanceNotFound) Error() string {
	return "balance not found for user: " + strconv.FormatInt(e.UserID, 10)
}

// Is matches any ErrBalanceNotFound when the target carries no user ID
func (e ErrBalanceNotFound) Is(target error) bool {
	t, ok := target.(ErrBalanceNotFound)
	if !ok {
		return false
	}
	if t.UserID == 0 {
		return true
	}
	return e.UserID == t.UserID
}

// ErrConcurrentModification indicates optimistic lock failure on a balance row
type ErrConcurrentModification struct {
	UserID int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for balance of user: " + strconv.FormatInt(e.UserID, 10)
}
