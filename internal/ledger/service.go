package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

type ledgerService struct {
	db       persistence.TxRunner
	balances coin.BalanceRepository
	entries  coin.EntryRepository
	outbox   activity.OutboxRepository
	logger   *slog.Logger
}

// NewService creates the coin ledger service
func NewService(
	logger *slog.Logger,
	db persistence.TxRunner,
	balances coin.BalanceRepository,
	entries coin.EntryRepository,
	outbox activity.OutboxRepository,
) Service {
	return &ledgerService{
		db:       db,
		balances: balances,
		entries:  entries,
		outbox:   outbox,
		logger:   logger,
	}
}

// Credit increases a user's balance in its own transaction
func (s *ledgerService) Credit(ctx context.Context, req CreditRequest) (*coin.Entry, error) {
	var entry *coin.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		entry, txErr = s.ApplyCredit(ctx, tx, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit decreases a user's balance in its own transaction
func (s *ledgerService) Debit(ctx context.Context, req DebitRequest) (*coin.Entry, error) {
	var entry *coin.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		entry, txErr = s.ApplyDebit(ctx, tx, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ApplyCredit applies a balance increase inside the caller's transaction.
// The balance row is created on first use and held locked until commit.
func (s *ledgerService) ApplyCredit(ctx context.Context, tx pgx.Tx, req CreditRequest) (*coin.Entry, error) {
	if !req.Type.Valid() || !req.Type.IsCredit() {
		return nil, fmt.Errorf("invalid credit transaction type: %s", req.Type)
	}

	balance, err := s.balances.WithTx(tx).UpsertForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	balanceBefore := balance.Coins
	if err := balance.Credit(req.Amount); err != nil {
		return nil, err
	}

	if err := s.balances.WithTx(tx).Update(ctx, balance); err != nil {
		return nil, err
	}

	entry, err := coin.NewEntry(req.UserID, req.Type, req.Amount, balanceBefore, req.Description, req.ReferenceID)
	if err != nil {
		return nil, err
	}

	if err := s.entries.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.enqueueEvent(ctx, tx, activity.KindCoinCredit, entry, req.CorrelationID); err != nil {
		return nil, err
	}

	s.logger.Info("Credited coins",
		"user_id", req.UserID,
		"type", string(req.Type),
		"amount", req.Amount,
		"balance_after", entry.BalanceAfter,
	)

	return entry, nil
}

// ApplyDebit applies a balance decrease inside the caller's transaction.
// Returns coin.ErrInsufficientCoins without writing anything when the locked
// balance cannot cover the amount.
func (s *ledgerService) ApplyDebit(ctx context.Context, tx pgx.Tx, req DebitRequest) (*coin.Entry, error) {
	balance, err := s.balances.WithTx(tx).UpsertForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	balanceBefore := balance.Coins
	if err := balance.Debit(req.Amount); err != nil {
		return nil, err
	}

	if err := s.balances.WithTx(tx).Update(ctx, balance); err != nil {
		return nil, err
	}

	entry, err := coin.NewEntry(req.UserID, coin.TransactionTypeSpend, req.Amount, balanceBefore, req.Description, req.ReferenceID)
	if err != nil {
		return nil, err
	}

	if err := s.entries.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.enqueueEvent(ctx, tx, activity.KindCoinSpend, entry, req.CorrelationID); err != nil {
		return nil, err
	}

	s.logger.Info("Debited coins",
		"user_id", req.UserID,
		"amount", req.Amount,
		"balance_after", entry.BalanceAfter,
	)

	return entry, nil
}

// UserCoins returns the user's balance. A user who never held coins gets a
// zero balance rather than an error.
func (s *ledgerService) UserCoins(ctx context.Context, userID int64) (*coin.Balance, error) {
	balance, err := s.balances.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, coin.ErrBalanceNotFound{}) {
			return coin.NewBalance(userID), nil
		}
		return nil, err
	}
	return balance, nil
}

// HasEnoughCoins reports whether the user can cover the amount. The answer is
// advisory; the authoritative check happens under the row lock in ApplyDebit.
func (s *ledgerService) HasEnoughCoins(ctx context.Context, userID, amount int64) (bool, error) {
	balance, err := s.UserCoins(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.CanSpend(amount), nil
}

// History returns a page of the user's transaction log plus the total count
func (s *ledgerService) History(ctx context.Context, userID int64, limit, offset int) ([]*coin.Entry, int64, error) {
	entries, err := s.entries.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.entries.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// enqueueEvent writes an activity event to the outbox within the transaction
func (s *ledgerService) enqueueEvent(ctx context.Context, tx pgx.Tx, kind activity.Kind, entry *coin.Entry, correlationID string) error {
	event := activity.NewEvent(kind, entry.UserID, entry.Amount, entry.BalanceAfter)
	event.ReferenceID = entry.ReferenceID
	event.Description = entry.Description
	event.CorrelationID = correlationID

	message, err := activity.NewOutboxMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}

	return s.outbox.WithTx(tx).Create(ctx, message)
}
