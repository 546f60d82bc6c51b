package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/novelreads-coin-ledger/internal/domain/payment"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// PackageRepository implements the payment.PackageRepository interface for PostgreSQL
type PackageRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPackageRepository creates a new PostgreSQL coin package repository
func NewPackageRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.PackageRepository {
	return &PackageRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves an active coin package by ID. Inactive packages are
// treated as not found so they cannot be bought.
func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*payment.CoinPackage, error) {
	query := `
		SELECT id, name, coins, bonus_coins, price, active, created_at
		FROM coin_packages
		WHERE id = $1 AND active = TRUE
	`

	var pkg payment.CoinPackage
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Coins,
		&pkg.BonusCoins,
		&pkg.Price,
		&pkg.Active,
		&pkg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPackageNotFound{PackageID: id}
		}
		r.logger.Error("Failed to get coin package", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get coin package: %w", err)
	}

	return &pkg, nil
}

// ListActive retrieves all purchasable packages ordered by price
func (r *PackageRepository) ListActive(ctx context.Context) ([]*payment.CoinPackage, error) {
	query := `
		SELECT id, name, coins, bonus_coins, price, active, created_at
		FROM coin_packages
		WHERE active = TRUE
		ORDER BY price ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list coin packages", "error", err)
		return nil, fmt.Errorf("failed to list coin packages: %w", err)
	}
	defer rows.Close()

	var packages []*payment.CoinPackage
	for rows.Next() {
		var pkg payment.CoinPackage
		err := rows.Scan(
			&pkg.ID,
			&pkg.Name,
			&pkg.Coins,
			&pkg.BonusCoins,
			&pkg.Price,
			&pkg.Active,
			&pkg.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan coin package", "error", err)
			return nil, fmt.Errorf("failed to scan coin package: %w", err)
		}
		packages = append(packages, &pkg)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over coin packages", "error", err)
		return nil, fmt.Errorf("error iterating over coin packages: %w", err)
	}

	return packages, nil
}
