package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// AccountRepository reads and seeds a company's chart of accounts
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// ListAccounts returns the company's chart ordered by code
func (r *AccountRepository) ListAccounts(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
	query := `
		SELECT code, name, account_type
		FROM chart_of_accounts
		WHERE company_id = $1
		ORDER BY code
	`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ChartAccount, error) {
		var a models.ChartAccount
		err := row.Scan(&a.Code, &a.Name, &a.AccountType)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}
	return accounts, nil
}

// SeedAccounts upserts a batch of chart entries in one round trip
func (r *AccountRepository) SeedAccounts(ctx context.Context, companyID uuid.UUID, accounts []models.ChartAccount) error {
	if len(accounts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(`
			INSERT INTO chart_of_accounts (company_id, code, name, account_type)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (company_id, code) DO UPDATE
			SET name = EXCLUDED.name, account_type = EXCLUDED.account_type
		`, companyID, a.Code, a.Name, a.AccountType)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}
	return nil
}
