package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
)

// ErrNotFound is returned by single-row reads that match nothing
var ErrNotFound = errors.New("record not found")

// EntityRepository stores the RCV supplier/customer registry
type EntityRepository struct {
	pool *pgxpool.Pool
}

func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// LookupByTaxID resolves a counterparty for the statement enricher.
// A miss is not an error: it returns nil, nil.
func (r *EntityRepository) LookupByTaxID(ctx context.Context, companyID, taxID string) (*models.CounterpartyInfo, error) {
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, fmt.Errorf("invalid company id %q: %w", companyID, err)
	}
	entity, err := r.GetEntity(ctx, id, taxID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.CounterpartyInfo{
		Kind:        entity.Kind,
		Name:        entity.Name,
		AccountCode: entity.AccountCode,
	}, nil
}

// GetEntity reads one registry row by normalized RUT
func (r *EntityRepository) GetEntity(ctx context.Context, companyID uuid.UUID, rut string) (*models.Entity, error) {
	normalized := services.NormalizeRUT(rut)
	if normalized == "" {
		return nil, ErrNotFound
	}

	query := `
		SELECT company_id, rut, entity_type, entity_name, account_code, updated_at
		FROM rcv_entities
		WHERE company_id = $1 AND rut = $2
	`
	var e models.Entity
	err := r.pool.QueryRow(ctx, query, companyID, normalized).Scan(
		&e.CompanyID, &e.RUT, &e.Kind, &e.Name, &e.AccountCode, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &e, nil
}

// UpsertEntity inserts or replaces a registry row, keyed by company and RUT
func (r *EntityRepository) UpsertEntity(ctx context.Context, entity models.Entity) (*models.Entity, error) {
	normalized := services.NormalizeRUT(entity.RUT)
	if normalized == "" {
		return nil, fmt.Errorf("invalid rut %q", entity.RUT)
	}

	query := `
		INSERT INTO rcv_entities (company_id, rut, entity_type, entity_name, account_code, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (company_id, rut) DO UPDATE
		SET entity_type = EXCLUDED.entity_type,
		    entity_name = EXCLUDED.entity_name,
		    account_code = EXCLUDED.account_code,
		    updated_at = EXCLUDED.updated_at
		RETURNING company_id, rut, entity_type, entity_name, account_code, updated_at
	`
	var saved models.Entity
	err := r.pool.QueryRow(ctx, query,
		entity.CompanyID, normalized, entity.Kind, entity.Name, entity.AccountCode,
	).Scan(
		&saved.CompanyID, &saved.RUT, &saved.Kind, &saved.Name, &saved.AccountCode, &saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entity: %w", err)
	}
	return &saved, nil
}
