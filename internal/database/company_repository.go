package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// CompanyRepository stores companies and which users belong to them
type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// IsMember reports whether userID belongs to companyID with any role
func (r *CompanyRepository) IsMember(ctx context.Context, userID string, companyID uuid.UUID) (bool, error) {
	var member bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM company_members WHERE company_id = $1 AND user_id = $2)`,
		companyID, userID,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}

// CreateCompany creates a company owned by ownerID
func (r *CompanyRepository) CreateCompany(ctx context.Context, name, ownerID string) (*models.Company, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	company := models.Company{ID: uuid.New(), Name: name, Role: models.RoleOwner}
	err = tx.QueryRow(ctx,
		`INSERT INTO companies (id, name) VALUES ($1, $2) RETURNING created_at`,
		company.ID, company.Name,
	).Scan(&company.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert company: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO company_members (company_id, user_id, role) VALUES ($1, $2, $3)`,
		company.ID, ownerID, models.RoleOwner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit company: %w", err)
	}
	return &company, nil
}

// ListCompanies returns the companies userID belongs to, with its role in each
func (r *CompanyRepository) ListCompanies(ctx context.Context, userID string) ([]models.Company, error) {
	query := `
		SELECT c.id, c.name, m.role, c.created_at
		FROM companies c
		JOIN company_members m ON m.company_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Company, error) {
		var c models.Company
		err := row.Scan(&c.ID, &c.Name, &c.Role, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan companies: %w", err)
	}
	return companies, nil
}

// MemberRole returns userID's role in companyID, or ErrNotFound
func (r *CompanyRepository) MemberRole(ctx context.Context, companyID uuid.UUID, userID string) (models.MemberRole, error) {
	var role models.MemberRole
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM company_members WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

// AddMember grants userID a role in companyID, replacing any previous role
func (r *CompanyRepository) AddMember(ctx context.Context, companyID uuid.UUID, userID string, role models.MemberRole) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_members (company_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, companyID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}
