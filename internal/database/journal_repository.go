package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// DraftPage is one page of journal drafts plus company-wide totals
type DraftPage struct {
	Entries     []models.JournalEntry `json:"entries"`
	Total       int                   `json:"total"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
}

// JournalRepository persists journal drafts built from parsed statements
type JournalRepository struct {
	pool *pgxpool.Pool
}

func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// SaveDrafts stores entries and their lines atomically. IDs and timestamps
// are assigned when missing.
func (r *JournalRepository) SaveDrafts(ctx context.Context, entries []models.JournalEntry) ([]models.JournalEntry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now()
	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		batch.Queue(`
			INSERT INTO journal_entries (id, company_id, entry_date, description, category, reference, status, created_at)
			VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		`, e.ID, e.CompanyID, e.EntryDate, e.Description, string(e.Category), e.Reference, e.Status, e.CreatedAt)

		for n, line := range e.Lines {
			batch.Queue(`
				INSERT INTO journal_lines (entry_id, line_no, account_code, account_name, debit, credit)
				VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
			`, e.ID, n+1, line.AccountCode, line.AccountName, line.Debit.String(), line.Credit.String())
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert journal drafts: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit journal drafts: %w", err)
	}
	return entries, nil
}

// ListDrafts pages through a company's drafts, newest entry date first
func (r *JournalRepository) ListDrafts(ctx context.Context, companyID uuid.UUID, limit, offset int) (*DraftPage, error) {
	page := &DraftPage{Entries: []models.JournalEntry{}}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM journal_entries WHERE company_id = $1 AND status = 'draft'
	`, companyID).Scan(&page.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to count journal drafts: %w", err)
	}

	var debit, credit string
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.debit), 0)::text, COALESCE(SUM(l.credit), 0)::text
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.company_id = $1 AND e.status = 'draft'
	`, companyID).Scan(&debit, &credit)
	if err != nil {
		return nil, fmt.Errorf("failed to total journal drafts: %w", err)
	}
	if page.TotalDebit, err = decimal.NewFromString(debit); err != nil {
		return nil, fmt.Errorf("invalid debit total %q: %w", debit, err)
	}
	if page.TotalCredit, err = decimal.NewFromString(credit); err != nil {
		return nil, fmt.Errorf("invalid credit total %q: %w", credit, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, to_char(entry_date, 'YYYY-MM-DD'), description, category, reference, status, created_at
		FROM journal_entries
		WHERE company_id = $1 AND status = 'draft'
		ORDER BY entry_date DESC, created_at DESC, id
		LIMIT $2 OFFSET $3
	`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal drafts: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.JournalEntry, error) {
		var e models.JournalEntry
		err := row.Scan(&e.ID, &e.CompanyID, &e.EntryDate, &e.Description, &e.Category, &e.Reference, &e.Status, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal drafts: %w", err)
	}
	if len(entries) == 0 {
		return page, nil
	}

	if err := r.attachLines(ctx, entries); err != nil {
		return nil, err
	}
	page.Entries = entries
	return page, nil
}

func (r *JournalRepository) attachLines(ctx context.Context, entries []models.JournalEntry) error {
	ids := make([]uuid.UUID, len(entries))
	index := make(map[uuid.UUID]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		index[e.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT entry_id, account_code, account_name, debit::text, credit::text
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to list journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entryID       uuid.UUID
			line          models.JournalLine
			debit, credit string
		)
		if err := rows.Scan(&entryID, &line.AccountCode, &line.AccountName, &debit, &credit); err != nil {
			return fmt.Errorf("failed to scan journal line: %w", err)
		}
		if line.Debit, err = decimal.NewFromString(debit); err != nil {
			return fmt.Errorf("invalid debit %q: %w", debit, err)
		}
		if line.Credit, err = decimal.NewFromString(credit); err != nil {
			return fmt.Errorf("invalid credit %q: %w", credit, err)
		}
		i := index[entryID]
		entries[i].Lines = append(entries[i].Lines, line)
	}
	return rows.Err()
}
