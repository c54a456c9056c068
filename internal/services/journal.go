package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// JournalStatusDraft marks entries awaiting accountant review
const JournalStatusDraft = "draft"

// BuildJournalDrafts turns the suggested entries of a parse result into
// balanced two-line journal drafts. Zero-amount movements are skipped.
func BuildJournalDrafts(companyID uuid.UUID, result *models.ParseResult) []models.JournalEntry {
	now := time.Now().UTC()
	entries := make([]models.JournalEntry, 0, len(result.Transactions))
	for _, txn := range result.Transactions {
		s := txn.SuggestedEntry
		if s.Amount.IsZero() || s.DebitAccountCode == "" || s.CreditAccountCode == "" {
			continue
		}
		amount := s.Amount.Abs()
		entries = append(entries, models.JournalEntry{
			ID:          uuid.New(),
			CompanyID:   companyID,
			EntryDate:   txn.Date,
			Description: s.Description,
			Category:    s.Category,
			Reference:   txn.Reference,
			Status:      JournalStatusDraft,
			Lines: []models.JournalLine{
				{AccountCode: s.DebitAccountCode, AccountName: s.DebitAccountName, Debit: amount, Credit: decimal.Zero},
				{AccountCode: s.CreditAccountCode, AccountName: s.CreditAccountName, Debit: decimal.Zero, Credit: amount},
			},
			CreatedAt: now,
		})
	}
	return entries
}
