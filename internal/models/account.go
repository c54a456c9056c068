package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the nature of a chart-of-accounts entry
type AccountType string

const (
	AccountAsset     AccountType = "activo"
	AccountLiability AccountType = "pasivo"
	AccountEquity    AccountType = "patrimonio"
	AccountIncome    AccountType = "ingreso"
	AccountExpense   AccountType = "gasto"
)

// ChartAccount is one entry of a company's chart of accounts
type ChartAccount struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"account_type"`
}

// SourceAccount is an account from a legacy ledger being migrated
type SourceAccount struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Nature      string `json:"nature"`
}

// AccountSuggestion is the mapper's best destination for a source account
type AccountSuggestion struct {
	Account    ChartAccount `json:"account"`
	Confidence int          `json:"confidence"` // 30-100
	MatchType  string       `json:"match_type"` // code, name, keyword, fuzzy, nature
}

// Entity is a supplier/customer record of the RCV registry
type Entity struct {
	CompanyID   uuid.UUID  `json:"company_id"`
	RUT         string     `json:"rut"`
	Kind        EntityKind `json:"entity_type"`
	Name        string     `json:"entity_name"`
	AccountCode string     `json:"account_code"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// JournalLine is one side of a journal entry
type JournalLine struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// JournalEntry is a balanced double-entry record drafted from a bank transaction
type JournalEntry struct {
	ID          uuid.UUID     `json:"id"`
	CompanyID   uuid.UUID     `json:"company_id"`
	EntryDate   string        `json:"entry_date"`
	Description string        `json:"description"`
	Category    Category      `json:"category"`
	Reference   string        `json:"reference,omitempty"`
	Status      string        `json:"status"` // draft
	Lines       []JournalLine `json:"lines"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsBalanced reports whether debits equal credits across all lines
func (e JournalEntry) IsBalanced() bool {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit.Equal(credit)
}
