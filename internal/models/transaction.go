package models

import (
	"github.com/shopspring/decimal"
)

// Direction tells whether money left (debit) or arrived (credit) on the account
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Category drives which accounts an accounting suggestion uses
type Category string

const (
	CategoryCustomer Category = "customer"
	CategorySupplier Category = "supplier"
	CategoryPayroll  Category = "payroll"
	CategoryOther    Category = "other"
)

// EntityKind is the role an RCV entity plays for a company
type EntityKind string

const (
	EntitySupplier EntityKind = "supplier"
	EntityCustomer EntityKind = "customer"
	EntityBoth     EntityKind = "both"
)

// Sentinels returned when statement metadata cannot be detected
const (
	BankNotIdentified   = "Banco no identificado"
	PeriodNotDetermined = "Período no determinado"
	DefaultDescription  = "Sin descripción"
)

// CounterpartyInfo is the RCV registry record matched by tax id
type CounterpartyInfo struct {
	Kind        EntityKind `json:"kind"`
	Name        string     `json:"name"`
	AccountCode string     `json:"account_code"`
}

// IsCustomer reports whether the entity can be credited as a customer
func (c *CounterpartyInfo) IsCustomer() bool {
	return c != nil && (c.Kind == EntityCustomer || c.Kind == EntityBoth)
}

// IsSupplier reports whether the entity can be debited as a supplier
func (c *CounterpartyInfo) IsSupplier() bool {
	return c != nil && (c.Kind == EntitySupplier || c.Kind == EntityBoth)
}

// AccountingSuggestion is the double-entry pair proposed for a transaction
type AccountingSuggestion struct {
	DebitAccountCode  string          `json:"debit_account_code"`
	DebitAccountName  string          `json:"debit_account_name"`
	CreditAccountCode string          `json:"credit_account_code"`
	CreditAccountName string          `json:"credit_account_name"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Category          Category        `json:"category"`
}

// StatementTransaction is one bank-statement line item after parsing
type StatementTransaction struct {
	Date              string               `json:"date"` // YYYY-MM-DD
	Description       string               `json:"description"`
	Amount            decimal.Decimal      `json:"amount"` // Always non-negative, see Direction
	Direction         Direction            `json:"direction"`
	Balance           decimal.NullDecimal  `json:"balance"`
	Reference         string               `json:"reference,omitempty"`
	CounterpartyTaxID string               `json:"counterparty_tax_id,omitempty"`
	Note              string               `json:"note,omitempty"`
	SuggestedEntry    AccountingSuggestion `json:"suggested_entry"`
	CounterpartyInfo  *CounterpartyInfo    `json:"counterparty_info"`
	RawData           string               `json:"raw_data,omitempty"` // Source line(s) for review
}

// ParseResult is the enriched output of one statement parse
type ParseResult struct {
	Transactions []StatementTransaction `json:"transactions"`
	Bank         string                 `json:"bank"`
	Account      string                 `json:"account"`
	Period       string                 `json:"period"`
	TotalCredits decimal.Decimal        `json:"total_credits"`
	TotalDebits  decimal.Decimal        `json:"total_debits"`
	Confidence   int                    `json:"confidence"`
	Strategy     string                 `json:"strategy"`
}
