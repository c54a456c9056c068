package services

import (
	"fmt"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// LedgerAccount is a chart-of-accounts entry used by the suggestion rules
type LedgerAccount struct {
	Code string
	Name string
}

// AccountingPolicy decides the debit/credit accounts suggested for a movement
type AccountingPolicy struct {
	Bank          LedgerAccount
	Customers     LedgerAccount
	Suppliers     LedgerAccount
	Remunerations LedgerAccount

	// Debits to a natural-person RUT below this body number are treated as payroll
	PayrollTaxIDThreshold int64
	PayrollKeywords       []string
}

// DefaultPayrollTaxIDThreshold separates natural-person RUTs from company RUTs
const DefaultPayrollTaxIDThreshold = 40_000_000

// DefaultAccountingPolicy returns the standard Chilean chart codes
func DefaultAccountingPolicy() AccountingPolicy {
	return AccountingPolicy{
		Bank:                  LedgerAccount{Code: "1101", Name: "Banco"},
		Customers:             LedgerAccount{Code: "1201", Name: "Clientes"},
		Suppliers:             LedgerAccount{Code: "2101", Name: "Proveedores"},
		Remunerations:         LedgerAccount{Code: "2105", Name: "Remuneraciones por Pagar"},
		PayrollTaxIDThreshold: DefaultPayrollTaxIDThreshold,
		PayrollKeywords:       []string{"sueldo", "remuneracion", "nomina", "planilla"},
	}
}

// Suggest builds the accounting entry for one enriched transaction
func (p AccountingPolicy) Suggest(txn models.StatementTransaction) models.AccountingSuggestion {
	suggestion := models.AccountingSuggestion{Amount: txn.Amount}
	info := txn.CounterpartyInfo

	if txn.Direction == models.DirectionCredit {
		counter := p.Customers
		label := "Cobro cliente"
		if info.IsCustomer() && info.AccountCode != "" {
			counter = LedgerAccount{Code: info.AccountCode, Name: info.Name}
		}
		p.fill(&suggestion, p.Bank, counter, models.CategoryCustomer, label, txn)
		return suggestion
	}

	if info != nil && info.AccountCode != "" {
		category := models.CategoryOther
		label := "Pago"
		if info.IsSupplier() {
			category, label = models.CategorySupplier, "Pago proveedor"
		}
		p.fill(&suggestion, LedgerAccount{Code: info.AccountCode, Name: info.Name}, p.Bank, category, label, txn)
		return suggestion
	}

	// A registered supplier without an account code still books to Suppliers
	// Payable, even when its RUT is below the payroll threshold.
	if !info.IsSupplier() && p.isPayroll(txn) {
		p.fill(&suggestion, p.Remunerations, p.Bank, models.CategoryPayroll, "Pago remuneración", txn)
		return suggestion
	}
	p.fill(&suggestion, p.Suppliers, p.Bank, models.CategorySupplier, "Pago proveedor", txn)
	return suggestion
}

// isPayroll classifies an unmatched debit: by RUT magnitude when a RUT is
// present, by payroll keywords in the description otherwise
func (p AccountingPolicy) isPayroll(txn models.StatementTransaction) bool {
	if number, ok := RUTNumber(txn.CounterpartyTaxID); ok {
		return number < p.PayrollTaxIDThreshold
	}
	return containsAnyFolded(foldText(txn.Description), p.PayrollKeywords)
}

func (p AccountingPolicy) fill(s *models.AccountingSuggestion, debit, credit LedgerAccount, category models.Category, label string, txn models.StatementTransaction) {
	s.DebitAccountCode, s.DebitAccountName = debit.Code, debit.Name
	s.CreditAccountCode, s.CreditAccountName = credit.Code, credit.Name
	s.Category = category

	subject := txn.Description
	if txn.CounterpartyInfo != nil && txn.CounterpartyInfo.Name != "" {
		subject = txn.CounterpartyInfo.Name
	}
	s.Description = fmt.Sprintf("%s: %s", label, subject)
}
