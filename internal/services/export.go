package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// CSVExporter writes parse results as semicolon-separated CSV, the layout
// spreadsheet software expects under a Spanish locale
type CSVExporter struct {
	IncludeMetadata bool
}

var exportHeader = []string{
	"Fecha", "Descripción", "Tipo", "Monto", "Saldo", "Referencia", "RUT",
	"Contraparte", "Cuenta Debe", "Cuenta Haber", "Categoría",
}

// Write writes result to out
func (e CSVExporter) Write(out io.Writer, result *models.ParseResult) error {
	writer := csv.NewWriter(out)
	writer.Comma = ';'

	if e.IncludeMetadata {
		meta := [][]string{
			{"# Banco", result.Bank},
			{"# Cuenta", result.Account},
			{"# Período", result.Period},
			{"# Confianza", fmt.Sprintf("%d", result.Confidence)},
			{"# Total Abonos", result.TotalCredits.String()},
			{"# Total Cargos", result.TotalDebits.String()},
		}
		for _, row := range meta {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range result.Transactions {
		balance := ""
		if txn.Balance.Valid {
			balance = txn.Balance.Decimal.String()
		}
		counterparty := ""
		if txn.CounterpartyInfo != nil {
			counterparty = txn.CounterpartyInfo.Name
		}
		row := []string{
			txn.Date,
			txn.Description,
			directionLabel(txn.Direction),
			txn.Amount.String(),
			balance,
			txn.Reference,
			txn.CounterpartyTaxID,
			counterparty,
			txn.SuggestedEntry.DebitAccountCode,
			txn.SuggestedEntry.CreditAccountCode,
			string(txn.SuggestedEntry.Category),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSV writes result with metadata rows
func WriteCSV(out io.Writer, result *models.ParseResult) error {
	return CSVExporter{IncludeMetadata: true}.Write(out, result)
}

func directionLabel(d models.Direction) string {
	if d == models.DirectionCredit {
		return "Abono"
	}
	return "Cargo"
}
