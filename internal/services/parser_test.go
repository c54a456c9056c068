package services

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

func parseFixture(t *testing.T, name string) *models.ParseResult {
	t.Helper()
	file, err := os.Open("../../testdata/" + name)
	require.NoError(t, err)
	defer file.Close()

	result, err := NewParser().ParseFile(context.Background(), file, name, "")
	require.NoError(t, err)
	return result
}

// assertTotals checks that totals equal the sums of the transactions
func assertTotals(t *testing.T, result *models.ParseResult) {
	t.Helper()
	sumCredits, sumDebits := decimal.Zero, decimal.Zero
	for _, txn := range result.Transactions {
		assert.False(t, txn.Amount.IsNegative(), "amounts are stored unsigned")
		if txn.Direction == models.DirectionCredit {
			sumCredits = sumCredits.Add(txn.Amount)
		} else {
			sumDebits = sumDebits.Add(txn.Amount)
		}
	}
	assert.True(t, sumCredits.Equal(result.TotalCredits), "credits %s != %s", sumCredits, result.TotalCredits)
	assert.True(t, sumDebits.Equal(result.TotalDebits), "debits %s != %s", sumDebits, result.TotalDebits)
}

func TestParse_HeaderedCSV(t *testing.T) {
	result := NewParser().Parse(context.Background(), "Fecha,Descripcion,Monto\n15/03/2024,Pago proveedor,-50000\n16/03/2024,Depósito,120000", "")

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, StrategyStructuredHeaders, result.Strategy)

	first := result.Transactions[0]
	assert.Equal(t, "2024-03-15", first.Date)
	assert.Equal(t, "Pago proveedor", first.Description)
	assert.Equal(t, "50000", first.Amount.String())
	assert.Equal(t, models.DirectionDebit, first.Direction)

	second := result.Transactions[1]
	assert.Equal(t, models.DirectionCredit, second.Direction)
	assert.Equal(t, "120000", second.Amount.String())

	assert.Equal(t, "120000", result.TotalCredits.String())
	assert.Equal(t, "50000", result.TotalDebits.String())
	assert.Equal(t, "03/2024", result.Period)
	assertTotals(t, result)
}

func TestParse_RoundTripISO(t *testing.T) {
	text := "Fecha,Descripcion,Monto\n" +
		"2024-03-15,Pago proveedor ABC,-50000\n" +
		"2024-03-16,Deposito cliente XYZ,120000\n" +
		"2024-03-20,Comision mantencion,-3990"
	result := NewParser().Parse(context.Background(), text, "")

	require.Len(t, result.Transactions, 3)
	assert.Equal(t, StrategyStructuredHeaders, result.Strategy)

	first := result.Transactions[0]
	assert.Equal(t, "2024-03-15", first.Date)
	assert.Equal(t, "Pago proveedor ABC", first.Description)
	assert.Equal(t, "50000", first.Amount.String())
	assert.Equal(t, models.DirectionDebit, first.Direction)

	assert.Equal(t, "2024-03-16", result.Transactions[1].Date)
	assert.Equal(t, models.DirectionCredit, result.Transactions[1].Direction)
	assert.Equal(t, "3990", result.Transactions[2].Amount.String())
	assert.Equal(t, models.DirectionDebit, result.Transactions[2].Direction)

	assert.Equal(t, "120000", result.TotalCredits.String())
	assert.Equal(t, "53990", result.TotalDebits.String())
	assert.Equal(t, "03/2024", result.Period)
	assertTotals(t, result)
}

func TestParse_SummaryWordsInsideDescriptions(t *testing.T) {
	text := "Fecha,Descripcion,Monto\n" +
		"15/03/2024,Totalpass suscripcion,-9990\n" +
		"16/03/2024,Compra Lider,-5000\n" +
		"Total,,-14990"
	result := NewParser().Parse(context.Background(), text, "")

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "Totalpass suscripcion", result.Transactions[0].Description)
	assert.Equal(t, "14990", result.TotalDebits.String())
}

func TestParse_PositionalCSV(t *testing.T) {
	result := NewParser().Parse(context.Background(), "15/03/2024;Compra ferretería;-45.990;954.010\n16/03/2024;Abono;100.000;1.054.010", "")

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 70, result.Confidence)
	assert.Equal(t, StrategyStructuredPositional, result.Strategy)
	assert.Equal(t, "45990", result.Transactions[0].Amount.String())
	assert.Equal(t, models.DirectionDebit, result.Transactions[0].Direction)
	require.True(t, result.Transactions[0].Balance.Valid)
	assert.Equal(t, "954010", result.Transactions[0].Balance.Decimal.String())
}

func TestParse_TitleRowsAboveTable(t *testing.T) {
	text := "Scotiabank Chile\nCartola de movimientos\nFecha|Detalle|Cargo|Abono|Saldo\n" +
		"04/06/2024|Pago luz|25.300||974.700\n05/06/2024|Depósito|| 50.000|1.024.700"
	result := NewParser().Parse(context.Background(), text, "")

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, StrategyStructuredHeaders, result.Strategy)
	assert.Equal(t, "Scotiabank", result.Bank)
	assert.Equal(t, models.DirectionCredit, result.Transactions[1].Direction)
	assert.Equal(t, "50000", result.Transactions[1].Amount.String())
}

func TestParse_PatternLine(t *testing.T) {
	result := NewParser().Parse(context.Background(), "15/03/2024 Compra supermercado $45.990", "")

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 60, result.Confidence)
	assert.Equal(t, StrategyPattern, result.Strategy)

	txn := result.Transactions[0]
	assert.Equal(t, "2024-03-15", txn.Date)
	assert.Equal(t, "Compra supermercado", txn.Description)
	assert.Equal(t, "45990", txn.Amount.String())
	assert.Equal(t, models.DirectionDebit, txn.Direction)
	assert.False(t, txn.Balance.Valid)
}

func TestParse_PatternLineDirection(t *testing.T) {
	tests := []struct {
		line      string
		direction models.Direction
	}{
		{"15/03/2024 Comision mantencion deposito a plazo $2.500", models.DirectionDebit},
		{"15/03/2024 Pago recibido cliente $80.000", models.DirectionCredit},
		{"15/03/2024 Pago de cuota crédito $120.000", models.DirectionDebit},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			result := NewParser().Parse(context.Background(), tt.line, "")
			require.Len(t, result.Transactions, 1)
			assert.Equal(t, tt.direction, result.Transactions[0].Direction)
		})
	}
}

func TestParse_PatternLineWithValueDate(t *testing.T) {
	result := NewParser().Parse(context.Background(), "15/03/2024 16/03/2024 Compra supermercado 4500", "")

	require.Len(t, result.Transactions, 1)
	txn := result.Transactions[0]
	assert.Equal(t, "2024-03-15", txn.Date)
	assert.Equal(t, "4500", txn.Amount.String())
	assert.Equal(t, "Compra supermercado", txn.Description)
	assert.Equal(t, models.DirectionDebit, txn.Direction)
}

func TestParse_FallbackGroups(t *testing.T) {
	text := "Movimiento del 15/03/2024 por compra\nmonto $12.000"
	result := NewParser().Parse(context.Background(), text, "")

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 20, result.Confidence)
	assert.Equal(t, StrategyFallback, result.Strategy)
	assert.Equal(t, "12000", result.Transactions[0].Amount.String())
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "Sin movimientos en el período"} {
		result := NewParser().Parse(context.Background(), text, "")
		assert.Empty(t, result.Transactions)
		assert.NotNil(t, result.Transactions)
		assert.Equal(t, 0, result.Confidence)
		assert.Equal(t, StrategyNone, result.Strategy)
		assert.Equal(t, models.PeriodNotDetermined, result.Period)
		assert.True(t, result.TotalCredits.IsZero())
		assert.True(t, result.TotalDebits.IsZero())
	}
}

func TestParse_Idempotent(t *testing.T) {
	data, err := os.ReadFile("../../testdata/banco_chile_cartola.csv")
	require.NoError(t, err)

	p := NewParser()
	first := p.Parse(context.Background(), string(data), "")
	second := p.Parse(context.Background(), string(data), "")
	assert.Equal(t, first, second)
}

func TestParseFile_BancoDeChile(t *testing.T) {
	result := parseFixture(t, "banco_chile_cartola.csv")

	assert.Equal(t, "Banco de Chile", result.Bank)
	assert.Equal(t, "****7809", result.Account)
	assert.Equal(t, "03/2024", result.Period)
	assert.Equal(t, 90, result.Confidence)
	require.Len(t, result.Transactions, 4, "opening balance and total rows are skipped")

	supplier := result.Transactions[0]
	assert.Equal(t, "2024-03-05", supplier.Date)
	assert.Equal(t, models.DirectionDebit, supplier.Direction)
	assert.Equal(t, "250000", supplier.Amount.String())
	assert.Equal(t, "76543210-3", supplier.CounterpartyTaxID)
	assert.Equal(t, "750000", supplier.Balance.Decimal.String())
	assert.Equal(t, models.CategorySupplier, supplier.SuggestedEntry.Category)
	assert.Equal(t, "2101", supplier.SuggestedEntry.DebitAccountCode)
	assert.Equal(t, "1101", supplier.SuggestedEntry.CreditAccountCode)

	customer := result.Transactions[1]
	assert.Equal(t, models.DirectionCredit, customer.Direction)
	assert.Equal(t, "77111222-3", customer.CounterpartyTaxID)
	assert.Equal(t, models.CategoryCustomer, customer.SuggestedEntry.Category)

	payroll := result.Transactions[2]
	assert.Equal(t, "12345678-5", payroll.CounterpartyTaxID)
	assert.Equal(t, models.CategoryPayroll, payroll.SuggestedEntry.Category)
	assert.Equal(t, "2105", payroll.SuggestedEntry.DebitAccountCode)

	fee := result.Transactions[3]
	assert.Equal(t, "Comisión mantención", fee.Description)
	assert.Equal(t, "4990", fee.Amount.String())

	assert.Equal(t, "1054990", result.TotalDebits.String())
	assert.Equal(t, "500000", result.TotalCredits.String())
	assertTotals(t, result)
}

func TestParseFile_SantanderText(t *testing.T) {
	result := parseFixture(t, "santander_movimientos.txt")

	assert.Equal(t, "Banco Santander", result.Bank)
	assert.Equal(t, "****3210", result.Account)
	assert.Equal(t, 60, result.Confidence)
	require.Len(t, result.Transactions, 3)

	purchase := result.Transactions[0]
	assert.Equal(t, "Compra supermercado Lider", purchase.Description)
	assert.Equal(t, "45990", purchase.Amount.String())
	assert.Equal(t, "1954010", purchase.Balance.Decimal.String())
	assert.Equal(t, models.DirectionDebit, purchase.Direction)

	transfer := result.Transactions[1]
	assert.Equal(t, models.DirectionCredit, transfer.Direction)
	assert.Equal(t, "1200000", transfer.Amount.String())
	assert.Equal(t, "76123456-7", transfer.CounterpartyTaxID)

	assert.Equal(t, "96555444-1", result.Transactions[2].CounterpartyTaxID)
	assert.Equal(t, models.CategorySupplier, result.Transactions[2].SuggestedEntry.Category)
	assertTotals(t, result)
}

func TestParseFile_MultiLineGroups(t *testing.T) {
	result := parseFixture(t, "bci_estado_cuenta.txt")

	assert.Equal(t, "Banco BCI", result.Bank)
	assert.Equal(t, 40, result.Confidence)
	assert.Equal(t, StrategyGrouped, result.Strategy)
	require.Len(t, result.Transactions, 2)

	assert.Equal(t, "Pago de servicios Enel Distribución", result.Transactions[0].Description)
	assert.Equal(t, "32450", result.Transactions[0].Amount.String())
	assert.Equal(t, models.DirectionDebit, result.Transactions[0].Direction)
	assert.Equal(t, models.DirectionCredit, result.Transactions[1].Direction)
	assert.Equal(t, "1500000", result.Transactions[1].Amount.String())
}

func TestParseFile_DirectionColumnAndRUTColumns(t *testing.T) {
	result := parseFixture(t, "bancoestado_transferencias.tsv")

	assert.Equal(t, models.BankNotIdentified, result.Bank)
	require.Len(t, result.Transactions, 2)

	out := result.Transactions[0]
	assert.Equal(t, models.DirectionDebit, out.Direction, "C marks a cargo")
	assert.Equal(t, "15678901-2", out.CounterpartyTaxID, "debits use the destination RUT")
	assert.Equal(t, models.CategoryPayroll, out.SuggestedEntry.Category)

	in := result.Transactions[1]
	assert.Equal(t, models.DirectionCredit, in.Direction)
	assert.Equal(t, "76000111-K", in.CounterpartyTaxID, "credits use the origin RUT")
	assert.Equal(t, "1190000", in.Amount.String())
	assertTotals(t, result)
}

func TestParseFile_Windows1252(t *testing.T) {
	result := parseFixture(t, "itau_latin1.csv")

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "Depósito en efectivo", result.Transactions[0].Description)
	assert.Equal(t, models.DirectionCredit, result.Transactions[0].Direction)
	assert.Equal(t, "2024-05-02", result.Transactions[0].Date)
	assert.Equal(t, models.DirectionDebit, result.Transactions[1].Direction)
	assert.Equal(t, "3500", result.Transactions[1].Amount.String())
}

func TestParse_EnglishNumberFormat(t *testing.T) {
	p := NewStatementParser(ParserOptions{
		NumberFormat:      NumberFormatEnglish,
		Policy:            DefaultAccountingPolicy(),
		LookupConcurrency: 1,
		Logger:            zerolog.Nop(),
	})
	result := p.Parse(context.Background(), "Fecha;Descripcion;Monto\n15/03/2024;Import;-1,250.50", "")

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "1250.5", result.Transactions[0].Amount.String())
}
