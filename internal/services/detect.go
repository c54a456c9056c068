package services

import (
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the most frequent of , ; tab | in line.
// ok is false when none of them occur.
func DetectDelimiter(line string) (rune, bool) {
	best, bestCount := ',', 0
	for _, d := range delimiterCandidates {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best, bestCount > 0
}

// splitRow splits one line on delim honoring quoted fields
func splitRow(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		record = strings.Split(line, string(delim))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}

var headerKeywords = []string{
	"fecha", "date", "descripcion", "description", "detalle", "glosa", "concepto",
	"monto", "importe", "amount", "cargo", "abono", "debito", "credito", "debit", "credit",
	"saldo", "balance", "referencia", "reference", "documento", "rut", "movimiento",
}

const headerScanLines = 10

// findHeaderRow looks for a header among the first lines: a row where at
// least two cells contain a known column keyword
func findHeaderRow(lines []string, delim rune) (int, []string, bool) {
	for i := 0; i < len(lines) && i < headerScanLines; i++ {
		cells := splitRow(lines[i], delim)
		hits := 0
		for _, cell := range cells {
			if containsAnyFolded(foldText(cell), headerKeywords) {
				hits++
			}
		}
		if hits >= 2 {
			return i, cells, true
		}
	}
	return -1, nil, false
}

// columnMap holds the index of each semantic column, -1 when absent
type columnMap struct {
	Date, Description, Amount, Debit, Credit, Balance   int
	Reference, Note, Direction, RUT, RUTOrigin, RUTDest int
}

func emptyColumns() columnMap {
	return columnMap{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
}

// positionalColumns is the layout assumed for headerless delimited text
func positionalColumns() columnMap {
	cols := emptyColumns()
	cols.Date, cols.Description, cols.Amount, cols.Balance = 0, 1, 2, 3
	return cols
}

func (c columnMap) hasAmountColumns() bool {
	return c.Amount >= 0 || c.Debit >= 0 || c.Credit >= 0
}

// keywordSet matches a header containing every keyword
type keywordSet []string

type columnRule struct {
	target func(*columnMap) *int
	levels [][]keywordSet // earlier levels win
}

func kw(words ...string) keywordSet { return keywordSet(words) }

// columnRules are applied in order; a claimed column is never reused
var columnRules = []columnRule{
	{func(c *columnMap) *int { return &c.Date }, [][]keywordSet{
		{kw("fecha", "operacion"), kw("fecha", "transaccion"), kw("fecha", "movimiento")},
		{kw("fecha"), kw("date")},
	}},
	{func(c *columnMap) *int { return &c.Direction }, [][]keywordSet{
		{kw("cargo", "abono"), kw("debito", "credito"), kw("dr/cr"), kw("tipo", "movimiento")},
		{kw("tipo")},
	}},
	{func(c *columnMap) *int { return &c.RUTDest }, [][]keywordSet{
		{kw("rut", "destino"), kw("rut", "beneficiario")},
	}},
	{func(c *columnMap) *int { return &c.RUTOrigin }, [][]keywordSet{
		{kw("rut", "origen"), kw("rut", "ordenante")},
	}},
	{func(c *columnMap) *int { return &c.RUT }, [][]keywordSet{
		{kw("rut")},
	}},
	{func(c *columnMap) *int { return &c.Debit }, [][]keywordSet{
		{kw("cargo"), kw("debito"), kw("debit"), kw("giro"), kw("retiro"), kw("egreso")},
	}},
	{func(c *columnMap) *int { return &c.Credit }, [][]keywordSet{
		{kw("abono"), kw("credito"), kw("credit"), kw("deposito"), kw("ingreso")},
	}},
	{func(c *columnMap) *int { return &c.Amount }, [][]keywordSet{
		{kw("monto", "$"), kw("importe", "$")},
		{kw("monto"), kw("importe"), kw("amount"), kw("valor")},
	}},
	{func(c *columnMap) *int { return &c.Balance }, [][]keywordSet{
		{kw("saldo"), kw("balance")},
	}},
	{func(c *columnMap) *int { return &c.Reference }, [][]keywordSet{
		{kw("referencia"), kw("reference"), kw("documento"), kw("folio"), kw("comprobante"), kw("operacion"), kw("n°")},
	}},
	{func(c *columnMap) *int { return &c.Note }, [][]keywordSet{
		{kw("mensaje"), kw("comentario"), kw("nota"), kw("memo")},
	}},
	{func(c *columnMap) *int { return &c.Description }, [][]keywordSet{
		{kw("nombre", "destino"), kw("nombre", "beneficiario")},
		{kw("descripcion"), kw("description"), kw("detalle"), kw("glosa"), kw("concepto"), kw("movimiento")},
		{kw("nombre")},
	}},
}

func (k keywordSet) matches(folded string) bool {
	for _, word := range k {
		if !strings.Contains(folded, word) {
			return false
		}
	}
	return true
}

// mapColumns assigns semantic roles to header cells
func mapColumns(headers []string) columnMap {
	cols := emptyColumns()
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldText(h)
	}
	used := make(map[int]bool, len(headers))

	for _, rule := range columnRules {
		target := rule.target(&cols)
	levels:
		for _, level := range rule.levels {
			for i, h := range folded {
				if used[i] {
					continue
				}
				for _, set := range level {
					if set.matches(h) {
						*target = i
						used[i] = true
						break levels
					}
				}
			}
		}
	}
	return cols
}

// parseDirectionIndicator reads a cargo/abono style cell
func parseDirectionIndicator(cell string) (models.Direction, bool) {
	switch foldText(strings.Trim(strings.TrimSpace(cell), ".")) {
	case "cargo", "c", "d", "debito", "debit", "dr", "egreso", "giro":
		return models.DirectionDebit, true
	case "abono", "a", "credito", "credit", "cr", "ingreso", "deposito":
		return models.DirectionCredit, true
	}
	return "", false
}

type bankSignature struct {
	name    string
	aliases []string
}

// bankSignatures are checked in order so specific names win over shorter ones
var bankSignatures = []bankSignature{
	{"Banco de Chile", []string{"banco de chile", "bancochile", "banco edwards"}},
	{"BancoEstado", []string{"bancoestado", "banco estado", "banco del estado"}},
	{"Banco Santander", []string{"santander"}},
	{"Banco BCI", []string{"bci", "banco de credito e inversiones"}},
	{"Scotiabank", []string{"scotiabank", "scotia"}},
	{"Banco Itaú", []string{"itau", "corpbanca"}},
	{"Banco Security", []string{"banco security"}},
	{"Banco BICE", []string{"bice"}},
	{"Banco Falabella", []string{"banco falabella"}},
	{"Banco Ripley", []string{"banco ripley"}},
	{"Banco Consorcio", []string{"banco consorcio"}},
	{"Banco Internacional", []string{"banco internacional"}},
}

type compiledBank struct {
	name    string
	pattern *regexp.Regexp
}

var bankPatterns = compileBanks(bankSignatures)

func compileBanks(signatures []bankSignature) []compiledBank {
	compiled := make([]compiledBank, 0, len(signatures))
	for _, sig := range signatures {
		quoted := make([]string, len(sig.aliases))
		for i, alias := range sig.aliases {
			quoted[i] = regexp.QuoteMeta(alias)
		}
		compiled = append(compiled, compiledBank{
			name:    sig.name,
			pattern: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}
	return compiled
}

// DetectBank returns the canonical name of the first bank whose alias
// appears in text, or models.BankNotIdentified
func DetectBank(text string) string {
	folded := foldText(text)
	for _, bank := range bankPatterns {
		if bank.pattern.MatchString(folded) {
			return bank.name
		}
	}
	return models.BankNotIdentified
}

var accountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`cuenta(?:\s+corriente|\s+vista|\s+rut)?\s*(?:n°|nro\.?|no\.?|numero|#)?\s*[:#]?\s*(\d[\d.-]{2,}\d)`),
	regexp.MustCompile(`\bcta\.?(?:\s*cte\.?)?\s*(?:n°|nro\.?|no\.?|#)?\s*[:#]?\s*(\d[\d.-]{2,}\d)`),
	regexp.MustCompile(`\baccount\s*(?:no\.?|number|#)?\s*[:#]?\s*(\d[\d.-]{2,}\d)`),
	regexp.MustCompile(`\b(?:numero|nro\.?|n°)\s*[:#]?\s*(\d[\d.-]{2,}\d)`),
}

// DetectAccount finds a labeled account number and returns it masked to
// its last four digits ("****5678"), or "" when none is found
func DetectAccount(text string) string {
	folded := foldText(text)
	for _, pattern := range accountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(folded, -1) {
			digits := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, m[1])
			if len(digits) >= 4 {
				return "****" + digits[len(digits)-4:]
			}
		}
	}
	return ""
}

// DetectPeriod summarizes the date range of txns as "MM/YYYY" or
// "MM/YYYY - MM/YYYY"
func DetectPeriod(txns []models.StatementTransaction) string {
	minDate, maxDate := "", ""
	for _, txn := range txns {
		if txn.Date == "" {
			continue
		}
		if minDate == "" || txn.Date < minDate {
			minDate = txn.Date
		}
		if maxDate == "" || txn.Date > maxDate {
			maxDate = txn.Date
		}
	}
	if minDate == "" {
		return models.PeriodNotDetermined
	}
	from, to := monthYear(minDate), monthYear(maxDate)
	if from == to {
		return from
	}
	return from + " - " + to
}

// monthYear turns "2024-03-15" into "03/2024"
func monthYear(iso string) string {
	if len(iso) < 7 {
		return iso
	}
	return iso[5:7] + "/" + iso[:4]
}
