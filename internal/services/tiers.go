package services

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// Parsing strategies, reported in ParseResult.Strategy
const (
	StrategyStructuredHeaders    = "structured_headers"
	StrategyStructuredPositional = "structured_positional"
	StrategyPattern              = "pattern"
	StrategyGrouped              = "grouped"
	StrategyFallback             = "fallback"
	StrategyNone                 = "none"
)

// tierResult is what one parsing tier produced. A tier with no
// transactions did not match and the next tier is tried.
type tierResult struct {
	strategy     string
	confidence   int
	transactions []models.StatementTransaction
}

func (r tierResult) matched() bool {
	return len(r.transactions) > 0
}

var noMatch = tierResult{}

const minPatternLineLength = 10

var (
	creditKeywords = []string{
		"abono", "deposito", "transferencia recibida", "transf recibida", "transf. recibida",
		"transferencia de ", "recibida", "devolucion", "reembolso", "reintegro",
		"ingreso", "pago recibido", "intereses ganados",
	}
	debitKeywords = []string{
		"cargo", "compra", "giro", "retiro", "comision", "pago", "transferencia a ",
		"transf a ", "cheque", "impuesto", "mantencion", "debito", "traspaso a ", "cuota",
	}
)

// classifyDirection infers the direction of a free-text movement. When
// both lists hit, the longest keyword wins, so "pago recibido" beats
// "pago"; ties and unrecognized text are debits.
func classifyDirection(text string) models.Direction {
	folded := foldText(text)
	if longestKeyword(folded, creditKeywords) > longestKeyword(folded, debitKeywords) {
		return models.DirectionCredit
	}
	return models.DirectionDebit
}

// longestKeyword returns the length of the longest keyword found in folded
func longestKeyword(folded string, keywords []string) int {
	longest := 0
	for _, kw := range keywords {
		if len(kw) > longest && strings.Contains(folded, kw) {
			longest = len(kw)
		}
	}
	return longest
}

// parseStructured reads delimited text, using a header row when one is
// found and the positional layout otherwise
func (p *StatementParser) parseStructured(lines []string) tierResult {
	if len(lines) == 0 {
		return noMatch
	}
	delim, ok := leadingDelimiter(lines)
	if !ok {
		return noMatch
	}

	result := tierResult{strategy: StrategyStructuredPositional, confidence: 70}
	cols := positionalColumns()
	start := 0
	if idx, headers, found := findHeaderRow(lines, delim); found {
		cols = mapColumns(headers)
		start = idx + 1
		result.strategy = StrategyStructuredHeaders
		result.confidence = 90
	}

	for _, line := range lines[start:] {
		cells := splitRow(line, delim)
		if len(cells) < 2 {
			continue
		}
		if txn, ok := p.extractRow(line, cells, cols); ok {
			result.transactions = append(result.transactions, txn)
		}
	}
	return result
}

// leadingDelimiter takes the delimiter of the first delimited line among
// the first lines, so title rows above a table do not hide it
func leadingDelimiter(lines []string) (rune, bool) {
	for i := 0; i < len(lines) && i < headerScanLines; i++ {
		if delim, ok := DetectDelimiter(lines[i]); ok {
			return delim, true
		}
	}
	return 0, false
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// extractRow turns one delimited row into a transaction
func (p *StatementParser) extractRow(line string, cells []string, cols columnMap) (models.StatementTransaction, bool) {
	if isEmptyRow(cells) || isSummaryRow(cells, cols) {
		return models.StatementTransaction{}, false
	}

	date, ok := p.rowDate(cells, cols)
	if !ok {
		return models.StatementTransaction{}, false
	}
	amount, direction, ok := p.rowAmount(cells, cols)
	if !ok {
		return models.StatementTransaction{}, false
	}

	txn := models.StatementTransaction{
		Date:        date,
		Description: rowDescription(cells, cols),
		Amount:      amount,
		Direction:   direction,
		Reference:   cellAt(cells, cols.Reference),
		Note:        cellAt(cells, cols.Note),
		RawData:     line,
	}
	if raw := cellAt(cells, cols.Balance); raw != "" {
		if balance, ok := p.format.parseAmount(raw); ok {
			txn.Balance = decimal.NewNullDecimal(balance)
		}
	}
	txn.CounterpartyTaxID = rowTaxID(cells, cols, direction, txn.Description)
	return txn, true
}

func (p *StatementParser) rowDate(cells []string, cols columnMap) (string, bool) {
	if cols.Date >= 0 {
		return ParseDate(cellAt(cells, cols.Date))
	}
	for _, cell := range cells {
		if date, ok := ParseDate(cell); ok {
			return date, true
		}
	}
	return "", false
}

// rowAmount resolves amount and direction: paired debit/credit columns,
// then a signed amount column, then the first numeric cell when the row
// has no amount columns at all. A direction column overrides the sign.
func (p *StatementParser) rowAmount(cells []string, cols columnMap) (decimal.Decimal, models.Direction, bool) {
	var (
		amount    decimal.Decimal
		direction models.Direction
		found     bool
	)

	if cols.Debit >= 0 || cols.Credit >= 0 {
		debit := p.format.ParseAmount(cellAt(cells, cols.Debit)).Abs()
		credit := p.format.ParseAmount(cellAt(cells, cols.Credit)).Abs()
		switch {
		case !debit.IsZero():
			amount, direction, found = debit, models.DirectionDebit, true
		case !credit.IsZero():
			amount, direction, found = credit, models.DirectionCredit, true
		}
	}

	if !found && cols.Amount >= 0 {
		if v := p.format.ParseAmount(cellAt(cells, cols.Amount)); !v.IsZero() {
			amount, direction, found = v.Abs(), signedDirection(v), true
		}
	}

	if !found && !cols.hasAmountColumns() {
		for i, cell := range cells {
			if i == cols.Date || i == cols.Balance || rutPattern.MatchString(cell) {
				continue
			}
			if v := p.format.ParseAmount(cell); !v.IsZero() {
				amount, direction, found = v.Abs(), signedDirection(v), true
				break
			}
		}
	}

	if !found {
		return decimal.Zero, "", false
	}
	if d, ok := parseDirectionIndicator(cellAt(cells, cols.Direction)); ok {
		direction = d
	}
	return amount, direction, true
}

func signedDirection(v decimal.Decimal) models.Direction {
	if v.IsNegative() {
		return models.DirectionDebit
	}
	return models.DirectionCredit
}

// rowDescription uses the description column, then the longest cell that
// is not a number or date, then the placeholder
func rowDescription(cells []string, cols columnMap) string {
	if desc := collapseSpaces(cellAt(cells, cols.Description)); desc != "" {
		return desc
	}
	best := ""
	for i, cell := range cells {
		if i == cols.Date || !hasLetter(cell) {
			continue
		}
		if _, isDate := ParseDate(cell); isDate {
			continue
		}
		if len(cell) > len(best) {
			best = cell
		}
	}
	if best = collapseSpaces(best); best != "" {
		return best
	}
	return models.DefaultDescription
}

// rowTaxID picks the counterparty RUT: destination for debits, origin for
// credits, then the generic RUT column, then one embedded in the description
func rowTaxID(cells []string, cols columnMap, direction models.Direction, description string) string {
	order := []int{cols.RUTOrigin, cols.RUTDest, cols.RUT}
	if direction == models.DirectionDebit {
		order = []int{cols.RUTDest, cols.RUTOrigin, cols.RUT}
	}
	for _, idx := range order {
		cell := cellAt(cells, idx)
		if rut := ExtractRUT(cell); rut != "" {
			return rut
		}
		if rut := NormalizeRUT(cell); rut != "" {
			return rut
		}
	}
	return ExtractRUT(description)
}

// parsePatterns reads one movement per line using date and amount patterns
func (p *StatementParser) parsePatterns(lines []string) tierResult {
	result := tierResult{strategy: StrategyPattern, confidence: 60}
	for _, line := range lines {
		if len([]rune(line)) < minPatternLineLength {
			continue
		}
		if txn, ok := p.extractFromText(line); ok {
			result.transactions = append(result.transactions, txn)
		}
	}
	return result
}

// extractFromText finds a date and amount anywhere in text. The first
// amount is the movement and the last one, when there are several, is
// the running balance.
func (p *StatementParser) extractFromText(text string) (models.StatementTransaction, bool) {
	if isSummaryLine(text) {
		return models.StatementTransaction{}, false
	}
	date, _, ok := findDate(text)
	if !ok {
		return models.StatementTransaction{}, false
	}
	// value dates next to the posting date are neither amounts nor description
	rest := blankDates(text)

	// RUT digits must not be read as amounts
	scan := rutPattern.ReplaceAllStringFunc(rest, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	amounts := p.format.findAmounts(scan)
	if len(amounts) == 0 {
		return models.StatementTransaction{}, false
	}

	first := amounts[0]
	txn := models.StatementTransaction{
		Date:              date,
		Amount:            first.value.Abs(),
		CounterpartyTaxID: ExtractRUT(rest),
		RawData:           text,
	}
	if len(amounts) >= 2 {
		txn.Balance = decimal.NewNullDecimal(amounts[len(amounts)-1].value)
	}

	txn.Description = stripSpans(rest, amounts)
	switch {
	case first.value.IsNegative():
		txn.Direction = models.DirectionDebit
	case first.explicit && first.positive:
		txn.Direction = models.DirectionCredit
	default:
		txn.Direction = classifyDirection(txn.Description)
	}
	return txn, true
}

var descriptionTrim = " -|;:,$"

// stripSpans removes the amount substrings from text and tidies the rest
func stripSpans(text string, amounts []amountMatch) string {
	var b strings.Builder
	last := 0
	for _, a := range amounts {
		b.WriteString(text[last:a.start])
		b.WriteByte(' ')
		last = a.end
	}
	b.WriteString(text[last:])
	desc := strings.Trim(collapseSpaces(b.String()), descriptionTrim)
	if desc = collapseSpaces(desc); desc == "" {
		return models.DefaultDescription
	}
	return desc
}

const leadingDateOffset = 3

var anyDate = []*regexp.Regexp{dateDMY4, dateYMD, dateDMY2, dateMonth}

// startsWithDate reports whether a date appears at the very start of line
func startsWithDate(line string) bool {
	for _, pattern := range anyDate {
		if loc := pattern.FindStringIndex(line); loc != nil && loc[0] < leadingDateOffset {
			return true
		}
	}
	return false
}

func containsDate(line string) bool {
	_, ok := ParseDate(line)
	return ok
}

// groupLines starts a new group at every line accepted by startsGroup and
// appends following lines to it. Lines before the first group are dropped.
func groupLines(lines []string, startsGroup func(string) bool) []string {
	var groups []string
	var current []string
	for _, line := range lines {
		if startsGroup(line) {
			if len(current) > 0 {
				groups = append(groups, strings.Join(current, " "))
			}
			current = []string{line}
			continue
		}
		if len(current) > 0 {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		groups = append(groups, strings.Join(current, " "))
	}
	return groups
}

// parseGrouped handles movements spread across several lines. Groups
// anchored on a leading date are tried first; groups anchored on a date
// anywhere in the line are the last resort.
func (p *StatementParser) parseGrouped(lines []string) tierResult {
	passes := []struct {
		strategy    string
		confidence  int
		startsGroup func(string) bool
	}{
		{StrategyGrouped, 40, startsWithDate},
		{StrategyFallback, 20, containsDate},
	}
	for _, pass := range passes {
		result := tierResult{strategy: pass.strategy, confidence: pass.confidence}
		for _, group := range groupLines(lines, pass.startsGroup) {
			if txn, ok := p.extractFromText(group); ok {
				result.transactions = append(result.transactions, txn)
			}
		}
		if result.matched() {
			return result
		}
	}
	return noMatch
}
