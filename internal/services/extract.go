package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberFormat is the thousands/decimal separator convention of a statement
type NumberFormat int

const (
	// NumberFormatLatAm uses "." for thousands and "," for decimals (45.990,50)
	NumberFormatLatAm NumberFormat = iota
	// NumberFormatEnglish uses "," for thousands and "." for decimals (45,990.50)
	NumberFormatEnglish
)

// ParseNumberFormat maps a config value ("latam", "english") to a NumberFormat
func ParseNumberFormat(s string) NumberFormat {
	if strings.EqualFold(strings.TrimSpace(s), "english") {
		return NumberFormatEnglish
	}
	return NumberFormatLatAm
}

var (
	plainNumberPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	currencyTokens     = []string{"US$", "CLP", "USD", "UF", "$", "\u00a0", " "}

	latamStrongAmount = regexp.MustCompile(
		`(?:[-+]\s?)?\$\s?\d[\d.]*(?:,\d+)?` +
			`|(?:[-+]\s?)?\b\d{1,3}(?:\.\d{3})+(?:,\d+)?\b` +
			`|(?:[-+]\s?)?\b\d+,\d{1,2}\b`)
	englishStrongAmount = regexp.MustCompile(
		`(?:[-+]\s?)?\$\s?\d[\d,]*(?:\.\d+)?` +
			`|(?:[-+]\s?)?\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b` +
			`|(?:[-+]\s?)?\b\d+\.\d{1,2}\b`)
	weakAmount = regexp.MustCompile(`(?:[-+]\s?)?\b\d+\b`)
)

// ParseAmount parses a Latin-American formatted amount. Unparsable text yields zero.
func ParseAmount(s string) decimal.Decimal {
	return NumberFormatLatAm.ParseAmount(s)
}

// ParseAmount strips currency symbols and separators and parses the number.
// A leading or trailing minus, or surrounding parentheses, make it negative.
// Unparsable text yields zero.
func (f NumberFormat) ParseAmount(s string) decimal.Decimal {
	amount, _ := f.parseAmount(s)
	return amount
}

func (f NumberFormat) parseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	if cleaned == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	switch {
	case strings.HasPrefix(cleaned, "-"):
		negative = true
		cleaned = cleaned[1:]
	case strings.HasSuffix(cleaned, "-"):
		negative = true
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasPrefix(cleaned, "+"):
		cleaned = cleaned[1:]
	}

	if f == NumberFormatEnglish {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	if !plainNumberPattern.MatchString(cleaned) {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// amountMatch is an amount found inside free text
type amountMatch struct {
	start, end int
	value      decimal.Decimal
	explicit   bool // carried a leading + or - sign
	positive   bool // the sign was +
}

// findAmounts returns the non-zero amounts in text. Amounts written with a
// currency symbol, thousands separators or decimals win over bare integers;
// bare integers are only returned when nothing stronger is present.
func (f NumberFormat) findAmounts(text string) []amountMatch {
	strong := latamStrongAmount
	if f == NumberFormatEnglish {
		strong = englishStrongAmount
	}
	if matches := f.collectAmounts(text, strong); len(matches) > 0 {
		return matches
	}
	return f.collectAmounts(text, weakAmount)
}

func (f NumberFormat) collectAmounts(text string, pattern *regexp.Regexp) []amountMatch {
	var matches []amountMatch
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		raw := strings.TrimSpace(text[loc[0]:loc[1]])
		value, ok := f.parseAmount(raw)
		if !ok || value.IsZero() {
			continue
		}
		m := amountMatch{start: loc[0], end: loc[1], value: value}
		if strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
			m.explicit = true
			m.positive = strings.HasPrefix(raw, "+")
		}
		matches = append(matches, m)
	}
	return matches
}

// Date patterns in priority order
var (
	dateDMY4  = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	dateYMD   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dateDMY2  = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{2})\b`)
	dateMonth = regexp.MustCompile(`(?i)\b(\d{1,2})(?:\s+de\s+|[\s/.-]+)` +
		`(ene(?:ro)?|feb(?:rero)?|mar(?:zo)?|abr(?:il)?|may(?:o)?|jun(?:io)?|jul(?:io)?|ago(?:sto)?|` +
		`sep(?:tiembre)?|set(?:iembre)?|oct(?:ubre)?|nov(?:iembre)?|dic(?:iembre)?|` +
		`jan(?:uary)?|apr(?:il)?|aug(?:ust)?|dec(?:ember)?)\.?(?:\s+de\s+|[\s/.-]+)(\d{4})\b`)
)

var monthPrefixes = map[string]int{
	"ene": 1, "jan": 1, "feb": 2, "mar": 3, "abr": 4, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "ago": 8, "aug": 8, "sep": 9, "set": 9, "oct": 10, "nov": 11, "dic": 12, "dec": 12,
}

type dateLayout struct {
	pattern *regexp.Regexp
	build   func(m []string) (year, month, day int)
}

var dateLayouts = []dateLayout{
	{dateDMY4, func(m []string) (int, int, int) { return atoi(m[3]), atoi(m[2]), atoi(m[1]) }},
	{dateYMD, func(m []string) (int, int, int) { return atoi(m[1]), atoi(m[2]), atoi(m[3]) }},
	{dateDMY2, func(m []string) (int, int, int) { return expandYear(atoi(m[3])), atoi(m[2]), atoi(m[1]) }},
	{dateMonth, func(m []string) (int, int, int) {
		return atoi(m[3]), monthPrefixes[strings.ToLower(m[2])[:3]], atoi(m[1])
	}},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// expandYear maps a two-digit year: below 50 is 20xx, otherwise 19xx
func expandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

func validDate(year, month, day int) bool {
	return year >= 1900 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// ParseDate finds the first supported date in s and returns it as YYYY-MM-DD.
// Days are only range-checked (1-31), not checked against the month length.
func ParseDate(s string) (string, bool) {
	iso, _, ok := findDate(s)
	return iso, ok
}

// findDate returns the ISO date and the byte span of the first valid date in text
func findDate(text string) (string, [2]int, bool) {
	for _, layout := range dateLayouts {
		for _, idx := range layout.pattern.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(idx)/2)
			for g := range m {
				if idx[2*g] >= 0 {
					m[g] = text[idx[2*g]:idx[2*g+1]]
				}
			}
			year, month, day := layout.build(m)
			if validDate(year, month, day) {
				return fmt.Sprintf("%04d-%02d-%02d", year, month, day), [2]int{idx[0], idx[1]}, true
			}
		}
	}
	return "", [2]int{}, false
}

// blankDates overwrites every valid date in text with spaces, keeping
// byte offsets intact
func blankDates(text string) string {
	buf := []byte(text)
	for _, layout := range dateLayouts {
		for _, idx := range layout.pattern.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(idx)/2)
			for g := range m {
				if idx[2*g] >= 0 {
					m[g] = text[idx[2*g]:idx[2*g+1]]
				}
			}
			if year, month, day := layout.build(m); validDate(year, month, day) {
				for i := idx[0]; i < idx[1]; i++ {
					buf[i] = ' '
				}
			}
		}
	}
	return string(buf)
}

var rutPattern = regexp.MustCompile(`(?i)\b(\d{1,2}\.\d{3}\.\d{3}-[\dk]|\d{7,8}-[\dk])\b`)

// ExtractRUT returns the first RUT found in text, normalized, or "" if none
func ExtractRUT(text string) string {
	m := rutPattern.FindString(text)
	if m == "" {
		return ""
	}
	return NormalizeRUT(m)
}

// NormalizeRUT strips dots and spaces and upper-cases the check digit,
// keeping the hyphen: "12.345.678-k" -> "12345678-K". A hyphen is inserted
// before the check digit when missing. Returns "" for text that is not a RUT.
func NormalizeRUT(s string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(s))
	cleaned = strings.TrimPrefix(cleaned, "RUT")
	cleaned = strings.TrimLeft(cleaned, ": ")
	cleaned = strings.NewReplacer(".", "", " ", "").Replace(cleaned)

	body, dv := cleaned, ""
	if i := strings.LastIndex(cleaned, "-"); i >= 0 {
		body, dv = cleaned[:i], cleaned[i+1:]
	} else if len(cleaned) >= 8 {
		body, dv = cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1:]
	}

	if len(body) < 7 || len(body) > 8 || len(dv) != 1 {
		return ""
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if dv != "K" && (dv[0] < '0' || dv[0] > '9') {
		return ""
	}
	return body + "-" + dv
}

// RUTNumber returns the numeric body of a RUT (without check digit)
func RUTNumber(rut string) (int64, bool) {
	normalized := NormalizeRUT(rut)
	if normalized == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(normalized[:strings.Index(normalized, "-")], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidateRUT checks the modulo-11 check digit of a RUT
func ValidateRUT(rut string) bool {
	normalized := NormalizeRUT(rut)
	if normalized == "" {
		return false
	}
	parts := strings.SplitN(normalized, "-", 2)
	body, dv := parts[0], parts[1]

	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	expected := 11 - sum%11
	switch expected {
	case 11:
		return dv == "0"
	case 10:
		return dv == "K"
	default:
		return dv == strconv.Itoa(expected)
	}
}
