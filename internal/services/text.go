package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText lowercases s and strips diacritics so "Depósito" matches "deposito"
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// containsAnyFolded reports whether folded text contains one of the keywords
func containsAnyFolded(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// collapseSpaces trims s and squeezes internal whitespace runs to one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasLetter reports whether s contains at least one letter
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// summaryLine matches totals and balance labels as whole words, so
// "Totalpass" is a movement and "Total cargos" is not
var summaryLine = regexp.MustCompile(`^(?:totales|total|saldo (?:inicial|anterior|final|contable|disponible)|opening balance|closing balance|resumen)\b`)

// isSummaryLine reports whether text is a totals/balance line rather than a movement
func isSummaryLine(text string) bool {
	return summaryLine.MatchString(strings.TrimSpace(foldText(text)))
}

// isSummaryRow checks the label of a row: the description cell, or the
// first cell with text when the description is empty
func isSummaryRow(row []string, cols columnMap) bool {
	label := strings.TrimSpace(cellAt(row, cols.Description))
	if label == "" {
		for _, field := range row {
			if hasLetter(field) {
				label = field
				break
			}
		}
	}
	return label != "" && isSummaryLine(label)
}
