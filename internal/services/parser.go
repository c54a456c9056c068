package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// ParserOptions configures a StatementParser
type ParserOptions struct {
	NumberFormat      NumberFormat
	Policy            AccountingPolicy
	Lookup            EntityLookup // optional RCV registry
	LookupConcurrency int
	LookupTimeout     time.Duration
	Logger            zerolog.Logger
}

// StatementParser turns raw statement text into enriched transactions
type StatementParser struct {
	format   NumberFormat
	enricher *Enricher
	log      zerolog.Logger
}

// NewStatementParser creates a parser from options
func NewStatementParser(opts ParserOptions) *StatementParser {
	return &StatementParser{
		format:   opts.NumberFormat,
		enricher: NewEnricher(opts.Lookup, opts.Policy, opts.LookupConcurrency, opts.LookupTimeout, opts.Logger),
		log:      opts.Logger,
	}
}

// NewParser creates a parser with Chilean defaults and no registry lookup
func NewParser() *StatementParser {
	return NewStatementParser(ParserOptions{
		NumberFormat:      NumberFormatLatAm,
		Policy:            DefaultAccountingPolicy(),
		LookupConcurrency: 1,
		Logger:            zerolog.Nop(),
	})
}

// Parse extracts transactions from statement text. Tiers are tried from
// most to least structured and the first one producing transactions wins.
// Parse never fails: unreadable text yields an empty result with
// confidence 0.
func (p *StatementParser) Parse(ctx context.Context, text, companyID string) *models.ParseResult {
	lines := splitLines(text)

	tier := noMatch
	for _, run := range []func([]string) tierResult{p.parseStructured, p.parsePatterns, p.parseGrouped} {
		if r := run(lines); r.matched() {
			tier = r
			break
		}
	}

	result := &models.ParseResult{
		Transactions: tier.transactions,
		Bank:         DetectBank(text),
		Account:      DetectAccount(text),
		Confidence:   tier.confidence,
		Strategy:     tier.strategy,
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
	}
	if !tier.matched() {
		result.Transactions = []models.StatementTransaction{}
		result.Confidence = 0
		result.Strategy = StrategyNone
	}

	p.enricher.Enrich(ctx, companyID, result.Transactions)

	for _, txn := range result.Transactions {
		if txn.Direction == models.DirectionCredit {
			result.TotalCredits = result.TotalCredits.Add(txn.Amount)
		} else {
			result.TotalDebits = result.TotalDebits.Add(txn.Amount)
		}
	}
	result.Period = DetectPeriod(result.Transactions)

	p.log.Debug().
		Str("strategy", result.Strategy).
		Int("confidence", result.Confidence).
		Int("transactions", len(result.Transactions)).
		Str("bank", result.Bank).
		Msg("statement parsed")
	return result
}

// ParseFile loads a CSV, TXT, XLSX or PDF statement and parses its text
func (p *StatementParser) ParseFile(ctx context.Context, r io.Reader, filename, companyID string) (*models.ParseResult, error) {
	text, err := LoadStatementText(r, filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, text, companyID), nil
}

// splitLines breaks text into trimmed, non-empty lines
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
