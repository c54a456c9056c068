package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// EntityLookup resolves a counterparty RUT against a company's RCV registry.
// A nil result with a nil error means the RUT is not registered.
type EntityLookup interface {
	LookupByTaxID(ctx context.Context, companyID, taxID string) (*models.CounterpartyInfo, error)
}

// Enricher attaches registry info and accounting suggestions to transactions
type Enricher struct {
	lookup      EntityLookup
	policy      AccountingPolicy
	concurrency int
	timeout     time.Duration
	log         zerolog.Logger
}

// NewEnricher creates an enricher. lookup may be nil, in which case only
// the accounting rules are applied.
func NewEnricher(lookup EntityLookup, policy AccountingPolicy, concurrency int, timeout time.Duration, log zerolog.Logger) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		lookup:      lookup,
		policy:      policy,
		concurrency: concurrency,
		timeout:     timeout,
		log:         log,
	}
}

// Enrich resolves every distinct counterparty RUT once, with at most
// concurrency lookups in flight, then suggests an entry per transaction.
// Lookup failures are logged and leave the counterparty unresolved.
func (e *Enricher) Enrich(ctx context.Context, companyID string, txns []models.StatementTransaction) {
	resolved := e.resolveAll(ctx, companyID, txns)
	for i := range txns {
		txns[i].CounterpartyInfo = resolved[txns[i].CounterpartyTaxID]
		txns[i].SuggestedEntry = e.policy.Suggest(txns[i])
	}
}

func (e *Enricher) resolveAll(ctx context.Context, companyID string, txns []models.StatementTransaction) map[string]*models.CounterpartyInfo {
	resolved := make(map[string]*models.CounterpartyInfo)
	if e.lookup == nil || companyID == "" {
		return resolved
	}

	var taxIDs []string
	seen := make(map[string]bool)
	for _, txn := range txns {
		if txn.CounterpartyTaxID != "" && !seen[txn.CounterpartyTaxID] {
			seen[txn.CounterpartyTaxID] = true
			taxIDs = append(taxIDs, txn.CounterpartyTaxID)
		}
	}

	// each goroutine writes only its own slot
	infos := make([]*models.CounterpartyInfo, len(taxIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, taxID := range taxIDs {
		g.Go(func() error {
			infos[i] = e.resolve(gctx, companyID, taxID)
			return nil
		})
	}
	_ = g.Wait()

	for i, taxID := range taxIDs {
		resolved[taxID] = infos[i]
	}
	return resolved
}

// resolve performs one lookup, converting errors and panics into "not found"
func (e *Enricher) resolve(ctx context.Context, companyID, taxID string) (info *models.CounterpartyInfo) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("tax_id", taxID).Str("panic", fmt.Sprint(r)).Msg("entity lookup panicked")
			info = nil
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	info, err := e.lookup.LookupByTaxID(ctx, companyID, taxID)
	if err != nil {
		e.log.Warn().Err(err).Str("company_id", companyID).Str("tax_id", taxID).Msg("entity lookup failed")
		return nil
	}
	return info
}
