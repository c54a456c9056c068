package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

// Match types and confidences of an account suggestion
const (
	MatchCode    = "code"
	MatchName    = "name"
	MatchKeyword = "keyword"
	MatchFuzzy   = "fuzzy"
	MatchNature  = "nature"
)

var matchConfidence = map[string]int{
	MatchCode:    100,
	MatchName:    90,
	MatchKeyword: 70,
	MatchFuzzy:   50,
	MatchNature:  30,
}

// AccountSource loads a company's chart of accounts
type AccountSource interface {
	ListAccounts(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error)
}

type cachedChart struct {
	accounts []models.ChartAccount
	loadedAt time.Time
}

// AccountMapper suggests chart-of-accounts destinations for accounts being
// migrated from another ledger
type AccountMapper struct {
	source         AccountSource
	charts         map[uuid.UUID]cachedChart
	cacheMutex     sync.RWMutex
	cacheTTL       time.Duration
	fuzzyThreshold float64
}

// NewAccountMapper creates a mapper caching each company's chart for ttl
func NewAccountMapper(source AccountSource, ttl time.Duration) *AccountMapper {
	return &AccountMapper{
		source:         source,
		charts:         make(map[uuid.UUID]cachedChart),
		cacheTTL:       ttl,
		fuzzyThreshold: 0.75,
	}
}

// LoadAccounts returns the company's chart, from cache while it is fresh
func (m *AccountMapper) LoadAccounts(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
	m.cacheMutex.RLock()
	cached, ok := m.charts[companyID]
	m.cacheMutex.RUnlock()
	if ok && time.Since(cached.loadedAt) < m.cacheTTL {
		return cached.accounts, nil
	}

	accounts, err := m.source.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	m.cacheMutex.Lock()
	m.charts[companyID] = cachedChart{accounts: accounts, loadedAt: time.Now()}
	m.cacheMutex.Unlock()
	return accounts, nil
}

// InvalidateCompany drops the cached chart of one company
func (m *AccountMapper) InvalidateCompany(companyID uuid.UUID) {
	m.cacheMutex.Lock()
	defer m.cacheMutex.Unlock()
	delete(m.charts, companyID)
}

// CacheSize returns how many company charts are cached
func (m *AccountMapper) CacheSize() int {
	m.cacheMutex.RLock()
	defer m.cacheMutex.RUnlock()
	return len(m.charts)
}

// Suggest finds the best chart account for src, or nil when nothing fits
func (m *AccountMapper) Suggest(ctx context.Context, companyID uuid.UUID, src models.SourceAccount) (*models.AccountSuggestion, error) {
	accounts, err := m.LoadAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return m.suggestFrom(accounts, src), nil
}

// suggestFrom applies the match tiers in order: code, name, keyword,
// fuzzy, nature
func (m *AccountMapper) suggestFrom(accounts []models.ChartAccount, src models.SourceAccount) *models.AccountSuggestion {
	if len(accounts) == 0 {
		return nil
	}

	if code := normalizeCode(src.Code); code != "" {
		for _, acc := range accounts {
			if normalizeCode(acc.Code) == code {
				return suggestion(acc, MatchCode)
			}
		}
	}

	desc := collapseSpaces(foldText(src.Description))
	if desc != "" {
		for _, acc := range accounts {
			if collapseSpaces(foldText(acc.Name)) == desc {
				return suggestion(acc, MatchName)
			}
		}
		if acc, ok := m.matchKeywords(accounts, desc); ok {
			return suggestion(acc, MatchKeyword)
		}
		if acc, ok := m.matchFuzzy(accounts, desc); ok {
			return suggestion(acc, MatchFuzzy)
		}
	}

	if accountType, ok := inferAccountType(src); ok {
		for _, acc := range accounts {
			if acc.AccountType == accountType {
				return suggestion(acc, MatchNature)
			}
		}
	}
	return nil
}

func suggestion(acc models.ChartAccount, matchType string) *models.AccountSuggestion {
	return &models.AccountSuggestion{
		Account:    acc,
		Confidence: matchConfidence[matchType],
		MatchType:  matchType,
	}
}

var stopWords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "el": true, "los": true,
	"por": true, "y": true, "a": true, "en": true, "con": true,
}

// significantWords splits folded text into words worth matching on
func significantWords(folded string) []string {
	var words []string
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(w) >= 3 && !stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

// matchKeywords picks the account sharing the most words with desc; ties
// go to the account with fewer words
func (m *AccountMapper) matchKeywords(accounts []models.ChartAccount, desc string) (models.ChartAccount, bool) {
	descWords := significantWords(desc)
	var best models.ChartAccount
	bestHits, bestLen := 0, 0
	for _, acc := range accounts {
		nameWords := significantWords(foldText(acc.Name))
		hits := 0
		for _, dw := range descWords {
			for _, nw := range nameWords {
				if dw == nw {
					hits++
					break
				}
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && len(nameWords) < bestLen) {
			best, bestHits, bestLen = acc, hits, len(nameWords)
		}
	}
	return best, bestHits > 0
}

// matchFuzzy compares words by Levenshtein similarity to catch typos and
// abbreviations such as "proveedore" or "remuneracines"
func (m *AccountMapper) matchFuzzy(accounts []models.ChartAccount, desc string) (models.ChartAccount, bool) {
	descWords := significantWords(desc)
	var best models.ChartAccount
	bestScore := 0.0
	for _, acc := range accounts {
		for _, nw := range significantWords(foldText(acc.Name)) {
			for _, dw := range descWords {
				if score := calculateSimilarity(dw, nw); score > bestScore {
					best, bestScore = acc, score
				}
			}
		}
	}
	return best, bestScore >= m.fuzzyThreshold
}

var natureAliases = map[string]models.AccountType{
	"activo": models.AccountAsset, "activos": models.AccountAsset, "asset": models.AccountAsset,
	"pasivo": models.AccountLiability, "pasivos": models.AccountLiability, "liability": models.AccountLiability,
	"patrimonio": models.AccountEquity, "capital": models.AccountEquity, "equity": models.AccountEquity,
	"ingreso": models.AccountIncome, "ingresos": models.AccountIncome, "income": models.AccountIncome,
	"gasto": models.AccountExpense, "gastos": models.AccountExpense, "costo": models.AccountExpense,
	"costos": models.AccountExpense, "expense": models.AccountExpense,
}

// inferAccountType uses the declared nature, then the leading digit of the
// code as in the standard Chilean chart (1 assets ... 5 expenses)
func inferAccountType(src models.SourceAccount) (models.AccountType, bool) {
	if t, ok := natureAliases[strings.TrimSpace(foldText(src.Nature))]; ok {
		return t, true
	}
	code := normalizeCode(src.Code)
	if code == "" {
		return "", false
	}
	switch code[0] {
	case '1':
		return models.AccountAsset, true
	case '2':
		return models.AccountLiability, true
	case '3':
		return models.AccountEquity, true
	case '4':
		return models.AccountIncome, true
	case '5', '6':
		return models.AccountExpense, true
	}
	return "", false
}

// normalizeCode drops separators so "1.1.01" and "1101" compare equal
func normalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(code))
}

// calculateSimilarity computes similarity score using Levenshtein distance
// Returns a value between 0 and 1, where 1 is identical
func calculateSimilarity(s1, s2 string) float64 {
	if len(s1) == 0 && len(s2) == 0 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	distance := levenshteinDistance(s1, s2)

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}

	return 1.0 - (float64(distance) / float64(maxLen))
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
