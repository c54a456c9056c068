package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
)

type mockAccountSource struct {
	ListFunc func(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error)
	calls    int
}

func (m *mockAccountSource) ListAccounts(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
	m.calls++
	return m.ListFunc(ctx, companyID)
}

func chileanChart() []models.ChartAccount {
	return []models.ChartAccount{
		{Code: "1101", Name: "Banco", AccountType: models.AccountAsset},
		{Code: "1201", Name: "Clientes", AccountType: models.AccountAsset},
		{Code: "2101", Name: "Proveedores", AccountType: models.AccountLiability},
		{Code: "2105", Name: "Remuneraciones por Pagar", AccountType: models.AccountLiability},
		{Code: "3101", Name: "Capital Pagado", AccountType: models.AccountEquity},
		{Code: "4101", Name: "Ingresos por Ventas", AccountType: models.AccountIncome},
		{Code: "5101", Name: "Gastos de Administración", AccountType: models.AccountExpense},
		{Code: "5102", Name: "Gastos Bancarios", AccountType: models.AccountExpense},
	}
}

func TestAccountMapper_SuggestFrom(t *testing.T) {
	m := NewAccountMapper(nil, time.Minute)
	accounts := chileanChart()

	tests := []struct {
		name          string
		src           models.SourceAccount
		wantCode      string
		wantMatch     string
		wantConfident int
	}{
		{"code with separators", models.SourceAccount{Code: "2.1.01", Description: "Otra cosa"}, "2101", MatchCode, 100},
		{"exact name ignoring accents", models.SourceAccount{Code: "9999", Description: "gastos de administracion"}, "5101", MatchName, 90},
		{"keyword overlap", models.SourceAccount{Description: "Comisiones y gastos bancarios"}, "5102", MatchKeyword, 70},
		{"fuzzy typo", models.SourceAccount{Description: "Proveedore nacionales"}, "2101", MatchFuzzy, 50},
		{"nature fallback", models.SourceAccount{Description: "Xyz", Nature: "Patrimonio"}, "3101", MatchNature, 30},
		{"nature from code digit", models.SourceAccount{Code: "4999", Description: "Qwerty"}, "4101", MatchNature, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.suggestFrom(accounts, tt.src)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Account.Code)
			assert.Equal(t, tt.wantMatch, got.MatchType)
			assert.Equal(t, tt.wantConfident, got.Confidence)
		})
	}

	assert.Nil(t, m.suggestFrom(accounts, models.SourceAccount{Description: "Zzz"}))
	assert.Nil(t, m.suggestFrom(nil, models.SourceAccount{Code: "1101"}))
}

func TestAccountMapper_CachesPerCompany(t *testing.T) {
	source := &mockAccountSource{ListFunc: func(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
		return chileanChart(), nil
	}}
	m := NewAccountMapper(source, time.Minute)
	ctx := context.Background()
	companyA, companyB := uuid.New(), uuid.New()

	_, err := m.Suggest(ctx, companyA, models.SourceAccount{Code: "1101"})
	require.NoError(t, err)
	_, err = m.Suggest(ctx, companyA, models.SourceAccount{Code: "2101"})
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "second lookup is served from cache")

	_, err = m.LoadAccounts(ctx, companyB)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, 2, m.CacheSize())

	m.InvalidateCompany(companyA)
	assert.Equal(t, 1, m.CacheSize())
	_, err = m.LoadAccounts(ctx, companyA)
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls)
}

func TestAccountMapper_ExpiredCacheReloads(t *testing.T) {
	source := &mockAccountSource{ListFunc: func(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
		return chileanChart(), nil
	}}
	m := NewAccountMapper(source, time.Nanosecond)
	companyID := uuid.New()

	_, err := m.LoadAccounts(context.Background(), companyID)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = m.LoadAccounts(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestAccountMapper_SourceError(t *testing.T) {
	source := &mockAccountSource{ListFunc: func(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error) {
		return nil, errors.New("db down")
	}}
	m := NewAccountMapper(source, time.Minute)

	got, err := m.Suggest(context.Background(), uuid.New(), models.SourceAccount{Code: "1101"})
	assert.Nil(t, got)
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, m.CacheSize())
}

func TestCalculateSimilarity(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   float64
	}{
		{"banco", "banco", 1.0},
		{"", "", 1.0},
		{"banco", "", 0.0},
		{"proveedore", "proveedores", 1.0 - 1.0/11.0},
		{"abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateSimilarity(tt.s1, tt.s2), 0.0001)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("clientes", "clientes"))
	assert.Equal(t, 1, levenshteinDistance("cliente", "clientes"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 5, levenshteinDistance("", "banco"))
}
