package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-agent/domain"
)

const expenseCSV = `Date,Category,Amount,Payment_Mode
2024-01-05,Food,20.5,Cash
2024-01-05,Rent,800,Bank Transfer
2024-01-20,Food,30,Card
2024-02-03,Travel,150,Card
not-a-date,Food,abc,Cash
`

func newSpendRepo(t *testing.T) (*SQLSpendRepository, string) {
	t.Helper()
	path := writeCSV(t, t.TempDir(), "personal_expense_dataset.csv", expenseCSV)
	repo := NewSQLSpendRepository(path, nullLogger())
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSpendRepository_Summary(t *testing.T) {
	repo, _ := newSpendRepo(t)
	ctx := context.Background()

	all, err := repo.Summary(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, all.NumTransactions)
	assert.InDelta(t, 1000.5, all.TotalSpend, 1e-9)
	assert.InDelta(t, 250.125, all.AvgSpend, 1e-9)
	require.NotNil(t, all.MinDate)
	assert.Equal(t, "2024-01-05", *all.MinDate)
	assert.Equal(t, "2024-02-03", *all.MaxDate)

	jan, err := repo.Summary(ctx, domain.DateRange{Start: "2024-01-10", End: "2024-01-31"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, jan.NumTransactions)
	assert.InDelta(t, 30.0, jan.TotalSpend, 1e-9)

	none, err := repo.Summary(ctx, domain.DateRange{Start: "2030-01-01"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, none.NumTransactions)
	assert.Equal(t, 0.0, none.TotalSpend)
	assert.Nil(t, none.MinDate)
	assert.Nil(t, none.MaxDate)
}

func TestSpendRepository_TopCategoriesAndSplit(t *testing.T) {
	repo, _ := newSpendRepo(t)
	ctx := context.Background()

	cats, err := repo.TopCategories(ctx, domain.DateRange{}, 2)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, domain.CategorySpend{Category: "Rent", TotalSpend: 800, TxnCount: 1}, cats[0])
	assert.Equal(t, domain.CategorySpend{Category: "Travel", TotalSpend: 150, TxnCount: 1}, cats[1])

	split, err := repo.PaymentSplit(ctx, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, split, 3)
	assert.Equal(t, "Bank Transfer", split[0].PaymentMode)
	assert.Equal(t, "Card", split[1].PaymentMode)
	assert.InDelta(t, 180.0, split[1].TotalSpend, 1e-9)
	assert.EqualValues(t, 2, split[1].TxnCount)
	assert.Equal(t, "Cash", split[2].PaymentMode)
	assert.EqualValues(t, 2, split[2].TxnCount)
}

func TestSpendRepository_Search(t *testing.T) {
	repo, _ := newSpendRepo(t)
	ctx := context.Background()

	food, err := repo.Search(ctx, "FOO", domain.DateRange{}, 50)
	require.NoError(t, err)
	require.Len(t, food, 3)
	require.NotNil(t, food[0].Date)
	assert.Equal(t, "2024-01-20", *food[0].Date)
	assert.Nil(t, food[2].Date, "unparseable dates sort last")
	assert.Nil(t, food[2].Amount)

	card, err := repo.Search(ctx, "card", domain.DateRange{}, 50)
	require.NoError(t, err)
	assert.Len(t, card, 2)

	limited, err := repo.Search(ctx, "a", domain.DateRange{}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSpendRepository_BudgetAdvice(t *testing.T) {
	repo, _ := newSpendRepo(t)

	advice, err := repo.BudgetAdvice(context.Background(), "2024-01", 5)

	require.NoError(t, err)
	assert.Equal(t, "2024-01", advice.Month)
	assert.InDelta(t, 850.5, advice.TotalSpend, 1e-9)
	assert.EqualValues(t, 3, advice.TxnCount)
	assert.EqualValues(t, 2, advice.ActiveDays)
	assert.InDelta(t, 425.25, advice.DailyAvgSpend, 1e-9)
	require.Len(t, advice.TopCategories, 2)
	assert.Equal(t, "Rent", advice.TopCategories[0].Category)
	assert.InDelta(t, 50.5, advice.TopCategories[1].TotalSpend, 1e-9)
	require.Len(t, advice.PaymentModes, 3)
	assert.Equal(t, "Bank Transfer", advice.PaymentModes[0].PaymentMode)

	empty, err := repo.BudgetAdvice(context.Background(), "2030-06", 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.DailyAvgSpend)
	assert.NotNil(t, empty.TopCategories)
	assert.Empty(t, empty.TopCategories)
}

func TestSpendRepository_ReloadsChangedFile(t *testing.T) {
	repo, path := newSpendRepo(t)
	ctx := context.Background()

	first, err := repo.Summary(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, first.NumTransactions)

	writeCSV(t, filepath.Dir(path), filepath.Base(path), "Date,Category,Amount,Payment_Mode\n2024-03-01,Food,10,Cash\n")
	touch(t, path, time.Minute)

	second, err := repo.Summary(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, second.NumTransactions)
}

func TestSpendRepository_Errors(t *testing.T) {
	dir := t.TempDir()

	missing := NewSQLSpendRepository(filepath.Join(dir, "personal_expense_dataset.csv"), nullLogger())
	_, err := missing.Summary(context.Background(), domain.DateRange{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "personal_expense_dataset.csv not found on server")

	path := writeCSV(t, dir, "bad.csv", "Date,Amount\n2024-01-01,5\n")
	bad := NewSQLSpendRepository(path, nullLogger())
	defer bad.Close()
	_, err = bad.PaymentSplit(context.Background(), domain.DateRange{})
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
	assert.EqualError(t, err, "missing columns in CSV: [Category Payment_Mode]")
}
