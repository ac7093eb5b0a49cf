package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"finance-agent/domain"
)

type SpendRepository interface {
	Summary(ctx context.Context, r domain.DateRange) (domain.SpendSummary, error)
	TopCategories(ctx context.Context, r domain.DateRange, k int) ([]domain.CategorySpend, error)
	PaymentSplit(ctx context.Context, r domain.DateRange) ([]domain.PaymentModeSpend, error)
	Search(ctx context.Context, q string, r domain.DateRange, limit int) ([]domain.Expense, error)
	BudgetAdvice(ctx context.Context, month string, top int) (domain.BudgetAdvice, error)
}

var ExpenseSchema = TableSchema{
	Name: "expenses",
	Columns: []Column{
		{Source: "Date", Name: "date", Kind: DateColumn},
		{Source: "Category", Name: "category", Kind: TextColumn},
		{Source: "Amount", Name: "amount", Kind: RealColumn},
		{Source: "Payment_Mode", Name: "payment_mode", Kind: TextColumn},
	},
}

type SQLSpendRepository struct {
	table *CSVTable
}

func NewSQLSpendRepository(path string, log logrus.FieldLogger) *SQLSpendRepository {
	return &SQLSpendRepository{table: NewCSVTable(path, ExpenseSchema, log)}
}

func (r *SQLSpendRepository) Close() error {
	return r.table.Close()
}

func (r *SQLSpendRepository) Summary(ctx context.Context, dr domain.DateRange) (domain.SpendSummary, error) {
	var out domain.SpendSummary
	conds, args := rangeFilter("date", dr)
	q := `SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0), MIN(date), MAX(date)
		FROM expenses ` + whereSQL(conds)

	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		var minDate, maxDate sql.NullString
		if err := db.QueryRowContext(ctx, q, args...).Scan(
			&out.NumTransactions, &out.TotalSpend, &out.AvgSpend, &minDate, &maxDate,
		); err != nil {
			return fmt.Errorf("spend summary: %w", err)
		}
		out.MinDate = nullableString(minDate)
		out.MaxDate = nullableString(maxDate)
		return nil
	})
	return out, err
}

func (r *SQLSpendRepository) TopCategories(ctx context.Context, dr domain.DateRange, k int) ([]domain.CategorySpend, error) {
	conds, args := rangeFilter("date", dr)
	q := `SELECT category, COALESCE(SUM(amount), 0) AS total_spend, COUNT(*)
		FROM expenses ` + whereSQL(conds) + `
		GROUP BY category
		ORDER BY total_spend DESC
		LIMIT ?`
	args = append(args, k)

	out := []domain.CategorySpend{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("top categories: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c domain.CategorySpend
			if err := rows.Scan(&c.Category, &c.TotalSpend, &c.TxnCount); err != nil {
				return fmt.Errorf("scan category: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SQLSpendRepository) PaymentSplit(ctx context.Context, dr domain.DateRange) ([]domain.PaymentModeSpend, error) {
	conds, args := rangeFilter("date", dr)
	q := `SELECT payment_mode, COALESCE(SUM(amount), 0) AS total_spend, COUNT(*)
		FROM expenses ` + whereSQL(conds) + `
		GROUP BY payment_mode
		ORDER BY total_spend DESC`

	out := []domain.PaymentModeSpend{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("payment split: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var p domain.PaymentModeSpend
			if err := rows.Scan(&p.PaymentMode, &p.TotalSpend, &p.TxnCount); err != nil {
				return fmt.Errorf("scan payment mode: %w", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SQLSpendRepository) Search(ctx context.Context, term string, dr domain.DateRange, limit int) ([]domain.Expense, error) {
	like := "%" + term + "%"
	conds := []string{"(LOWER(category) LIKE LOWER(?) OR LOWER(payment_mode) LIKE LOWER(?))"}
	args := []any{like, like}
	rc, ra := rangeFilter("date", dr)
	conds = append(conds, rc...)
	args = append(args, ra...)
	args = append(args, limit)

	q := `SELECT date, category, amount, payment_mode
		FROM expenses ` + whereSQL(conds) + `
		ORDER BY date DESC
		LIMIT ?`

	out := []domain.Expense{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("search expenses: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e      domain.Expense
				date   sql.NullString
				amount sql.NullFloat64
			)
			if err := rows.Scan(&date, &e.Category, &amount, &e.PaymentMode); err != nil {
				return fmt.Errorf("scan expense: %w", err)
			}
			e.Date = nullableString(date)
			e.Amount = nullableFloat(amount)
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SQLSpendRepository) BudgetAdvice(ctx context.Context, month string, top int) (domain.BudgetAdvice, error) {
	out := domain.BudgetAdvice{
		Month:         month,
		TopCategories: []domain.CategorySpend{},
		PaymentModes:  []domain.PaymentModeSpend{},
	}
	const inMonth = "strftime('%Y-%m', date) = ?"

	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0), COUNT(*), COUNT(DISTINCT date)
			FROM expenses WHERE `+inMonth, month,
		).Scan(&out.TotalSpend, &out.TxnCount, &out.ActiveDays)
		if err != nil {
			return fmt.Errorf("budget totals: %w", err)
		}
		if out.ActiveDays > 0 {
			out.DailyAvgSpend = out.TotalSpend / float64(out.ActiveDays)
		}

		cats, err := db.QueryContext(ctx, `SELECT category, COALESCE(SUM(amount), 0) AS total_spend
			FROM expenses WHERE `+inMonth+`
			GROUP BY category ORDER BY total_spend DESC LIMIT ?`, month, top)
		if err != nil {
			return fmt.Errorf("budget categories: %w", err)
		}
		for cats.Next() {
			var c domain.CategorySpend
			if err := cats.Scan(&c.Category, &c.TotalSpend); err != nil {
				cats.Close()
				return fmt.Errorf("scan budget category: %w", err)
			}
			out.TopCategories = append(out.TopCategories, c)
		}
		cats.Close()
		if err := cats.Err(); err != nil {
			return err
		}

		modes, err := db.QueryContext(ctx, `SELECT payment_mode, COALESCE(SUM(amount), 0) AS total_spend
			FROM expenses WHERE `+inMonth+`
			GROUP BY payment_mode ORDER BY total_spend DESC`, month)
		if err != nil {
			return fmt.Errorf("budget payment modes: %w", err)
		}
		defer modes.Close()
		for modes.Next() {
			var p domain.PaymentModeSpend
			if err := modes.Scan(&p.PaymentMode, &p.TotalSpend); err != nil {
				return fmt.Errorf("scan budget payment mode: %w", err)
			}
			out.PaymentModes = append(out.PaymentModes, p)
		}
		return modes.Err()
	})
	return out, err
}
