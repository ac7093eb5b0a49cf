package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"finance-agent/domain"
)

type IncomeRepository interface {
	Summary(ctx context.Context, r domain.DateRange) (domain.IncomeSummary, error)
	BySource(ctx context.Context, r domain.DateRange) ([]domain.SourceIncome, error)
	Monthly(ctx context.Context, year int) ([]domain.MonthlyIncome, error)
	Search(ctx context.Context, q string, r domain.DateRange, limit int) ([]domain.IncomeEvent, error)
}

var IncomeSchema = TableSchema{
	Name: "income",
	Columns: []Column{
		{Source: "date", Name: "date", Kind: DateColumn},
		{Source: "amount", Name: "amount", Kind: RealColumn},
		{Source: "source", Name: "source", Kind: TextColumn},
	},
}

type SQLIncomeRepository struct {
	table *CSVTable
}

func NewSQLIncomeRepository(path string, log logrus.FieldLogger) *SQLIncomeRepository {
	return &SQLIncomeRepository{table: NewCSVTable(path, IncomeSchema, log)}
}

func (r *SQLIncomeRepository) Close() error {
	return r.table.Close()
}

func (r *SQLIncomeRepository) Summary(ctx context.Context, dr domain.DateRange) (domain.IncomeSummary, error) {
	var out domain.IncomeSummary
	conds, args := rangeFilter("date", dr)
	q := `SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0), MIN(date), MAX(date)
		FROM income ` + whereSQL(conds)

	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		var minDate, maxDate sql.NullString
		if err := db.QueryRowContext(ctx, q, args...).Scan(
			&out.NumIncomeEvents, &out.TotalIncome, &out.AvgIncome, &minDate, &maxDate,
		); err != nil {
			return fmt.Errorf("income summary: %w", err)
		}
		out.MinDate = nullableString(minDate)
		out.MaxDate = nullableString(maxDate)
		return nil
	})
	return out, err
}

func (r *SQLIncomeRepository) BySource(ctx context.Context, dr domain.DateRange) ([]domain.SourceIncome, error) {
	conds, args := rangeFilter("date", dr)
	q := `SELECT source, COALESCE(SUM(amount), 0) AS total_income, COUNT(*)
		FROM income ` + whereSQL(conds) + `
		GROUP BY source
		ORDER BY total_income DESC`

	out := []domain.SourceIncome{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("income by source: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var s domain.SourceIncome
			if err := rows.Scan(&s.Source, &s.TotalIncome, &s.EventCount); err != nil {
				return fmt.Errorf("scan source: %w", err)
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SQLIncomeRepository) Monthly(ctx context.Context, year int) ([]domain.MonthlyIncome, error) {
	q := `SELECT strftime('%Y-%m', date) AS month, COALESCE(SUM(amount), 0), COUNT(*)
		FROM income
		WHERE strftime('%Y', date) = ?
		GROUP BY month
		ORDER BY month`

	out := []domain.MonthlyIncome{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, strconv.Itoa(year))
		if err != nil {
			return fmt.Errorf("monthly income: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var m domain.MonthlyIncome
			if err := rows.Scan(&m.Month, &m.TotalIncome, &m.EventCount); err != nil {
				return fmt.Errorf("scan month: %w", err)
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	return out, err
}

func (r *SQLIncomeRepository) Search(ctx context.Context, term string, dr domain.DateRange, limit int) ([]domain.IncomeEvent, error) {
	conds := []string{"LOWER(source) LIKE LOWER(?)"}
	args := []any{"%" + term + "%"}
	rc, ra := rangeFilter("date", dr)
	conds = append(conds, rc...)
	args = append(args, ra...)
	args = append(args, limit)

	q := `SELECT date, amount, source
		FROM income ` + whereSQL(conds) + `
		ORDER BY date DESC
		LIMIT ?`

	out := []domain.IncomeEvent{}
	err := r.table.Query(ctx, func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("search income: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e      domain.IncomeEvent
				date   sql.NullString
				amount sql.NullFloat64
			)
			if err := rows.Scan(&date, &amount, &e.Source); err != nil {
				return fmt.Errorf("scan income event: %w", err)
			}
			e.Date = nullableString(date)
			e.Amount = nullableFloat(amount)
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}
