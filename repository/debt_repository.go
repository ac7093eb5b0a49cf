package repository

import (
	"context"
	"math"
	"strconv"

	"finance-agent/domain"
)

type DebtRepository interface {
	List(ctx context.Context) ([]domain.Debt, error)
}

// CSVDebtRepository reads debts from a CSV file with the columns
// name, balance, apr and min_payment. The file is read on every call.
type CSVDebtRepository struct {
	path string
}

func NewCSVDebtRepository(path string) *CSVDebtRepository {
	return &CSVDebtRepository{path: path}
}

// NormalizeAPR turns percent-scale rates (23.99) into fractions (0.2399).
// Values at or below 1.0 are already fractions.
func NormalizeAPR(apr float64) float64 {
	if apr > 1.0 {
		return apr / 100.0
	}
	return apr
}

func (r *CSVDebtRepository) List(ctx context.Context) ([]domain.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := readCSV(r.path)
	if err != nil {
		return nil, err
	}
	if err := file.require("name", "balance", "apr", "min_payment"); err != nil {
		return nil, err
	}

	debts := make([]domain.Debt, 0, len(file.rows))
	for i, row := range file.rows {
		line := i + 2
		balance, err := parseAmount(file.cell(row, "balance"), "balance", line)
		if err != nil {
			return nil, err
		}
		apr, err := parseNumber(file.cell(row, "apr"), "apr", line)
		if err != nil {
			return nil, err
		}
		minPayment, err := parseAmount(file.cell(row, "min_payment"), "min_payment", line)
		if err != nil {
			return nil, err
		}
		debts = append(debts, domain.Debt{
			Name:       file.cell(row, "name"),
			Balance:    balance,
			APR:        NormalizeAPR(apr),
			MinPayment: minPayment,
		})
	}
	return debts, nil
}

func parseNumber(raw, column string, line int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.SchemaMismatch("line %d: %s %q is not a number", line, column, raw)
	}
	return v, nil
}

func parseAmount(raw, column string, line int) (float64, error) {
	v, err := parseNumber(raw, column, line)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, domain.SchemaMismatch("line %d: %s %q must not be negative", line, column, raw)
	}
	return v, nil
}
