package service

import (
	"context"

	"finance-agent/domain"
	"finance-agent/repository"
)

type IncomeService struct {
	repo repository.IncomeRepository
}

func NewIncomeService(repo repository.IncomeRepository) *IncomeService {
	return &IncomeService{repo: repo}
}

func (s *IncomeService) Summary(ctx context.Context, r domain.DateRange) (domain.IncomeSummary, error) {
	if err := validateDateRange(r); err != nil {
		return domain.IncomeSummary{}, err
	}
	return s.repo.Summary(ctx, r)
}

func (s *IncomeService) BySource(ctx context.Context, r domain.DateRange) ([]domain.SourceIncome, error) {
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	return s.repo.BySource(ctx, r)
}

func (s *IncomeService) Monthly(ctx context.Context, year int) ([]domain.MonthlyIncome, error) {
	if year < 1 || year > 9999 {
		return nil, domain.InvalidInput("year out of range")
	}
	return s.repo.Monthly(ctx, year)
}

func (s *IncomeService) Search(ctx context.Context, q string, r domain.DateRange) ([]domain.IncomeEvent, error) {
	q, err := requireTerm(q)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, q, r, IncomeSearchLimit)
}
