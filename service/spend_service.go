package service

import (
	"context"

	"finance-agent/domain"
	"finance-agent/repository"
)

type SpendService struct {
	repo repository.SpendRepository
}

func NewSpendService(repo repository.SpendRepository) *SpendService {
	return &SpendService{repo: repo}
}

func (s *SpendService) Summary(ctx context.Context, r domain.DateRange) (domain.SpendSummary, error) {
	if err := validateDateRange(r); err != nil {
		return domain.SpendSummary{}, err
	}
	return s.repo.Summary(ctx, r)
}

// TopCategories returns the k biggest categories; k is clamped to
// [1, MaxTopCategories].
func (s *SpendService) TopCategories(ctx context.Context, r domain.DateRange, k int) ([]domain.CategorySpend, error) {
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	k = max(1, min(k, MaxTopCategories))
	return s.repo.TopCategories(ctx, r, k)
}

func (s *SpendService) PaymentSplit(ctx context.Context, r domain.DateRange) ([]domain.PaymentModeSpend, error) {
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	return s.repo.PaymentSplit(ctx, r)
}

func (s *SpendService) Search(ctx context.Context, q string, r domain.DateRange) ([]domain.Expense, error) {
	q, err := requireTerm(q)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, q, r, SpendSearchLimit)
}

func (s *SpendService) BudgetAdvice(ctx context.Context, month string) (domain.BudgetAdvice, error) {
	if err := validateMonth(month); err != nil {
		return domain.BudgetAdvice{}, err
	}
	return s.repo.BudgetAdvice(ctx, month, BudgetTopCategories)
}
