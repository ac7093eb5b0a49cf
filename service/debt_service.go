package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"finance-agent/domain"
	"finance-agent/repository"
)

type PlanInput struct {
	Strategy       domain.Strategy
	ExtraPayment   float64
	ScheduleMonths int
}

// DebtService loads the debt set and runs the payoff simulator on it.
// Every call works on a freshly loaded list.
type DebtService struct {
	repo repository.DebtRepository
	log  logrus.FieldLogger
}

func NewDebtService(repo repository.DebtRepository, log logrus.FieldLogger) *DebtService {
	return &DebtService{
		repo: repo,
		log:  log.WithField("component", "debt"),
	}
}

func (s *DebtService) ListDebts(ctx context.Context) ([]domain.Debt, error) {
	debts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load debts: %w", err)
	}
	return debts, nil
}

func (s *DebtService) Plan(ctx context.Context, input PlanInput) (domain.PayoffResult, error) {
	debts, err := s.ListDebts(ctx)
	if err != nil {
		return domain.PayoffResult{}, err
	}

	months := ClampScheduleMonths(input.ScheduleMonths)
	result := SimulatePayoff(debts, input.ExtraPayment, input.Strategy, DefaultMaxPayoffMonths, months)
	if !result.Converged() {
		s.log.WithFields(logrus.Fields{
			"strategy":   input.Strategy,
			"debts":      len(debts),
			"max_months": DefaultMaxPayoffMonths,
		}).Warn("payoff did not converge within horizon")
	}
	return result, nil
}

func (s *DebtService) Compare(ctx context.Context, extraPayment float64) (domain.ComparisonResult, error) {
	debts, err := s.ListDebts(ctx)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	return CompareStrategies(debts, extraPayment), nil
}
