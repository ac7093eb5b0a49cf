package service

import (
	"fmt"
	"math"
	"sort"

	"finance-agent/domain"
)

// roundTo2Decimals rounds half away from zero to cents.
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// ClampScheduleMonths keeps a requested preview length within the range the
// HTTP layer accepts.
func ClampScheduleMonths(n int) int {
	if n < MinScheduleMonths {
		return MinScheduleMonths
	}
	if n > MaxScheduleMonths {
		return MaxScheduleMonths
	}
	return n
}

// orderTargets sorts the still-open debts by extra-payment priority.
// Avalanche: APR desc, then balance asc. Snowball: balance asc, then APR desc.
func orderTargets(debts []*domain.Debt, strategy domain.Strategy) {
	sort.SliceStable(debts, func(i, j int) bool {
		a, b := debts[i], debts[j]
		if strategy == domain.Snowball {
			if a.Balance != b.Balance {
				return a.Balance < b.Balance
			}
			return a.APR > b.APR
		}
		if a.APR != b.APR {
			return a.APR > b.APR
		}
		return a.Balance < b.Balance
	})
}

// SimulatePayoff runs the month-by-month amortization. debts is copied on
// entry and never modified. Any strategy other than snowball is treated as
// avalanche.
func SimulatePayoff(
	debts []domain.Debt,
	extraPayment float64,
	strategy domain.Strategy,
	maxMonths int,
	scheduleMonths int,
) domain.PayoffResult {

	work := make([]domain.Debt, len(debts))
	copy(work, debts)

	if !(extraPayment > 0) {
		extraPayment = 0
	}

	open := func() bool {
		for i := range work {
			if work[i].Balance > paidOffEpsilon {
				return true
			}
		}
		return false
	}

	totalInterest := 0.0
	month := 0
	schedule := []domain.MonthSnapshot{}
	interest := make([]float64, len(work))
	paid := make([]float64, len(work))

	for month < maxMonths && open() {
		month++

		// 1) monthly interest
		for i := range work {
			interest[i] = 0
			paid[i] = 0
			d := &work[i]
			if d.Balance <= paidOffEpsilon {
				continue
			}
			accrued := d.Balance * (d.APR / 12)
			d.Balance += accrued
			totalInterest += accrued
			interest[i] = accrued
		}

		// 2) minimum payments, capped at the balance
		for i := range work {
			d := &work[i]
			if d.Balance <= paidOffEpsilon {
				continue
			}
			pay := math.Min(d.MinPayment, d.Balance)
			d.Balance -= pay
			paid[i] += pay
		}

		// 3) extra payment cascades in strategy order
		targets := make([]*domain.Debt, 0, len(work))
		index := make(map[*domain.Debt]int, len(work))
		for i := range work {
			if work[i].Balance > paidOffEpsilon {
				targets = append(targets, &work[i])
				index[&work[i]] = i
			}
		}
		orderTargets(targets, strategy)

		remaining := extraPayment
		for _, d := range targets {
			if remaining <= extraExhaustedEpsilon {
				break
			}
			pay := math.Min(remaining, d.Balance)
			d.Balance -= pay
			paid[index[d]] += pay
			remaining -= pay
		}

		if len(schedule) < scheduleMonths {
			snapshot := make([]domain.DebtSnapshot, len(work))
			monthTotal := 0.0
			for i, d := range work {
				snapshot[i] = domain.DebtSnapshot{
					Name:          d.Name,
					Interest:      roundTo2Decimals(interest[i]),
					Payment:       roundTo2Decimals(paid[i]),
					EndingBalance: roundTo2Decimals(math.Max(d.Balance, 0)),
				}
				monthTotal += paid[i]
			}
			schedule = append(schedule, domain.MonthSnapshot{
				Month:        month,
				Debts:        snapshot,
				TotalPayment: roundTo2Decimals(monthTotal),
			})
		}
	}

	result := domain.PayoffResult{
		Strategy:          strategy,
		ExtraPayment:      roundTo2Decimals(extraPayment),
		TotalInterestPaid: roundTo2Decimals(totalInterest),
		SchedulePreview:   schedule,
		Note:              fmt.Sprintf("Schedule preview limited to first %d months.", scheduleMonths),
	}
	if !open() {
		months := month
		years := roundTo2Decimals(float64(months) / 12)
		result.PayoffMonths = &months
		result.PayoffYears = &years
	}
	return result
}

// CompareStrategies simulates avalanche and snowball with the default
// horizon and recommends the one that pays less interest. No recommendation
// is made unless both runs pay everything off.
func CompareStrategies(debts []domain.Debt, extraPayment float64) domain.ComparisonResult {
	av := SimulatePayoff(debts, extraPayment, domain.Avalanche, DefaultMaxPayoffMonths, DefaultScheduleMonths)
	sn := SimulatePayoff(debts, extraPayment, domain.Snowball, DefaultMaxPayoffMonths, DefaultScheduleMonths)

	result := domain.ComparisonResult{
		ExtraPayment: roundTo2Decimals(extraPayment),
		Avalanche:    av,
		Snowball:     sn,
	}
	if !av.Converged() || !sn.Converged() {
		return result
	}

	winner := domain.RecommendationTie
	switch {
	case av.TotalInterestPaid < sn.TotalInterestPaid:
		winner = string(domain.Avalanche)
	case sn.TotalInterestPaid < av.TotalInterestPaid:
		winner = string(domain.Snowball)
	}
	diff := roundTo2Decimals(math.Abs(av.TotalInterestPaid - sn.TotalInterestPaid))
	result.Recommended = &winner
	result.InterestDifference = &diff
	return result
}
