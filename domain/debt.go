package domain

// Strategy selects which debt receives the extra payment first.
type Strategy string

const (
	Avalanche Strategy = "avalanche" // highest APR first
	Snowball  Strategy = "snowball"  // smallest balance first
)

// Debt is one obligation fed to the payoff simulator. APR is a fraction
// (0.2399 for 23.99%).
type Debt struct {
	Name       string  `json:"name"`
	Balance    float64 `json:"balance"`
	APR        float64 `json:"apr"`
	MinPayment float64 `json:"min_payment"`
}

type DebtSnapshot struct {
	Name          string  `json:"name"`
	Interest      float64 `json:"interest"`
	Payment       float64 `json:"payment"`
	EndingBalance float64 `json:"ending_balance"`
}

type MonthSnapshot struct {
	Month        int            `json:"month"`
	Debts        []DebtSnapshot `json:"debts"`
	TotalPayment float64        `json:"total_payment"`
}

// PayoffResult summarizes one simulation run. PayoffMonths and PayoffYears
// are nil when the debts were not paid off within the horizon.
type PayoffResult struct {
	Strategy          Strategy        `json:"strategy"`
	ExtraPayment      float64         `json:"extra_payment"`
	PayoffMonths      *int            `json:"payoff_months"`
	PayoffYears       *float64        `json:"payoff_years"`
	TotalInterestPaid float64         `json:"total_interest_paid"`
	SchedulePreview   []MonthSnapshot `json:"schedule_preview"`
	Note              string          `json:"note"`
}

// Converged reports whether every debt was paid off.
func (r PayoffResult) Converged() bool {
	return r.PayoffMonths != nil
}

const RecommendationTie = "tie"

type ComparisonResult struct {
	ExtraPayment       float64      `json:"extra_payment"`
	Avalanche          PayoffResult `json:"avalanche"`
	Snowball           PayoffResult `json:"snowball"`
	Recommended        *string      `json:"recommended"`
	InterestDifference *float64     `json:"interest_difference"`
}
