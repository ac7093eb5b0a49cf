package domain

// DateRange bounds analytics queries. Empty fields are open ends; both
// ends are inclusive and formatted YYYY-MM-DD.
type DateRange struct {
	Start string
	End   string
}

type SpendSummary struct {
	NumTransactions int64   `json:"num_transactions"`
	TotalSpend      float64 `json:"total_spend"`
	AvgSpend        float64 `json:"avg_spend"`
	MinDate         *string `json:"min_date"`
	MaxDate         *string `json:"max_date"`
}

type CategorySpend struct {
	Category   string  `json:"category"`
	TotalSpend float64 `json:"total_spend"`
	TxnCount   int64   `json:"txn_count,omitempty"`
}

type PaymentModeSpend struct {
	PaymentMode string  `json:"payment_mode"`
	TotalSpend  float64 `json:"total_spend"`
	TxnCount    int64   `json:"txn_count,omitempty"`
}

type Expense struct {
	Date        *string  `json:"date"`
	Category    string   `json:"category"`
	Amount      *float64 `json:"amount"`
	PaymentMode string   `json:"payment_mode"`
}

// BudgetAdvice describes one month of spending. It feeds the agent's
// next-month budget suggestions.
type BudgetAdvice struct {
	Month         string             `json:"month"`
	TotalSpend    float64            `json:"total_spend"`
	TxnCount      int64              `json:"txn_count"`
	ActiveDays    int64              `json:"active_days"`
	DailyAvgSpend float64            `json:"daily_avg_spend"`
	TopCategories []CategorySpend    `json:"top_categories"`
	PaymentModes  []PaymentModeSpend `json:"payment_modes"`
}

type IncomeSummary struct {
	NumIncomeEvents int64   `json:"num_income_events"`
	TotalIncome     float64 `json:"total_income"`
	AvgIncome       float64 `json:"avg_income"`
	MinDate         *string `json:"min_date"`
	MaxDate         *string `json:"max_date"`
}

type SourceIncome struct {
	Source      string  `json:"source"`
	TotalIncome float64 `json:"total_income"`
	EventCount  int64   `json:"event_count"`
}

type MonthlyIncome struct {
	Month       string  `json:"month"`
	TotalIncome float64 `json:"total_income"`
	EventCount  int64   `json:"event_count"`
}

type IncomeEvent struct {
	Date   *string  `json:"date"`
	Amount *float64 `json:"amount"`
	Source string   `json:"source"`
}
