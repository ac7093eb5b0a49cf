package service

import "time"

const (
	DefaultMaxPayoffMonths = 600 // 50 years
	DefaultScheduleMonths  = 24
	MinScheduleMonths      = 1
	MaxScheduleMonths      = 60

	// paidOffEpsilon: balances at or below this are treated as paid off.
	paidOffEpsilon = 1e-6
	// extraExhaustedEpsilon: remaining extra budget below this is spent.
	extraExhaustedEpsilon = 1e-9

	DefaultTopCategories = 5
	MaxTopCategories     = 100
	SpendSearchLimit     = 50
	IncomeSearchLimit    = 100
	BudgetTopCategories  = 5
	DefaultIncomeYear    = 2024

	DefaultTokenRefreshSkew = 2 * time.Minute
	DefaultTokenLifetime    = 3600 * time.Second
)
