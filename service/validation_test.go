package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-agent/domain"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.Strategy
		wantErr bool
	}{
		{raw: "", want: domain.Avalanche},
		{raw: "avalanche", want: domain.Avalanche},
		{raw: "avalanche-default", want: domain.Avalanche},
		{raw: " Snowball ", want: domain.Snowball},
		{raw: "hybrid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStrategy(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, validateDateRange(domain.DateRange{}))
	assert.NoError(t, validateDateRange(domain.DateRange{Start: "2024-01-01", End: "2024-12-31"}))

	err := validateDateRange(domain.DateRange{Start: "01/02/2024"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "start must be YYYY-MM-DD")

	err = validateDateRange(domain.DateRange{End: "2024-13-01"})
	assert.EqualError(t, err, "end must be YYYY-MM-DD")
}

func TestValidateMonth(t *testing.T) {
	assert.NoError(t, validateMonth("2024-03"))
	assert.ErrorIs(t, validateMonth("2024-3-01"), domain.ErrInvalidInput)
	assert.ErrorIs(t, validateMonth(""), domain.ErrInvalidInput)
}
