// Package simulation implements deterministic compound-interest projection
// plus the sensitivity and Monte Carlo analyses layered on top of it.
//
// All values are float64 and no rounding happens inside the loops; rounding
// and formatting are presentation concerns.
package simulation

import (
	"errors"
	"fmt"
	"math"
)

const (
	PeriodMonths PeriodUnit = "months"
	PeriodYears  PeriodUnit = "years"
)

// MonthsPerYear is the compounding granularity of the simulator.
const MonthsPerYear = 12

type (
	// PeriodUnit qualifies Input.PeriodCount.
	PeriodUnit string

	// Input is one compound-interest scenario. The annual rate is nominal
	// and independent of the compounding unit; it is converted to an
	// effective monthly rate before the loop.
	Input struct {
		InitialValue           float64    `json:"initial_value"`
		MonthlyValue           float64    `json:"monthly_value"`
		PeriodCount            int        `json:"period_count"`
		PeriodUnit             PeriodUnit `json:"period_unit"`
		AnnualRatePercent      float64    `json:"annual_rate_percent"`
		ConsiderInflation      bool       `json:"consider_inflation"`
		AnnualInflationPercent float64    `json:"annual_inflation_percent,omitempty"`
	}

	// MonthlyRow is one compounding period of the schedule. The inflation
	// fields are only populated when the scenario tracks inflation.
	MonthlyRow struct {
		Period            int     `json:"period"`
		Contribution      float64 `json:"contribution"`
		Interest          float64 `json:"interest"`
		CumulativeBalance float64 `json:"cumulative_balance"`
		RealBalance       float64 `json:"real_balance,omitempty"`
		InflationLoss     float64 `json:"inflation_loss,omitempty"`
		RealGain          float64 `json:"real_gain,omitempty"`
	}

	// Result aggregates the full schedule and its totals.
	Result struct {
		Rows                 []MonthlyRow `json:"rows"`
		TotalInvested        float64      `json:"total_invested"`
		TotalInterest        float64      `json:"total_interest"`
		FinalBalance         float64      `json:"final_balance"`
		EffectiveMonthlyRate float64      `json:"effective_monthly_rate"`
		EffectiveDailyRate   float64      `json:"effective_daily_rate"`
		ReturnPercent        float64      `json:"return_percent"`

		FinalRealBalance   float64 `json:"final_real_balance,omitempty"`
		TotalInflationLoss float64 `json:"total_inflation_loss,omitempty"`
		RealReturnPercent  float64 `json:"real_return_percent,omitempty"`
	}
)

var (
	ErrInvalidPeriodCount = errors.New("period count must be at least 1")
	ErrNegativeValue      = errors.New("values must not be negative")
)

// Validate fails fast on invalid configuration, before any loop runs.
func (in Input) Validate() error {
	if in.PeriodCount < 1 {
		return ErrInvalidPeriodCount
	}
	switch in.PeriodUnit {
	case PeriodMonths, PeriodYears:
	default:
		return fmt.Errorf("unknown period unit: %q", in.PeriodUnit)
	}
	if in.InitialValue < 0 || in.MonthlyValue < 0 {
		return ErrNegativeValue
	}
	return nil
}

// Periods is the number of compounding months the scenario spans.
func (in Input) Periods() int {
	if in.PeriodUnit == PeriodYears {
		return in.PeriodCount * MonthsPerYear
	}
	return in.PeriodCount
}

// monthlyRate converts a nominal annual percentage to the effective monthly
// rate, (1+annual)^(1/12)-1, not a naive division by twelve.
func monthlyRate(annualPercent float64) float64 {
	return math.Pow(1+annualPercent/100, 1.0/MonthsPerYear) - 1
}

// dailyRate is the effective daily equivalent of a nominal annual rate.
func dailyRate(annualPercent float64) float64 {
	return math.Pow(1+annualPercent/100, 1.0/365) - 1
}

// Simulate runs one scenario month by month.
//
// The balance starts at the initial value, which is reported as period 1's
// contribution so the first row is meaningful; subsequent periods add the
// monthly contribution after interest accrues. A zero monthly value
// degenerates to pure compounding of the initial value. When inflation is
// tracked, a parallel deflated balance uses the same compounding pattern
// with the inflation rate, and each row reports the period's inflation loss
// and real gain.
func Simulate(in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	periods := in.Periods()
	rate := monthlyRate(in.AnnualRatePercent)
	inflation := 0.0
	if in.ConsiderInflation {
		inflation = monthlyRate(in.AnnualInflationPercent)
	}

	res := &Result{
		Rows:                 make([]MonthlyRow, 0, periods),
		EffectiveMonthlyRate: rate,
		EffectiveDailyRate:   dailyRate(in.AnnualRatePercent),
	}

	balance := in.InitialValue
	deflator := 1.0
	totalLoss := 0.0

	for period := 1; period <= periods; period++ {
		interest := balance * rate
		balance += interest

		contribution := in.MonthlyValue
		if period == 1 {
			contribution = in.InitialValue
		} else {
			balance += in.MonthlyValue
		}

		row := MonthlyRow{
			Period:            period,
			Contribution:      contribution,
			Interest:          interest,
			CumulativeBalance: balance,
		}

		if in.ConsiderInflation {
			deflator *= 1 + inflation
			loss := balance * inflation
			totalLoss += loss
			row.RealBalance = balance / deflator
			row.InflationLoss = loss
			row.RealGain = interest - loss
		}

		res.Rows = append(res.Rows, row)
	}

	res.FinalBalance = balance
	res.TotalInvested = in.InitialValue + in.MonthlyValue*float64(periods-1)
	res.TotalInterest = res.FinalBalance - res.TotalInvested
	if res.TotalInvested > 0 {
		res.ReturnPercent = res.TotalInterest / res.TotalInvested * 100
	}

	if in.ConsiderInflation {
		res.FinalRealBalance = balance / deflator
		res.TotalInflationLoss = totalLoss
		if res.TotalInvested > 0 {
			res.RealReturnPercent = (res.FinalRealBalance - res.TotalInvested) / res.TotalInvested * 100
		}
	}

	return res, nil
}
