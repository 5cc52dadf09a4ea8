package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the reporting window for a summary.
type Granularity string

const (
	GranularityDaily     Granularity = "daily"
	GranularityWeekly    Granularity = "weekly"
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityYearly    Granularity = "yearly"
)

// Valid reports whether the granularity is known.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly,
		GranularityQuarterly, GranularityYearly:
		return true
	}
	return false
}

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodOf returns the calendar window containing anchor for the given
// granularity. Boundaries are taken from the local calendar in loc (weeks
// start on Saturday), never from fixed-length rolling windows.
func PeriodOf(anchor time.Time, g Granularity, loc *time.Location) Period {
	t := anchor.In(loc)
	y, m, d := t.Date()

	switch g {
	case GranularityDaily:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(0, 0, 1)}
	case GranularityWeekly:
		// Days elapsed since the most recent Saturday.
		sinceSat := (int(t.Weekday()) - int(time.Saturday) + 7) % 7
		start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -sinceSat)
		return Period{Start: start, End: start.AddDate(0, 0, 7)}
	case GranularityMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(0, 1, 0)}
	case GranularityQuarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start := time.Date(y, qm, 1, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(0, 3, 0)}
	default: // GranularityYearly
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(1, 0, 0)}
	}
}

// MonthsIn splits a period into consecutive calendar months. The period
// start must fall on a month boundary (quarter and year windows do).
func (p Period) MonthsIn() []Period {
	var months []Period
	for cur := p.Start; cur.Before(p.End); cur = cur.AddDate(0, 1, 0) {
		months = append(months, Period{Start: cur, End: cur.AddDate(0, 1, 0)})
	}
	return months
}

// QuartersIn splits a period into consecutive calendar quarters.
func (p Period) QuartersIn() []Period {
	var quarters []Period
	for cur := p.Start; cur.Before(p.End); cur = cur.AddDate(0, 3, 0) {
		quarters = append(quarters, Period{Start: cur, End: cur.AddDate(0, 3, 0)})
	}
	return quarters
}

// PeriodSummary is the reconciliation result for one window. Sub-period
// breakdowns are present for quarterly (months) and yearly (months and
// quarters) summaries only.
type PeriodSummary struct {
	Granularity Granularity `json:"granularity"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`

	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`

	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalFees        decimal.Decimal `json:"total_fees"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetChange        decimal.Decimal `json:"net_change"`

	TransactionCount int64 `json:"transaction_count"`
	ExpenseCount     int64 `json:"expense_count"`

	Months   []PeriodSummary `json:"months,omitempty"`
	Quarters []PeriodSummary `json:"quarters,omitempty"`
}
