// Package export writes the daily weigh-in sheet and the step summary to an xlsx workbook.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"example.com/wellness/internal/domain"
)

// Activity type groups summed into the sheet's distance columns.
var (
	RunningTypeIDs  = []int{1, 18}
	UltimateTypeIDs = []int{213}
)

// DayRow is one line of the daily weigh-in sheet. Nil fields stay blank.
type DayRow struct {
	Date          time.Time
	WeightLbs     *float64
	RunningMiles  *float64
	UltimateMiles *float64
}

type dayAcc struct {
	weights  []decimal.Decimal
	running  decimal.Decimal
	ranAny   bool
	ultimate decimal.Decimal
	ultAny   bool
}

// BuildDayRows produces one row per day from from through to: the mean weight of the day's weigh-ins
// in pounds to one place, and the day's running and ultimate distances in miles to two places.
func BuildDayRows(from, to time.Time, weighIns []domain.WeighIn, activities []domain.Activity) []DayRow {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if to.Before(from) {
		from, to = to, from
	}

	days := make(map[time.Time]*dayAcc)
	acc := func(day time.Time) *dayAcc {
		a, ok := days[day]
		if !ok {
			a = &dayAcc{}
			days[day] = a
		}
		return a
	}

	for _, w := range weighIns {
		a := acc(domain.DateOf(w.CalendarDate))
		a.weights = append(a.weights, decimal.NewFromFloat(w.WeightLbs))
	}
	for _, act := range activities {
		day := domain.DateOf(act.StartTimeLocal)
		metres := decimal.NewFromFloat(act.Distance)
		switch {
		case hasType(RunningTypeIDs, act.Type.TypeID):
			a := acc(day)
			a.running = a.running.Add(metres)
			a.ranAny = true
		case hasType(UltimateTypeIDs, act.Type.TypeID):
			a := acc(day)
			a.ultimate = a.ultimate.Add(metres)
			a.ultAny = true
		}
	}

	rows := make([]DayRow, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		row := DayRow{Date: day}
		if a, ok := days[day]; ok {
			if len(a.weights) > 0 {
				avg, _ := decimal.Avg(a.weights[0], a.weights[1:]...).Round(1).Float64()
				row.WeightLbs = &avg
			}
			if a.ranAny {
				row.RunningMiles = miles(a.running)
			}
			if a.ultAny {
				row.UltimateMiles = miles(a.ultimate)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func miles(metres decimal.Decimal) *float64 {
	m := domain.MetresToMiles(metres.InexactFloat64())
	return &m
}

func hasType(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
