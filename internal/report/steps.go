// Package report derives year-to-date step summaries from stored daily stats.
package report

import (
	"time"

	"example.com/wellness/internal/domain"
)

// DefaultAnnualTarget is the yearly step goal used when none is configured.
const DefaultAnnualTarget int64 = 5_000_000

const daysPerYear = 365

// Window aggregates goal attainment and steps over a set of days.
type Window struct {
	Days  int   `json:"days"`
	Met   int   `json:"met"`
	Steps int64 `json:"steps"`
}

func (w *Window) add(stat domain.DailyStat) {
	w.Days++
	w.Steps += int64(stat.TotalSteps)
	if stat.MetStepGoal() {
		w.Met++
	}
}

// MetPercent is the share of days on which the goal was met, in percent. It is undefined for an empty window.
func (w Window) MetPercent() (float64, bool) {
	if w.Days == 0 {
		return 0, false
	}
	return float64(w.Met) / float64(w.Days) * 100, true
}

// AveragePerDay is the mean step count. It is undefined for an empty window.
func (w Window) AveragePerDay() (float64, bool) {
	if w.Days == 0 {
		return 0, false
	}
	return float64(w.Steps) / float64(w.Days), true
}

// Summary is the year-to-date report for one end date.
type Summary struct {
	EndDate      time.Time
	AnnualTarget int64
	Lifetime     Window
	YTD          Window
	// Prior covers everything stored outside the current year window.
	Prior Window

	GoalPace      float64
	PaceDiff      float64
	Remaining     int64
	DaysRemaining int
}

// RequiredDailyAverage is the steps per day needed over the rest of the year to hit the target.
// It is undefined once no days remain.
func (s Summary) RequiredDailyAverage() (float64, bool) {
	if s.DaysRemaining <= 0 {
		return 0, false
	}
	return float64(s.Remaining) / float64(s.DaysRemaining), true
}

// YearStart returns January 1st of the end date's year.
func YearStart(endDate time.Time) time.Time {
	return time.Date(endDate.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Compute aggregates days for endDate. Lifetime covers every row given; the YTD window runs from January 1st
// of the end date's year through the end date inclusive. A non-positive target falls back to
// DefaultAnnualTarget.
func Compute(days []domain.DailyStat, endDate time.Time, annualTarget int64) Summary {
	if annualTarget <= 0 {
		annualTarget = DefaultAnnualTarget
	}
	end := domain.DateOf(endDate)
	start := YearStart(end)

	s := Summary{EndDate: end, AnnualTarget: annualTarget}
	for _, stat := range days {
		s.Lifetime.add(stat)
		date := domain.DateOf(stat.Date)
		if !date.Before(start) && !date.After(end) {
			s.YTD.add(stat)
		}
	}
	s.Prior = Window{
		Days:  s.Lifetime.Days - s.YTD.Days,
		Met:   s.Lifetime.Met - s.YTD.Met,
		Steps: s.Lifetime.Steps - s.YTD.Steps,
	}

	s.GoalPace = float64(annualTarget) / daysPerYear * float64(s.YTD.Days)
	s.PaceDiff = float64(s.YTD.Steps) - s.GoalPace
	s.Remaining = annualTarget - s.YTD.Steps
	s.DaysRemaining = daysPerYear - s.YTD.Days
	return s
}
