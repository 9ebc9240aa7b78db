package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
)

func stat(date string, steps, goal int) domain.DailyStat {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return domain.DailyStat{Date: d, TotalSteps: steps, StepGoal: goal}
}

func TestGoalMetRule(t *testing.T) {
	require.False(t, stat("2023-01-01", 10000, 0).MetStepGoal())
	require.True(t, stat("2023-01-01", 5000, 5000).MetStepGoal())
	require.False(t, stat("2023-01-01", 4999, 5000).MetStepGoal())
}

func TestComputeYearToDate(t *testing.T) {
	days := []domain.DailyStat{
		stat("2023-01-01", 6000, 5000),
		stat("2023-06-01", 4000, 5000),
		stat("2023-12-31", 7000, 0),
	}
	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

	s := Compute(days, end, 0)

	// The zero-goal day never counts as met, so only January 1st qualifies.
	require.Equal(t, 1, s.YTD.Met)
	require.Equal(t, 3, s.YTD.Days)
	require.EqualValues(t, 17000, s.YTD.Steps)
	avg, ok := s.Lifetime.AveragePerDay()
	require.True(t, ok)
	require.InDelta(t, 17000.0/3, avg, 1e-9)

	require.Equal(t, Window{}, s.Prior)
	_, ok = s.Prior.MetPercent()
	require.False(t, ok)
	_, ok = s.Prior.AveragePerDay()
	require.False(t, ok)

	require.Equal(t, DefaultAnnualTarget, s.AnnualTarget)
	require.InDelta(t, 5_000_000.0/365*3, s.GoalPace, 1e-6)
	require.InDelta(t, 17000-5_000_000.0/365*3, s.PaceDiff, 1e-6)
	require.EqualValues(t, 5_000_000-17000, s.Remaining)
	require.Equal(t, 362, s.DaysRemaining)
}

func TestComputeSplitsPriorYears(t *testing.T) {
	days := []domain.DailyStat{
		stat("2022-12-30", 12000, 10000),
		stat("2022-12-31", 3000, 10000),
		stat("2023-01-01", 11000, 10000),
		stat("2023-01-02", 9000, 10000),
	}
	end := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

	s := Compute(days, end, 1_000_000)

	require.Equal(t, Window{Days: 4, Met: 2, Steps: 35000}, s.Lifetime)
	require.Equal(t, Window{Days: 2, Met: 1, Steps: 20000}, s.YTD)
	require.Equal(t, Window{Days: 2, Met: 1, Steps: 15000}, s.Prior)
	pct, ok := s.YTD.MetPercent()
	require.True(t, ok)
	require.InDelta(t, 50.0, pct, 1e-9)

	req, ok := s.RequiredDailyAverage()
	require.True(t, ok)
	require.InDelta(t, float64(1_000_000-20000)/363, req, 1e-9)
}

func TestComputeEmptyHistoryIsGuarded(t *testing.T) {
	s := Compute(nil, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 0)

	_, ok := s.YTD.AveragePerDay()
	require.False(t, ok)
	_, ok = s.Lifetime.MetPercent()
	require.False(t, ok)
	require.Zero(t, s.GoalPace)
	require.Equal(t, 365, s.DaysRemaining)
}

func TestRequiredDailyAverageUndefinedWhenYearComplete(t *testing.T) {
	days := make([]domain.DailyStat, 0, 365)
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		days = append(days, domain.DailyStat{Date: start.AddDate(0, 0, i), TotalSteps: 10000, StepGoal: 10000})
	}

	s := Compute(days, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 0)
	require.Zero(t, s.DaysRemaining)
	_, ok := s.RequiredDailyAverage()
	require.False(t, ok)
}

func TestWriteText(t *testing.T) {
	days := []domain.DailyStat{
		stat("2022-12-31", 3000, 10000),
		stat("2023-01-01", 12500, 10000),
		stat("2023-01-02", 9000, 10000),
	}
	s := Compute(days, time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC), 0)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))
	out := buf.String()

	require.Contains(t, out, "1 of 2 (50.00%) this year\n")
	require.Contains(t, out, "1 of 3 (33.33%) total lifetime\n")
	require.Contains(t, out, "0 of 1 (0.00%) year start\n")
	require.Contains(t, out, "21,500 steps this year (10,750 / day avg)\n")
	require.Contains(t, out, "Data through 2023-01-02\n")
	require.Contains(t, out, "Need 4,978,500 more steps this year")
}
