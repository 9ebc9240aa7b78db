package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/report"
)

var (
	july1 = time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
	july3 = time.Date(2023, time.July, 3, 0, 0, 0, 0, time.UTC)
)

func sampleData() ([]domain.WeighIn, []domain.Activity) {
	weighIns := []domain.WeighIn{
		{WeighInID: 1, CalendarDate: july1, WeightLbs: 180.0},
		{WeighInID: 2, CalendarDate: july1, WeightLbs: 181.3},
		{WeighInID: 3, CalendarDate: july3, WeightLbs: 179.2},
	}
	activities := []domain.Activity{
		{ActivityID: 10, StartTimeLocal: july1.Add(7 * time.Hour), Type: domain.ActivityType{TypeID: 1}, Distance: 5000},
		{ActivityID: 11, StartTimeLocal: july1.Add(18 * time.Hour), Type: domain.ActivityType{TypeID: 18}, Distance: 3000},
		{ActivityID: 12, StartTimeLocal: july3.Add(19 * time.Hour), Type: domain.ActivityType{TypeID: 213}, Distance: 4000},
		{ActivityID: 13, StartTimeLocal: july3.Add(9 * time.Hour), Type: domain.ActivityType{TypeID: 2}, Distance: 40000},
	}
	return weighIns, activities
}

func TestBuildDayRows(t *testing.T) {
	weighIns, activities := sampleData()

	rows := BuildDayRows(july3, july1, weighIns, activities)
	require.Len(t, rows, 3)

	require.Equal(t, july1, rows[0].Date)
	require.InDelta(t, 180.7, *rows[0].WeightLbs, 1e-9)
	// 8000 m of running and treadmill.
	require.InDelta(t, 4.97, *rows[0].RunningMiles, 1e-9)
	require.Nil(t, rows[0].UltimateMiles)

	require.Nil(t, rows[1].WeightLbs)
	require.Nil(t, rows[1].RunningMiles)

	require.InDelta(t, 179.2, *rows[2].WeightLbs, 1e-9)
	require.Nil(t, rows[2].RunningMiles, "cycling is not counted")
	require.InDelta(t, 2.49, *rows[2].UltimateMiles, 1e-9)
}

func TestWriteWorkbook(t *testing.T) {
	weighIns, activities := sampleData()
	rows := BuildDayRows(july1, july3, weighIns, activities)
	summary := report.Compute([]domain.DailyStat{
		{Date: july1, TotalSteps: 12000, StepGoal: 10000},
		{Date: july3, TotalSteps: 8000, StepGoal: 10000},
	}, july3, 0)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	daily, err := f.GetRows(DailySheet)
	require.NoError(t, err)
	require.Len(t, daily, 4)
	require.Equal(t, []string{"Date", "Weight (lbs)", "Running (mi)", "Ultimate (mi)"}, daily[0])
	require.Equal(t, []string{"07/01/2023", "180.7", "4.97"}, daily[1])
	require.Equal(t, []string{"07/02/2023"}, daily[2])
	require.Equal(t, []string{"07/03/2023", "179.2", "", "2.49"}, daily[3])

	stats, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Equal(t, []string{"Data through", "2023-07-03"}, stats[0])
	require.Equal(t, []string{"Steps this year", "20000"}, stats[7])
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weigh-ins.xlsx")
	require.NoError(t, SaveFile(path, BuildDayRows(july1, july1, nil, nil), report.Compute(nil, july1, 0)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{DailySheet, SummarySheet}, f.GetSheetList())
}
