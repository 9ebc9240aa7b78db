package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/report"
)

// Sheet names.
const (
	DailySheet   = "daily_data"
	SummarySheet = "steps_ytd"
)

const sheetDateLayout = "01/02/2006"

var dailyHeader = []any{"Date", "Weight (lbs)", "Running (mi)", "Ultimate (mi)"}

// Write renders rows and the step summary as an xlsx workbook.
func Write(w io.Writer, rows []DayRow, summary report.Summary) error {
	f, err := build(rows, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// SaveFile writes the workbook to path.
func SaveFile(path string, rows []DayRow, summary report.Summary) error {
	f, err := build(rows, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func build(rows []DayRow, summary report.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DailySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeDaily(f, rows); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", DailySheet, err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", SummarySheet, err)
	}
	return f, nil
}

func writeDaily(f *excelize.File, rows []DayRow) error {
	if err := f.SetSheetRow(DailySheet, "A1", &dailyHeader); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.Date.Format(sheetDateLayout), optional(row.WeightLbs), optional(row.RunningMiles), optional(row.UltimateMiles)}
		if err := f.SetSheetRow(DailySheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, s report.Summary) error {
	lines := [][]any{
		{"Data through", domain.FormatDate(s.EndDate)},
		{"Annual target", s.AnnualTarget},
		{"Lifetime days", s.Lifetime.Days},
		{"Lifetime goals met", s.Lifetime.Met},
		{"Lifetime steps", s.Lifetime.Steps},
		{"Days this year", s.YTD.Days},
		{"Goals met this year", s.YTD.Met},
		{"Steps this year", s.YTD.Steps},
		{"Goal pace", s.GoalPace},
		{"Pace difference", s.PaceDiff},
		{"Steps remaining", s.Remaining},
		{"Days remaining", s.DaysRemaining},
	}
	if avg, ok := s.RequiredDailyAverage(); ok {
		lines = append(lines, []any{"Required daily average", avg})
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return err
		}
	}
	return nil
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
