package report

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"example.com/wellness/internal/domain"
)

const unavailable = "n/a"

// WriteText renders the console report.
func WriteText(w io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)

	percent := func(win Window) string {
		v, ok := win.MetPercent()
		if !ok {
			return unavailable
		}
		return p.Sprintf("%.2f", v) + "%"
	}
	average := func(win Window) string {
		v, ok := win.AveragePerDay()
		if !ok {
			return unavailable
		}
		return p.Sprintf("%.0f", v)
	}

	sign := ""
	if s.PaceDiff >= 0 {
		sign = "+"
	}
	required := unavailable
	if v, ok := s.RequiredDailyAverage(); ok {
		required = p.Sprintf("%d", int64(v))
	}

	lines := []string{
		p.Sprintf("%d of %d (%s) this year\n", s.YTD.Met, s.YTD.Days, percent(s.YTD)),
		p.Sprintf("%d of %d (%s) total lifetime\n", s.Lifetime.Met, s.Lifetime.Days, percent(s.Lifetime)),
		p.Sprintf("%d of %d (%s) year start\n\n", s.Prior.Met, s.Prior.Days, percent(s.Prior)),
		p.Sprintf("%d steps this year (%s / day avg)\n", s.YTD.Steps, average(s.YTD)),
		p.Sprintf("%d steps total (%s / day avg)\n", s.Lifetime.Steps, average(s.Lifetime)),
		p.Sprintf("%d year start (%s / day avg)\n\n", s.Prior.Steps, average(s.Prior)),
		"Data through " + domain.FormatDate(s.EndDate) + "\n",
		p.Sprintf("\nPace for year's goal is %.0f (%s%.0f)\n", s.GoalPace, sign, s.PaceDiff),
		p.Sprintf("Need %d more steps this year (avg of %s per day)\n", s.Remaining, required),
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
