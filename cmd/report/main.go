package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"example.com/wellness/internal/bootstrap"
	"example.com/wellness/internal/config"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/export"
	"example.com/wellness/internal/report"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	yesterday := domain.FormatDate(time.Now().AddDate(0, 0, -1))
	end := flag.String("end", yesterday, "report end date, YYYY-MM-DD")
	from := flag.String("from", "", "first day of the xlsx daily sheet (defaults to January 1st of -end's year)")
	xlsx := flag.String("xlsx", "", "also write the daily sheet and summary to this xlsx file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closer, err := bootstrap.Logger("report", cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	endDate, err := domain.ParseDate(*end)
	if err != nil {
		logger.Error("invalid -end", "error", err)
		return 1
	}
	fromDate := report.YearStart(endDate)
	if *from != "" {
		if fromDate, err = domain.ParseDate(*from); err != nil {
			logger.Error("invalid -from", "error", err)
			return 1
		}
	}

	ctx := context.Background()
	storage, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer storage.Close()

	if err := run(ctx, storage.Store, cfg.AnnualStepTarget, fromDate, endDate, *xlsx, os.Stdout, logger); err != nil {
		logger.Error("report failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, reader domain.Reader, target int64, from, end time.Time, xlsxPath string, out io.Writer, logger *slog.Logger) error {
	days, err := reader.DailyStats(ctx, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("load daily stats: %w", err)
	}
	summary := report.Compute(days, end, target)
	if err := report.WriteText(out, summary); err != nil {
		return err
	}
	if xlsxPath == "" {
		return nil
	}

	weighIns, err := reader.WeighIns(ctx, from, end)
	if err != nil {
		return fmt.Errorf("load weigh-ins: %w", err)
	}
	acts, _, err := reader.Activities(ctx, domain.ActivityFilter{
		TypeIDs: append(append([]int(nil), export.RunningTypeIDs...), export.UltimateTypeIDs...),
		From:    from,
		To:      end,
	})
	if err != nil {
		return fmt.Errorf("load activities: %w", err)
	}

	rows := export.BuildDayRows(from, end, weighIns, acts)
	if err := export.SaveFile(xlsxPath, rows, summary); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}
	logger.Info("workbook written", "path", xlsxPath, "days", len(rows))
	return nil
}
