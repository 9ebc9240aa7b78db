package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/normalize"
	"example.com/wellness/internal/persistence/memory"
)

type stubFetcher struct {
	wellness    []normalize.Raw
	wellnessErr error
	activities  []normalize.Raw
	weighIns    []normalize.Raw

	from, to        time.Time
	activityCalls   int
	weighInCalls    int
	metricIDsPassed []int
}

func (f *stubFetcher) FetchWellness(_ context.Context, from, to time.Time, metricIDs []int) ([]normalize.Raw, error) {
	f.from, f.to = from, to
	f.metricIDsPassed = metricIDs
	return f.wellness, f.wellnessErr
}

func (f *stubFetcher) FetchActivities(context.Context, time.Time, time.Time) ([]normalize.Raw, error) {
	f.activityCalls++
	return f.activities, nil
}

func (f *stubFetcher) FetchWeighIns(context.Context, time.Time, time.Time) ([]normalize.Raw, error) {
	f.weighInCalls++
	return f.weighIns, nil
}

func TestRunSwapsReversedWindow(t *testing.T) {
	fetcher := &stubFetcher{wellness: []normalize.Raw{wellnessRaw("2023-03-01", 1, 1)}}
	svc := NewService(memory.New(), WithLogger(quietLogger()))

	_, err := svc.Run(context.Background(), fetcher, RunRequest{
		From:      day("2023-03-05"),
		To:        day("2023-03-01"),
		MetricIDs: []int{29, 38},
	})
	require.NoError(t, err)
	require.Equal(t, day("2023-03-01"), fetcher.from)
	require.Equal(t, day("2023-03-05"), fetcher.to)
	require.Equal(t, []int{29, 38}, fetcher.metricIDsPassed)
}

func TestRunHonoursSkipFlags(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewService(memory.New(), WithLogger(quietLogger()))

	_, err := svc.Run(context.Background(), fetcher, RunRequest{
		From:           day("2023-03-01"),
		To:             day("2023-03-01"),
		SkipActivities: true,
		SkipWeighIns:   true,
	})
	require.NoError(t, err)
	require.Zero(t, fetcher.activityCalls)
	require.Zero(t, fetcher.weighInCalls)
}

func TestRunAbortsOnIncompleteFetch(t *testing.T) {
	store := memory.New()
	fetcher := &stubFetcher{
		wellnessErr: fmt.Errorf("metrics map missing: %w", domain.ErrFetchIncomplete),
		activities:  []normalize.Raw{activityRaw(1, "2023-03-01 07:00:00", running)},
	}
	svc := NewService(store, WithLogger(quietLogger()))

	_, err := svc.Run(context.Background(), fetcher, RunRequest{From: day("2023-03-01"), To: day("2023-03-01")})
	require.ErrorIs(t, err, domain.ErrFetchIncomplete)
	require.Zero(t, fetcher.activityCalls)

	acts, _, err := store.Activities(context.Background(), domain.ActivityFilter{})
	require.NoError(t, err)
	require.Empty(t, acts)
}

func TestRunReconcilesAllEntities(t *testing.T) {
	store := memory.New()
	fetcher := &stubFetcher{
		wellness:   []normalize.Raw{wellnessRaw("2023-03-01", 11000, 10000)},
		activities: []normalize.Raw{activityRaw(1, "2023-03-01 07:00:00", running)},
		weighIns: []normalize.Raw{{
			"sample_pk":     int64(99),
			"date":          int64(1677654000000),
			"calendar_date": "2023-03-01",
			"weight":        80000.0,
		}},
	}
	svc := NewService(store, WithLogger(quietLogger()))

	res, err := svc.Run(context.Background(), fetcher, RunRequest{From: day("2023-03-01"), To: day("2023-03-01")})
	require.NoError(t, err)
	require.Equal(t, 3, res.Inserted)

	weighIns, err := store.WeighIns(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, weighIns, 1)
	require.InDelta(t, 80.0, weighIns[0].WeightKg, 0.0001)
}
