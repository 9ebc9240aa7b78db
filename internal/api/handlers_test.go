package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/auth"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	for _, stat := range []domain.DailyStat{
		{Date: date(2022, time.December, 31), TotalSteps: 10000, StepGoal: 10000},
		{Date: date(2023, time.January, 1), TotalSteps: 12000, StepGoal: 10000},
		{Date: date(2023, time.January, 2), TotalSteps: 8000, StepGoal: 10000},
	} {
		_, err := domain.Reconcile(ctx, tx.DailyStats(), stat.Date, stat)
		require.NoError(t, err)
	}
	for i, typeID := range []int{1, 213, 1} {
		act := domain.Activity{
			ActivityID:     int64(100 + i),
			StartTimeLocal: date(2023, time.January, 1).Add(time.Duration(i) * time.Hour),
			Type:           domain.ActivityType{TypeID: typeID},
			Distance:       5000,
		}
		_, err := domain.Reconcile(ctx, tx.Activities(), act.ActivityID, act)
		require.NoError(t, err)
	}
	weighIn := domain.WeighIn{WeighInID: 7, CalendarDate: date(2023, time.January, 2), WeightKg: 81.647, WeightLbs: 180}
	_, err = domain.Reconcile(ctx, tx.WeighIns(), weighIn.WeighInID, weighIn)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return store
}

func newTestServer(t *testing.T, scopes ...string) http.Handler {
	t.Helper()
	handler := NewHandler(seededStore(t), 0, WithClock(func() time.Time {
		return date(2023, time.January, 3).Add(9 * time.Hour)
	}))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	scopeSet := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &auth.Claims{Subject: "tester", Scopes: scopeSet, ExpiresAt: time.Now().Add(time.Hour)}
		mux.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func TestStepsReportDefaultsToYesterday(t *testing.T) {
	h := newTestServer(t, auth.ScopeReportsRead)

	var resp SummaryView
	require.Equal(t, http.StatusOK, get(t, h, "/v1/reports/steps", &resp))

	require.Equal(t, "2023-01-02", resp.EndDate)
	require.EqualValues(t, 5_000_000, resp.AnnualTarget)
	require.Equal(t, 3, resp.Lifetime.Days)
	require.Equal(t, 2, resp.Lifetime.Met)
	require.Equal(t, 2, resp.YTD.Days)
	require.Equal(t, 1, resp.YTD.Met)
	require.EqualValues(t, 20000, resp.YTD.Steps)
	require.Equal(t, 1, resp.Prior.Days)
	require.InDelta(t, 50.0, *resp.YTD.MetPercent, 1e-9)
	require.InDelta(t, 5_000_000.0/365*2, resp.GoalPace, 1e-6)
	require.EqualValues(t, 4_980_000, resp.Remaining)
	require.Equal(t, 363, resp.DaysRemaining)
	require.NotNil(t, resp.RequiredDailyAverage)
}

func TestStepsReportWithExplicitEnd(t *testing.T) {
	h := newTestServer(t, auth.ScopeReportsRead)

	var resp SummaryView
	require.Equal(t, http.StatusOK, get(t, h, "/v1/reports/steps?end=2022-12-31", &resp))
	require.Equal(t, 1, resp.YTD.Days)
	require.EqualValues(t, 10000, resp.YTD.Steps)

	require.Equal(t, http.StatusOK, get(t, h, "/v1/reports/steps?end=2024-06-01", &resp))
	require.Equal(t, 0, resp.YTD.Days)
	require.Nil(t, resp.YTD.MetPercent)
	require.Nil(t, resp.YTD.AveragePerDay)

	require.Equal(t, http.StatusBadRequest, get(t, h, "/v1/reports/steps?end=01/02/2023", nil))
}

func TestDailyStatsRange(t *testing.T) {
	h := newTestServer(t, auth.ScopeReportsRead)

	var resp ListResponse[DailyStatView]
	require.Equal(t, http.StatusOK, get(t, h, "/v1/daily-stats?from=2023-01-02&to=2023-01-01", &resp))
	require.Len(t, resp.Items, 2)
	require.Equal(t, "2023-01-01", resp.Items[0].Date)
	require.True(t, resp.Items[0].MetStepGoal)
	require.False(t, resp.Items[1].MetStepGoal)
}

func TestActivitiesPaging(t *testing.T) {
	h := newTestServer(t, auth.ScopeReportsRead)

	var first ListResponse[ActivityView]
	require.Equal(t, http.StatusOK, get(t, h, "/v1/activities?limit=2", &first))
	require.Len(t, first.Items, 2)
	require.EqualValues(t, 102, first.Items[0].ActivityID)
	require.NotEmpty(t, first.NextCursor)

	var second ListResponse[ActivityView]
	require.Equal(t, http.StatusOK, get(t, h, "/v1/activities?limit=2&cursor="+first.NextCursor, &second))
	require.Len(t, second.Items, 1)
	require.EqualValues(t, 100, second.Items[0].ActivityID)
	require.Empty(t, second.NextCursor)
	require.InDelta(t, 3.11, second.Items[0].DistanceMiles, 1e-9)

	var ultimate ListResponse[ActivityView]
	require.Equal(t, http.StatusOK, get(t, h, "/v1/activities?type_id=213", &ultimate))
	require.Len(t, ultimate.Items, 1)
	require.EqualValues(t, 101, ultimate.Items[0].ActivityID)

	require.Equal(t, http.StatusBadRequest, get(t, h, "/v1/activities?cursor=bm90LWEtY3Vyc29y", nil))
	require.Equal(t, http.StatusBadRequest, get(t, h, "/v1/activities?type_id=running", nil))
}

func TestWeighIns(t *testing.T) {
	h := newTestServer(t, auth.ScopeReportsRead)

	var resp ListResponse[WeighInView]
	require.Equal(t, http.StatusOK, get(t, h, "/v1/weigh-ins?from=2023-01-01", &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, "2023-01-02", resp.Items[0].CalendarDate)
	require.InDelta(t, 180.0, resp.Items[0].WeightLbs, 1e-9)
}

func TestScopeAndMethodChecks(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusForbidden, get(t, h, "/v1/daily-stats", nil))
	require.Equal(t, http.StatusOK, get(t, h, "/healthz", nil))

	h = newTestServer(t, auth.ScopeReportsRead)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/daily-stats", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	handler := NewHandler(seededStore(t), 0)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/activities", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
