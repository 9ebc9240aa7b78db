package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/fetch"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("", "2023-07-02", "", false, true)
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, time.July, 2, 0, 0, 0, 0, time.UTC), req.From)
	require.Equal(t, req.From, req.To)
	require.Equal(t, fetch.DefaultMetricIDs(), req.MetricIDs)
	require.True(t, req.SkipWeighIns)

	req, err = buildRequest("2023-07-05", "2023-07-02", "29, 38", false, false)
	require.NoError(t, err)
	from, to := req.Window()
	require.Equal(t, 2, from.Day())
	require.Equal(t, 5, to.Day())
	require.Equal(t, []int{29, 38}, req.MetricIDs)

	_, err = buildRequest("", "07/02/2023", "", false, false)
	require.ErrorContains(t, err, "-end")
	_, err = buildRequest("", "2023-07-02", "steps", false, false)
	require.ErrorContains(t, err, "-metric-ids")
}
