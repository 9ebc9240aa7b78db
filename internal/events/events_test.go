package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
)

func TestCatalogCoversEveryEventType(t *testing.T) {
	for _, eventType := range []string{TypeDailyStatUpserted, TypeActivityUpserted, TypeWeighInUpserted} {
		meta, ok := Lookup(eventType)
		require.True(t, ok, eventType)
		require.NotEmpty(t, meta.Topic)
		require.Equal(t, meta.Topic+"-value", meta.SchemaSubject)
		require.True(t, json.Valid([]byte(meta.Schema)), eventType)
	}

	_, ok := Lookup("activity.deleted")
	require.False(t, ok)
}

func TestDailyStatPayloadCarriesGoalFlag(t *testing.T) {
	stat := domain.DailyStat{
		Date:       time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC),
		DayOfWeek:  "Tuesday",
		TotalSteps: 10000,
		StepGoal:   10000,
	}
	at := time.Date(2023, time.March, 15, 6, 0, 0, 0, time.UTC)

	body, err := json.Marshal(NewDailyStatUpserted(stat, domain.OutcomeUpdated, at))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"date": "2023-03-14",
		"day_of_week": "Tuesday",
		"total_steps": 10000,
		"step_goal": 10000,
		"met_step_goal": true,
		"outcome": "updated",
		"occurred_at": "2023-03-15T06:00:00Z"
	}`, string(body))
}
