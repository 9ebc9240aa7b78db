// Package events defines the payloads emitted when reconciled rows change.
package events

import (
	"time"

	"example.com/wellness/internal/domain"
)

// Event types written to the outbox.
const (
	TypeDailyStatUpserted = "daily_stat.upserted"
	TypeActivityUpserted  = "activity.upserted"
	TypeWeighInUpserted   = "weigh_in.upserted"
)

// DailyStatUpserted is emitted for every reconciled wellness day.
type DailyStatUpserted struct {
	Date        string    `json:"date"`
	DayOfWeek   string    `json:"day_of_week"`
	TotalSteps  int       `json:"total_steps"`
	StepGoal    int       `json:"step_goal"`
	MetStepGoal bool      `json:"met_step_goal"`
	Outcome     string    `json:"outcome"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityUpserted is emitted for every reconciled activity.
type ActivityUpserted struct {
	ActivityID     int64     `json:"activity_id"`
	Name           string    `json:"name"`
	StartTimeLocal string    `json:"start_time_local"`
	TypeID         int       `json:"type_id"`
	TypeKey        string    `json:"type_key"`
	TypeCorrected  bool      `json:"type_corrected"`
	DistanceMiles  float64   `json:"distance_miles"`
	Outcome        string    `json:"outcome"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// WeighInUpserted is emitted for every reconciled weigh-in.
type WeighInUpserted struct {
	WeighInID    int64     `json:"weigh_in_id"`
	CalendarDate string    `json:"calendar_date"`
	WeightKg     float64   `json:"weight_kg"`
	WeightLbs    float64   `json:"weight_lbs"`
	Outcome      string    `json:"outcome"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewDailyStatUpserted builds the payload for stat.
func NewDailyStatUpserted(stat domain.DailyStat, outcome domain.Outcome, at time.Time) DailyStatUpserted {
	return DailyStatUpserted{
		Date:        domain.FormatDate(stat.Date),
		DayOfWeek:   stat.DayOfWeek,
		TotalSteps:  stat.TotalSteps,
		StepGoal:    stat.StepGoal,
		MetStepGoal: stat.MetStepGoal(),
		Outcome:     string(outcome),
		OccurredAt:  at.UTC(),
	}
}

// NewActivityUpserted builds the payload for act.
func NewActivityUpserted(act domain.Activity, outcome domain.Outcome, at time.Time) ActivityUpserted {
	return ActivityUpserted{
		ActivityID:     act.ActivityID,
		Name:           act.Name,
		StartTimeLocal: act.StartTimeLocal.Format("2006-01-02 15:04:05"),
		TypeID:         act.Type.TypeID,
		TypeKey:        act.Type.TypeKey,
		TypeCorrected:  act.TypeCorrected,
		DistanceMiles:  act.DistanceMiles(),
		Outcome:        string(outcome),
		OccurredAt:     at.UTC(),
	}
}

// NewWeighInUpserted builds the payload for w.
func NewWeighInUpserted(w domain.WeighIn, outcome domain.Outcome, at time.Time) WeighInUpserted {
	return WeighInUpserted{
		WeighInID:    w.WeighInID,
		CalendarDate: domain.FormatDate(w.CalendarDate),
		WeightKg:     w.WeightKg,
		WeightLbs:    w.WeightLbs,
		Outcome:      string(outcome),
		OccurredAt:   at.UTC(),
	}
}

// Metadata describes how to route and describe an event type.
type Metadata struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var catalog = map[string]Metadata{
	TypeDailyStatUpserted: {
		Topic:         "wellness_daily_stats",
		SchemaSubject: "wellness_daily_stats-value",
		Schema:        dailyStatUpsertedSchema,
	},
	TypeActivityUpserted: {
		Topic:         "wellness_activities",
		SchemaSubject: "wellness_activities-value",
		Schema:        activityUpsertedSchema,
	},
	TypeWeighInUpserted: {
		Topic:         "wellness_weigh_ins",
		SchemaSubject: "wellness_weigh_ins-value",
		Schema:        weighInUpsertedSchema,
	},
}

// Lookup returns routing metadata for eventType.
func Lookup(eventType string) (Metadata, bool) {
	meta, ok := catalog[eventType]
	return meta, ok
}
