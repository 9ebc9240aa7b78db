package api

import (
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/report"
)

// ListResponse packages list results.
type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// WindowView is one aggregation window of the step report.
type WindowView struct {
	report.Window
	MetPercent    *float64 `json:"met_percent"`
	AveragePerDay *float64 `json:"average_per_day"`
}

// SummaryView is the JSON rendering of report.Summary. Undefined ratios are null.
type SummaryView struct {
	EndDate              string     `json:"end_date"`
	AnnualTarget         int64      `json:"annual_target"`
	Lifetime             WindowView `json:"lifetime"`
	YTD                  WindowView `json:"ytd"`
	Prior                WindowView `json:"prior"`
	GoalPace             float64    `json:"goal_pace"`
	PaceDiff             float64    `json:"pace_diff"`
	Remaining            int64      `json:"remaining"`
	DaysRemaining        int        `json:"days_remaining"`
	RequiredDailyAverage *float64   `json:"required_daily_average"`
}

// DailyStatView exposes the step-related columns of a stored day.
type DailyStatView struct {
	Date             string `json:"date"`
	DayOfWeek        string `json:"day_of_week"`
	TotalSteps       int    `json:"total_steps"`
	StepGoal         int    `json:"step_goal"`
	MetStepGoal      bool   `json:"met_step_goal"`
	TotalDistance    int    `json:"total_distance"`
	TotalCalories    int    `json:"total_calories"`
	ActiveCalories   int    `json:"active_calories"`
	RestingHeartRate int    `json:"resting_heart_rate"`
	AverageStress    int    `json:"average_stress"`
}

// ActivityView exposes a stored activity.
type ActivityView struct {
	ActivityID     int64     `json:"activity_id"`
	Name           string    `json:"name"`
	StartTimeLocal time.Time `json:"start_time_local"`
	TypeID         int       `json:"type_id"`
	TypeKey        string    `json:"type_key"`
	ParentTypeID   int       `json:"parent_type_id"`
	DistanceMetres float64   `json:"distance_metres"`
	DistanceMiles  float64   `json:"distance_miles"`
	Duration       float64   `json:"duration"`
	Calories       float64   `json:"calories"`
	TypeCorrected  bool      `json:"type_corrected"`
	OriginalTypeID int       `json:"original_type_id,omitempty"`
}

// WeighInView exposes a stored scale reading.
type WeighInView struct {
	WeighInID    int64     `json:"weigh_in_id"`
	Timestamp    time.Time `json:"timestamp"`
	CalendarDate string    `json:"calendar_date"`
	WeightKg     float64   `json:"weight_kg"`
	WeightLbs    float64   `json:"weight_lbs"`
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func toWindowView(w report.Window) WindowView {
	return WindowView{
		Window:        w,
		MetPercent:    optional(w.MetPercent()),
		AveragePerDay: optional(w.AveragePerDay()),
	}
}

func toSummaryView(s report.Summary) SummaryView {
	return SummaryView{
		EndDate:              domain.FormatDate(s.EndDate),
		AnnualTarget:         s.AnnualTarget,
		Lifetime:             toWindowView(s.Lifetime),
		YTD:                  toWindowView(s.YTD),
		Prior:                toWindowView(s.Prior),
		GoalPace:             s.GoalPace,
		PaceDiff:             s.PaceDiff,
		Remaining:            s.Remaining,
		DaysRemaining:        s.DaysRemaining,
		RequiredDailyAverage: optional(s.RequiredDailyAverage()),
	}
}

func toDailyStatView(d domain.DailyStat) DailyStatView {
	return DailyStatView{
		Date:             domain.FormatDate(d.Date),
		DayOfWeek:        d.DayOfWeek,
		TotalSteps:       d.TotalSteps,
		StepGoal:         d.StepGoal,
		MetStepGoal:      d.MetStepGoal(),
		TotalDistance:    d.TotalDistance,
		TotalCalories:    d.TotalCalories,
		ActiveCalories:   d.ActiveCalories,
		RestingHeartRate: d.RestingHeartRate,
		AverageStress:    d.AverageStress,
	}
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:     a.ActivityID,
		Name:           a.Name,
		StartTimeLocal: a.StartTimeLocal,
		TypeID:         a.Type.TypeID,
		TypeKey:        a.Type.TypeKey,
		ParentTypeID:   a.Type.ParentTypeID,
		DistanceMetres: a.Distance,
		DistanceMiles:  a.DistanceMiles(),
		Duration:       a.Duration,
		Calories:       a.Calories,
		TypeCorrected:  a.TypeCorrected,
		OriginalTypeID: a.OriginalTypeID,
	}
}

func toWeighInView(w domain.WeighIn) WeighInView {
	return WeighInView{
		WeighInID:    w.WeighInID,
		Timestamp:    w.Timestamp,
		CalendarDate: domain.FormatDate(w.CalendarDate),
		WeightKg:     w.WeightKg,
		WeightLbs:    w.WeightLbs,
	}
}
