package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/events"
)

var dailyStatColumns = []string{
	"date", "day_of_week",
	"active_calories", "bmr_calories", "food_calories_remaining", "total_calories",
	"total_steps", "step_goal", "total_distance", "average_steps",
	"common_total_calories", "common_active_calories", "common_total_distance",
	"moderate_intensity_minutes", "vigorous_intensity_minutes",
	"floors_ascended", "floors_descended", "intensity_minutes_goal", "floors_ascended_goal",
	"min_heart_rate", "max_heart_rate", "resting_heart_rate",
	"average_stress", "max_stress", "min_avg_heart_rate", "max_avg_heart_rate",
	"body_battery_charged", "body_battery_drained", "abnormal_hr_alerts_count",
}

var activityColumns = []string{
	"activity_id", "activity_name", "start_time_local", "start_time_gmt",
	"type_id", "type_key", "parent_type_id",
	"distance", "duration", "elapsed_duration", "moving_duration",
	"average_speed", "max_speed", "average_hr", "max_hr",
	"elevation_gain", "elevation_loss", "calories", "steps",
	"type_corrected", "original_type_id",
}

var weighInColumns = []string{"weigh_in_id", "measured_at", "calendar_date", "weight_kg", "weight_lbs"}

// selectSQL reads one row by the first column.
func selectSQL(tableName string, columns []string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", strings.Join(columns, ", "), tableName, columns[0])
}

func insertSQL(tableName string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(columns, ", "), strings.Join(placeholders, ","))
}

// updateSQL overwrites every non-key column; the key is $1.
func updateSQL(tableName string, columns []string) string {
	sets := make([]string, 0, len(columns))
	for i, col := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
	}
	sets = append(sets, "updated_at = NOW()")
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", tableName, strings.Join(sets, ", "), columns[0])
}

var dailyStatCodec = codec[time.Time, domain.DailyStat]{
	aggregate:   "daily_stat",
	eventType:   events.TypeDailyStatUpserted,
	selectSQL:   selectSQL("daily_stats", dailyStatColumns),
	insertSQL:   insertSQL("daily_stats", dailyStatColumns),
	updateSQL:   updateSQL("daily_stats", dailyStatColumns),
	scan:        scanDailyStat,
	values:      dailyStatValues,
	aggregateID: domain.FormatDate,
	event: func(d domain.DailyStat, outcome domain.Outcome, at time.Time) any {
		return events.NewDailyStatUpserted(d, outcome, at)
	},
}

var activityCodec = codec[int64, domain.Activity]{
	aggregate:   "activity",
	eventType:   events.TypeActivityUpserted,
	selectSQL:   selectSQL("activities", activityColumns),
	insertSQL:   insertSQL("activities", activityColumns),
	updateSQL:   updateSQL("activities", activityColumns),
	scan:        scanActivity,
	values:      activityValues,
	aggregateID: formatID,
	event: func(a domain.Activity, outcome domain.Outcome, at time.Time) any {
		return events.NewActivityUpserted(a, outcome, at)
	},
}

var weighInCodec = codec[int64, domain.WeighIn]{
	aggregate:   "weigh_in",
	eventType:   events.TypeWeighInUpserted,
	selectSQL:   selectSQL("weigh_ins", weighInColumns),
	insertSQL:   insertSQL("weigh_ins", weighInColumns),
	updateSQL:   updateSQL("weigh_ins", weighInColumns),
	scan:        scanWeighIn,
	values:      weighInValues,
	aggregateID: formatID,
	event: func(w domain.WeighIn, outcome domain.Outcome, at time.Time) any {
		return events.NewWeighInUpserted(w, outcome, at)
	},
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func dailyStatValues(d domain.DailyStat) []any {
	return []any{
		d.Date, d.DayOfWeek,
		d.ActiveCalories, d.BMRCalories, d.FoodCaloriesRemaining, d.TotalCalories,
		d.TotalSteps, d.StepGoal, d.TotalDistance, d.AverageSteps,
		d.CommonTotalCalories, d.CommonActiveCalories, d.CommonTotalDistance,
		d.ModerateIntensityMinutes, d.VigorousIntensityMinutes,
		d.FloorsAscended, d.FloorsDescended, d.IntensityMinutesGoal, d.FloorsAscendedGoal,
		d.MinHeartRate, d.MaxHeartRate, d.RestingHeartRate,
		d.AverageStress, d.MaxStress, d.MinAvgHeartRate, d.MaxAvgHeartRate,
		d.BodyBatteryCharged, d.BodyBatteryDrained, d.AbnormalHRAlertsCount,
	}
}

func scanDailyStat(row pgx.Row) (domain.DailyStat, error) {
	var d domain.DailyStat
	err := row.Scan(
		&d.Date, &d.DayOfWeek,
		&d.ActiveCalories, &d.BMRCalories, &d.FoodCaloriesRemaining, &d.TotalCalories,
		&d.TotalSteps, &d.StepGoal, &d.TotalDistance, &d.AverageSteps,
		&d.CommonTotalCalories, &d.CommonActiveCalories, &d.CommonTotalDistance,
		&d.ModerateIntensityMinutes, &d.VigorousIntensityMinutes,
		&d.FloorsAscended, &d.FloorsDescended, &d.IntensityMinutesGoal, &d.FloorsAscendedGoal,
		&d.MinHeartRate, &d.MaxHeartRate, &d.RestingHeartRate,
		&d.AverageStress, &d.MaxStress, &d.MinAvgHeartRate, &d.MaxAvgHeartRate,
		&d.BodyBatteryCharged, &d.BodyBatteryDrained, &d.AbnormalHRAlertsCount,
	)
	d.Date = domain.DateOf(d.Date)
	return d, err
}

func activityValues(a domain.Activity) []any {
	return []any{
		a.ActivityID, a.Name, a.StartTimeLocal, a.StartTimeGMT,
		a.Type.TypeID, a.Type.TypeKey, a.Type.ParentTypeID,
		a.Distance, a.Duration, a.ElapsedDuration, a.MovingDuration,
		a.AverageSpeed, a.MaxSpeed, a.AverageHR, a.MaxHR,
		a.ElevationGain, a.ElevationLoss, a.Calories, a.Steps,
		a.TypeCorrected, a.OriginalTypeID,
	}
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(
		&a.ActivityID, &a.Name, &a.StartTimeLocal, &a.StartTimeGMT,
		&a.Type.TypeID, &a.Type.TypeKey, &a.Type.ParentTypeID,
		&a.Distance, &a.Duration, &a.ElapsedDuration, &a.MovingDuration,
		&a.AverageSpeed, &a.MaxSpeed, &a.AverageHR, &a.MaxHR,
		&a.ElevationGain, &a.ElevationLoss, &a.Calories, &a.Steps,
		&a.TypeCorrected, &a.OriginalTypeID,
	)
	return a, err
}

func weighInValues(w domain.WeighIn) []any {
	return []any{w.WeighInID, w.Timestamp, w.CalendarDate, w.WeightKg, w.WeightLbs}
}

func scanWeighIn(row pgx.Row) (domain.WeighIn, error) {
	var w domain.WeighIn
	err := row.Scan(&w.WeighInID, &w.Timestamp, &w.CalendarDate, &w.WeightKg, &w.WeightLbs)
	w.Timestamp = w.Timestamp.UTC()
	w.CalendarDate = domain.DateOf(w.CalendarDate)
	return w, err
}
