package normalize

import (
	"time"

	"example.com/wellness/internal/domain"
)

// ActivityTimeLayout is the remote layout of start_time_local / start_time_gmt.
const ActivityTimeLayout = "2006-01-02 15:04:05"

// Canonical DailyStat fields, in persisted column order.
const (
	FieldDate                     = "date"
	FieldActiveCalories           = "wellness_active_calories"
	FieldBMRCalories              = "wellness_bmr_calories"
	FieldFoodCaloriesRemaining    = "food_calories_remaining"
	FieldTotalCalories            = "wellness_total_calories"
	FieldTotalSteps               = "total_steps"
	FieldStepGoal                 = "step_goal"
	FieldTotalDistance            = "wellness_total_distance"
	FieldAverageSteps             = "wellness_average_steps"
	FieldCommonTotalCalories      = "common_total_calories"
	FieldCommonActiveCalories     = "common_active_calories"
	FieldCommonTotalDistance      = "common_total_distance"
	FieldModerateIntensityMinutes = "wellness_moderate_intensity_minutes"
	FieldVigorousIntensityMinutes = "wellness_vigorous_intensity_minutes"
	FieldFloorsAscended           = "wellness_floors_ascended"
	FieldFloorsDescended          = "wellness_floors_descended"
	FieldIntensityMinutesGoal     = "wellness_user_intensity_minutes_goal"
	FieldFloorsAscendedGoal       = "wellness_user_floors_ascended_goal"
	FieldMinHeartRate             = "wellness_min_heart_rate"
	FieldMaxHeartRate             = "wellness_max_heart_rate"
	FieldRestingHeartRate         = "wellness_resting_heart_rate"
	FieldAverageStress            = "wellness_average_stress"
	FieldMaxStress                = "wellness_max_stress"
	FieldMinAvgHeartRate          = "wellness_min_avg_heart_rate"
	FieldMaxAvgHeartRate          = "wellness_max_avg_heart_rate"
	FieldBodyBatteryCharged       = "wellness_bodybattery_charged"
	FieldBodyBatteryDrained       = "wellness_bodybattery_drained"
	FieldAbnormalHRAlertsCount    = "wellness_abnormalhr_alerts_count"
)

var wellnessMetrics = []string{
	FieldActiveCalories, FieldBMRCalories, FieldFoodCaloriesRemaining, FieldTotalCalories,
	FieldTotalSteps, FieldStepGoal, FieldTotalDistance, FieldAverageSteps,
	FieldCommonTotalCalories, FieldCommonActiveCalories, FieldCommonTotalDistance,
	FieldModerateIntensityMinutes, FieldVigorousIntensityMinutes, FieldFloorsAscended,
	FieldFloorsDescended, FieldIntensityMinutesGoal, FieldFloorsAscendedGoal,
	FieldMinHeartRate, FieldMaxHeartRate, FieldRestingHeartRate, FieldAverageStress,
	FieldMaxStress, FieldMinAvgHeartRate, FieldMaxAvgHeartRate, FieldBodyBatteryCharged,
	FieldBodyBatteryDrained, FieldAbnormalHRAlertsCount,
}

// WellnessSchema maps lower-cased wellness metric names onto DailyStat columns.
var WellnessSchema = MustSchema(wellnessFields(), map[string]string{
	"wellness_total_steps":     FieldTotalSteps,
	"wellness_total_step_goal": FieldStepGoal,
})

func wellnessFields() []Field {
	fields := []Field{{Name: FieldDate, Kind: KindDate, Required: true}}
	for _, name := range wellnessMetrics {
		fields = append(fields, Field{Name: name, Kind: KindInt})
	}
	return fields
}

// ActivitySchema covers the flattened activity list payload. The details endpoint nests the
// classification under activityTypeDTO, which is folded onto the same columns.
var ActivitySchema = MustSchema([]Field{
	{Name: "activity_id", Kind: KindInt64, Required: true},
	{Name: "activity_name", Kind: KindString},
	{Name: "start_time_local", Kind: KindTimestamp, Layout: ActivityTimeLayout, Required: true},
	{Name: "start_time_gmt", Kind: KindTimestamp, Layout: ActivityTimeLayout, Required: true},
	{Name: "activity_type_type_id", Kind: KindInt},
	{Name: "activity_type_type_key", Kind: KindString},
	{Name: "activity_type_parent_type_id", Kind: KindInt},
	{Name: "distance", Kind: KindFloat},
	{Name: "duration", Kind: KindFloat},
	{Name: "elapsed_duration", Kind: KindFloat},
	{Name: "moving_duration", Kind: KindFloat},
	{Name: "average_speed", Kind: KindFloat},
	{Name: "max_speed", Kind: KindFloat},
	{Name: "average_hr", Kind: KindFloat},
	{Name: "max_hr", Kind: KindFloat},
	{Name: "elevation_gain", Kind: KindFloat},
	{Name: "elevation_loss", Kind: KindFloat},
	{Name: "calories", Kind: KindFloat},
	{Name: "steps", Kind: KindInt},
}, map[string]string{
	"activity_type_dto_type_id":        "activity_type_type_id",
	"activity_type_dto_type_key":       "activity_type_type_key",
	"activity_type_dto_parent_type_id": "activity_type_parent_type_id",
})

// WeighInSchema covers one entry of the weight service dateWeightList.
var WeighInSchema = MustSchema([]Field{
	{Name: "weigh_in_id", Kind: KindInt64, Required: true},
	{Name: "timestamp", Kind: KindEpochMillis, Required: true},
	{Name: "calendar_date", Kind: KindDate, Required: true},
	{Name: "weight", Kind: KindFloat, Required: true},
}, map[string]string{
	"sample_pk": "weigh_in_id",
	"date":      "timestamp",
})

// DailyStat builds the canonical row for one day of wellness metrics.
func DailyStat(raw Raw) (domain.DailyStat, Record, error) {
	rec, err := WellnessSchema.Normalize(raw)
	if err != nil {
		return domain.DailyStat{}, Record{}, err
	}
	date := rec.Time(FieldDate)
	return domain.DailyStat{
		Date:                     date,
		DayOfWeek:                date.Weekday().String(),
		ActiveCalories:           rec.Int(FieldActiveCalories),
		BMRCalories:              rec.Int(FieldBMRCalories),
		FoodCaloriesRemaining:    rec.Int(FieldFoodCaloriesRemaining),
		TotalCalories:            rec.Int(FieldTotalCalories),
		TotalSteps:               rec.Int(FieldTotalSteps),
		StepGoal:                 rec.Int(FieldStepGoal),
		TotalDistance:            rec.Int(FieldTotalDistance),
		AverageSteps:             rec.Int(FieldAverageSteps),
		CommonTotalCalories:      rec.Int(FieldCommonTotalCalories),
		CommonActiveCalories:     rec.Int(FieldCommonActiveCalories),
		CommonTotalDistance:      rec.Int(FieldCommonTotalDistance),
		ModerateIntensityMinutes: rec.Int(FieldModerateIntensityMinutes),
		VigorousIntensityMinutes: rec.Int(FieldVigorousIntensityMinutes),
		FloorsAscended:           rec.Int(FieldFloorsAscended),
		FloorsDescended:          rec.Int(FieldFloorsDescended),
		IntensityMinutesGoal:     rec.Int(FieldIntensityMinutesGoal),
		FloorsAscendedGoal:       rec.Int(FieldFloorsAscendedGoal),
		MinHeartRate:             rec.Int(FieldMinHeartRate),
		MaxHeartRate:             rec.Int(FieldMaxHeartRate),
		RestingHeartRate:         rec.Int(FieldRestingHeartRate),
		AverageStress:            rec.Int(FieldAverageStress),
		MaxStress:                rec.Int(FieldMaxStress),
		MinAvgHeartRate:          rec.Int(FieldMinAvgHeartRate),
		MaxAvgHeartRate:          rec.Int(FieldMaxAvgHeartRate),
		BodyBatteryCharged:       rec.Int(FieldBodyBatteryCharged),
		BodyBatteryDrained:       rec.Int(FieldBodyBatteryDrained),
		AbnormalHRAlertsCount:    rec.Int(FieldAbnormalHRAlertsCount),
	}, rec, nil
}

// Activity builds the canonical row for one workout.
func Activity(raw Raw) (domain.Activity, Record, error) {
	rec, err := ActivitySchema.Normalize(raw)
	if err != nil {
		return domain.Activity{}, Record{}, err
	}
	return domain.Activity{
		ActivityID:     rec.Int64("activity_id"),
		Name:           rec.String("activity_name"),
		StartTimeLocal: rec.Time("start_time_local"),
		StartTimeGMT:   rec.Time("start_time_gmt"),
		Type: domain.ActivityType{
			TypeID:       rec.Int("activity_type_type_id"),
			TypeKey:      rec.String("activity_type_type_key"),
			ParentTypeID: rec.Int("activity_type_parent_type_id"),
		},
		Distance:        rec.Float("distance"),
		Duration:        rec.Float("duration"),
		ElapsedDuration: rec.Float("elapsed_duration"),
		MovingDuration:  rec.Float("moving_duration"),
		AverageSpeed:    rec.Float("average_speed"),
		MaxSpeed:        rec.Float("max_speed"),
		AverageHR:       rec.Float("average_hr"),
		MaxHR:           rec.Float("max_hr"),
		ElevationGain:   rec.Float("elevation_gain"),
		ElevationLoss:   rec.Float("elevation_loss"),
		Calories:        rec.Float("calories"),
		Steps:           rec.Int("steps"),
	}, rec, nil
}

// WeighIn builds the canonical row for one scale reading. Weight arrives in grams.
func WeighIn(raw Raw) (domain.WeighIn, Record, error) {
	rec, err := WeighInSchema.Normalize(raw)
	if err != nil {
		return domain.WeighIn{}, Record{}, err
	}
	kg, lbs := domain.WeightFromGrams(rec.Float("weight"))
	return domain.WeighIn{
		WeighInID:    rec.Int64("weigh_in_id"),
		Timestamp:    rec.Time("timestamp"),
		CalendarDate: rec.Time("calendar_date"),
		WeightKg:     kg,
		WeightLbs:    lbs,
	}, rec, nil
}

// MetricValue is one calendarDate/value pair of the wellness metrics map.
type MetricValue struct {
	CalendarDate string   `json:"calendarDate"`
	Value        *float64 `json:"value"`
}

// ExpandWellness turns the per-metric series of the wellness endpoint into one raw record per day
// between from and to inclusive. Metric names are lower-cased; days without a value are left absent
// so the schema zero-fills them.
func ExpandWellness(metricsMap map[string][]MetricValue, from, to time.Time) []Raw {
	from, to = domain.DateOf(from), domain.DateOf(to)
	byDay := make(map[string]Raw)
	for metric, series := range metricsMap {
		name := SnakeCase(metric)
		for _, point := range series {
			if point.Value == nil {
				continue
			}
			day, ok := byDay[point.CalendarDate]
			if !ok {
				day = Raw{}
				byDay[point.CalendarDate] = day
			}
			day[name] = *point.Value
		}
	}

	out := make([]Raw, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		raw := Raw{FieldDate: day}
		for name, value := range byDay[domain.FormatDate(day)] {
			raw[name] = value
		}
		out = append(out, raw)
	}
	return out
}
