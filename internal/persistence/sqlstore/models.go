package sqlstore

import (
	"time"

	"example.com/wellness/internal/domain"
)

// activityTimeLayout sorts lexicographically, so cursor and range predicates work on the text column.
const activityTimeLayout = "2006-01-02 15:04:05"

type dailyStatRow struct {
	Date                     string `gorm:"primaryKey;size:10"`
	DayOfWeek                string `gorm:"size:16"`
	ActiveCalories           int
	BMRCalories              int `gorm:"column:bmr_calories"`
	FoodCaloriesRemaining    int
	TotalCalories            int
	TotalSteps               int
	StepGoal                 int
	TotalDistance            int
	AverageSteps             int
	CommonTotalCalories      int
	CommonActiveCalories     int
	CommonTotalDistance      int
	ModerateIntensityMinutes int
	VigorousIntensityMinutes int
	FloorsAscended           int
	FloorsDescended          int
	IntensityMinutesGoal     int
	FloorsAscendedGoal       int
	MinHeartRate             int
	MaxHeartRate             int
	RestingHeartRate         int
	AverageStress            int
	MaxStress                int
	MinAvgHeartRate          int
	MaxAvgHeartRate          int
	BodyBatteryCharged       int
	BodyBatteryDrained       int
	AbnormalHRAlertsCount    int `gorm:"column:abnormal_hr_alerts_count"`
	UpdatedAt                time.Time
}

func (dailyStatRow) TableName() string { return "daily_stats" }

type activityRow struct {
	ActivityID      int64  `gorm:"primaryKey;autoIncrement:false"`
	ActivityName    string `gorm:"size:255"`
	StartTimeLocal  string `gorm:"size:19;index:idx_activities_start"`
	StartTimeGMT    string `gorm:"column:start_time_gmt;size:19"`
	TypeID          int    `gorm:"index"`
	TypeKey         string `gorm:"size:64"`
	ParentTypeID    int
	Distance        float64
	Duration        float64
	ElapsedDuration float64
	MovingDuration  float64
	AverageSpeed    float64
	MaxSpeed        float64
	AverageHR       float64 `gorm:"column:average_hr"`
	MaxHR           float64 `gorm:"column:max_hr"`
	ElevationGain   float64
	ElevationLoss   float64
	Calories        float64
	Steps           int
	TypeCorrected   bool
	OriginalTypeID  int
	UpdatedAt       time.Time
}

func (activityRow) TableName() string { return "activities" }

type weighInRow struct {
	WeighInID    int64  `gorm:"primaryKey;autoIncrement:false"`
	MeasuredAtMs int64  `gorm:"column:measured_at_ms;index"`
	CalendarDate string `gorm:"size:10;index"`
	WeightKg     float64
	WeightLbs    float64
	UpdatedAt    time.Time
}

func (weighInRow) TableName() string { return "weigh_ins" }

func toDailyStatRow(d domain.DailyStat) dailyStatRow {
	return dailyStatRow{
		Date:                     domain.FormatDate(d.Date),
		DayOfWeek:                d.DayOfWeek,
		ActiveCalories:           d.ActiveCalories,
		BMRCalories:              d.BMRCalories,
		FoodCaloriesRemaining:    d.FoodCaloriesRemaining,
		TotalCalories:            d.TotalCalories,
		TotalSteps:               d.TotalSteps,
		StepGoal:                 d.StepGoal,
		TotalDistance:            d.TotalDistance,
		AverageSteps:             d.AverageSteps,
		CommonTotalCalories:      d.CommonTotalCalories,
		CommonActiveCalories:     d.CommonActiveCalories,
		CommonTotalDistance:      d.CommonTotalDistance,
		ModerateIntensityMinutes: d.ModerateIntensityMinutes,
		VigorousIntensityMinutes: d.VigorousIntensityMinutes,
		FloorsAscended:           d.FloorsAscended,
		FloorsDescended:          d.FloorsDescended,
		IntensityMinutesGoal:     d.IntensityMinutesGoal,
		FloorsAscendedGoal:       d.FloorsAscendedGoal,
		MinHeartRate:             d.MinHeartRate,
		MaxHeartRate:             d.MaxHeartRate,
		RestingHeartRate:         d.RestingHeartRate,
		AverageStress:            d.AverageStress,
		MaxStress:                d.MaxStress,
		MinAvgHeartRate:          d.MinAvgHeartRate,
		MaxAvgHeartRate:          d.MaxAvgHeartRate,
		BodyBatteryCharged:       d.BodyBatteryCharged,
		BodyBatteryDrained:       d.BodyBatteryDrained,
		AbnormalHRAlertsCount:    d.AbnormalHRAlertsCount,
	}
}

func (r dailyStatRow) record() (domain.DailyStat, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.DailyStat{}, err
	}
	return domain.DailyStat{
		Date:                     date,
		DayOfWeek:                r.DayOfWeek,
		ActiveCalories:           r.ActiveCalories,
		BMRCalories:              r.BMRCalories,
		FoodCaloriesRemaining:    r.FoodCaloriesRemaining,
		TotalCalories:            r.TotalCalories,
		TotalSteps:               r.TotalSteps,
		StepGoal:                 r.StepGoal,
		TotalDistance:            r.TotalDistance,
		AverageSteps:             r.AverageSteps,
		CommonTotalCalories:      r.CommonTotalCalories,
		CommonActiveCalories:     r.CommonActiveCalories,
		CommonTotalDistance:      r.CommonTotalDistance,
		ModerateIntensityMinutes: r.ModerateIntensityMinutes,
		VigorousIntensityMinutes: r.VigorousIntensityMinutes,
		FloorsAscended:           r.FloorsAscended,
		FloorsDescended:          r.FloorsDescended,
		IntensityMinutesGoal:     r.IntensityMinutesGoal,
		FloorsAscendedGoal:       r.FloorsAscendedGoal,
		MinHeartRate:             r.MinHeartRate,
		MaxHeartRate:             r.MaxHeartRate,
		RestingHeartRate:         r.RestingHeartRate,
		AverageStress:            r.AverageStress,
		MaxStress:                r.MaxStress,
		MinAvgHeartRate:          r.MinAvgHeartRate,
		MaxAvgHeartRate:          r.MaxAvgHeartRate,
		BodyBatteryCharged:       r.BodyBatteryCharged,
		BodyBatteryDrained:       r.BodyBatteryDrained,
		AbnormalHRAlertsCount:    r.AbnormalHRAlertsCount,
	}, nil
}

func toActivityRow(a domain.Activity) activityRow {
	return activityRow{
		ActivityID:      a.ActivityID,
		ActivityName:    a.Name,
		StartTimeLocal:  a.StartTimeLocal.Format(activityTimeLayout),
		StartTimeGMT:    a.StartTimeGMT.Format(activityTimeLayout),
		TypeID:          a.Type.TypeID,
		TypeKey:         a.Type.TypeKey,
		ParentTypeID:    a.Type.ParentTypeID,
		Distance:        a.Distance,
		Duration:        a.Duration,
		ElapsedDuration: a.ElapsedDuration,
		MovingDuration:  a.MovingDuration,
		AverageSpeed:    a.AverageSpeed,
		MaxSpeed:        a.MaxSpeed,
		AverageHR:       a.AverageHR,
		MaxHR:           a.MaxHR,
		ElevationGain:   a.ElevationGain,
		ElevationLoss:   a.ElevationLoss,
		Calories:        a.Calories,
		Steps:           a.Steps,
		TypeCorrected:   a.TypeCorrected,
		OriginalTypeID:  a.OriginalTypeID,
	}
}

func (r activityRow) record() (domain.Activity, error) {
	local, err := time.Parse(activityTimeLayout, r.StartTimeLocal)
	if err != nil {
		return domain.Activity{}, err
	}
	gmt, err := time.Parse(activityTimeLayout, r.StartTimeGMT)
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.Activity{
		ActivityID:     r.ActivityID,
		Name:           r.ActivityName,
		StartTimeLocal: local,
		StartTimeGMT:   gmt,
		Type: domain.ActivityType{
			TypeID:       r.TypeID,
			TypeKey:      r.TypeKey,
			ParentTypeID: r.ParentTypeID,
		},
		Distance:        r.Distance,
		Duration:        r.Duration,
		ElapsedDuration: r.ElapsedDuration,
		MovingDuration:  r.MovingDuration,
		AverageSpeed:    r.AverageSpeed,
		MaxSpeed:        r.MaxSpeed,
		AverageHR:       r.AverageHR,
		MaxHR:           r.MaxHR,
		ElevationGain:   r.ElevationGain,
		ElevationLoss:   r.ElevationLoss,
		Calories:        r.Calories,
		Steps:           r.Steps,
		TypeCorrected:   r.TypeCorrected,
		OriginalTypeID:  r.OriginalTypeID,
	}, nil
}

func toWeighInRow(w domain.WeighIn) weighInRow {
	return weighInRow{
		WeighInID:    w.WeighInID,
		MeasuredAtMs: w.Timestamp.UnixMilli(),
		CalendarDate: domain.FormatDate(w.CalendarDate),
		WeightKg:     w.WeightKg,
		WeightLbs:    w.WeightLbs,
	}
}

func (r weighInRow) record() (domain.WeighIn, error) {
	day, err := domain.ParseDate(r.CalendarDate)
	if err != nil {
		return domain.WeighIn{}, err
	}
	return domain.WeighIn{
		WeighInID:    r.WeighInID,
		Timestamp:    time.UnixMilli(r.MeasuredAtMs).UTC(),
		CalendarDate: day,
		WeightKg:     r.WeightKg,
		WeightLbs:    r.WeightLbs,
	}, nil
}
