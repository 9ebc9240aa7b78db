package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	gramsPerPound = decimal.RequireFromString("453.59237")
	milesPerMetre = decimal.RequireFromString("0.000621371")
	gramsPerKilo  = decimal.NewFromInt(1000)
)

// DateOf truncates t to its calendar date at UTC midnight. Every DailyStat key is built this way so keys
// compare equal with ==.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date key.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// DailyStat is one row of wellness metrics for a calendar date.
type DailyStat struct {
	Date                     time.Time
	DayOfWeek                string
	ActiveCalories           int
	BMRCalories              int
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
	AbnormalHRAlertsCount    int
}

// Key returns the natural key of the row.
func (d DailyStat) Key() time.Time { return d.Date }

// MetStepGoal reports whether the day reached a non-zero step goal.
func (d DailyStat) MetStepGoal() bool {
	return d.StepGoal != 0 && d.TotalSteps >= d.StepGoal
}

// ActivityType is the remote classification of a workout.
type ActivityType struct {
	TypeID       int
	TypeKey      string
	ParentTypeID int
}

// Activity is one workout keyed by the remote activity identifier.
type Activity struct {
	ActivityID      int64
	Name            string
	StartTimeLocal  time.Time
	StartTimeGMT    time.Time
	Type            ActivityType
	Distance        float64
	Duration        float64
	ElapsedDuration float64
	MovingDuration  float64
	AverageSpeed    float64
	MaxSpeed        float64
	AverageHR       float64
	MaxHR           float64
	ElevationGain   float64
	ElevationLoss   float64
	Calories        float64
	Steps           int
	// TypeCorrected is set once the remote classification has been rewritten by a reclassify rule.
	TypeCorrected  bool
	OriginalTypeID int
}

// Key returns the natural key of the row.
func (a Activity) Key() int64 { return a.ActivityID }

// DistanceMiles converts the metre distance to miles rounded to two places.
func (a Activity) DistanceMiles() float64 {
	return MetresToMiles(a.Distance)
}

// MetresToMiles converts metres to miles rounded to two places.
func MetresToMiles(metres float64) float64 {
	miles, _ := decimal.NewFromFloat(metres).Mul(milesPerMetre).Round(2).Float64()
	return miles
}

// WeighIn is a single scale reading.
type WeighIn struct {
	WeighInID    int64
	Timestamp    time.Time
	CalendarDate time.Time
	WeightKg     float64
	WeightLbs    float64
}

// Key returns the natural key of the row.
func (w WeighIn) Key() int64 { return w.WeighInID }

// WeightFromGrams returns the weight in kilograms and pounds, rounded to three and two places.
func WeightFromGrams(grams float64) (kg, lbs float64) {
	g := decimal.NewFromFloat(grams)
	kg, _ = g.Div(gramsPerKilo).Round(3).Float64()
	lbs, _ = g.Div(gramsPerPound).Round(2).Float64()
	return kg, lbs
}
