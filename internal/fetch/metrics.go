// Package fetch holds what the fetch backends share: the wellness metric catalogue, remote endpoint
// paths and decoding of the JSON payloads into raw records.
package fetch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Metrics maps wellness metric ids to the names the remote uses as metricsMap keys.
var Metrics = map[int]string{
	22: "WELLNESS_ACTIVE_CALORIES",
	23: "WELLNESS_BMR_CALORIES",
	25: "FOOD_CALORIES_REMAINING",
	28: "WELLNESS_TOTAL_CALORIES",
	29: "WELLNESS_TOTAL_STEPS",
	38: "WELLNESS_TOTAL_STEP_GOAL",
	39: "WELLNESS_TOTAL_DISTANCE",
	40: "WELLNESS_AVERAGE_STEPS",
	41: "COMMON_TOTAL_CALORIES",
	42: "COMMON_ACTIVE_CALORIES",
	43: "COMMON_TOTAL_DISTANCE",
	51: "WELLNESS_MODERATE_INTENSITY_MINUTES",
	52: "WELLNESS_VIGOROUS_INTENSITY_MINUTES",
	53: "WELLNESS_FLOORS_ASCENDED",
	54: "WELLNESS_FLOORS_DESCENDED",
	55: "WELLNESS_USER_INTENSITY_MINUTES_GOAL",
	56: "WELLNESS_USER_FLOORS_ASCENDED_GOAL",
	57: "WELLNESS_MIN_HEART_RATE",
	58: "WELLNESS_MAX_HEART_RATE",
	60: "WELLNESS_RESTING_HEART_RATE",
	63: "WELLNESS_AVERAGE_STRESS",
	64: "WELLNESS_MAX_STRESS",
	82: "WELLNESS_MIN_AVG_HEART_RATE",
	83: "WELLNESS_MAX_AVG_HEART_RATE",
	84: "WELLNESS_BODYBATTERY_CHARGED",
	85: "WELLNESS_BODYBATTERY_DRAINED",
	86: "WELLNESS_ABNORMALHR_ALERTS_COUNT",
}

// DefaultMetricIDs returns every catalogued metric id in ascending order.
func DefaultMetricIDs() []int {
	ids := make([]int, 0, len(Metrics))
	for id := range Metrics {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ParseMetricIDs parses a comma separated id list. An empty list selects the defaults.
func ParseMetricIDs(value string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("metric id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return DefaultMetricIDs(), nil
	}
	return ids, nil
}

func resolveMetricIDs(ids []int) []int {
	if len(ids) == 0 {
		return DefaultMetricIDs()
	}
	return ids
}
