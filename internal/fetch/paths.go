package fetch

import (
	"net/url"
	"strconv"
	"time"

	"example.com/wellness/internal/domain"
)

// ActivityPageSize is the number of activities requested per list call.
const ActivityPageSize = 100

// WellnessPath is the daily wellness endpoint for the window, one metricId parameter per id.
func WellnessPath(displayName string, from, to time.Time, metricIDs []int) string {
	q := url.Values{}
	q.Set("fromDate", domain.FormatDate(from))
	q.Set("untilDate", domain.FormatDate(to))
	for _, id := range resolveMetricIDs(metricIDs) {
		q.Add("metricId", strconv.Itoa(id))
	}
	q.Set("grpParentActType", "false")
	return "/proxy/userstats-service/wellness/daily/" + url.PathEscape(displayName) + "?" + q.Encode()
}

// ActivitiesPath lists activities started within the window.
func ActivitiesPath(from, to time.Time, start int) string {
	q := url.Values{}
	q.Set("startDate", domain.FormatDate(from))
	q.Set("endDate", domain.FormatDate(to))
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(ActivityPageSize))
	return "/proxy/activitylist-service/activities/search/activities?" + q.Encode()
}

// WeighInsPath lists weigh-ins within the window.
func WeighInsPath(from, to time.Time) string {
	q := url.Values{}
	q.Set("startDate", domain.FormatDate(from))
	q.Set("endDate", domain.FormatDate(to))
	return "/proxy/weight-service/weight/dateRange?" + q.Encode()
}

// ActivityPath addresses a single activity, for reading its type and for updates.
func ActivityPath(activityID int64) string {
	return "/proxy/activity-service/activity/" + strconv.FormatInt(activityID, 10)
}
