package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/normalize"
)

type wellnessResponse struct {
	AllMetrics *struct {
		MetricsMap map[string][]normalize.MetricValue `json:"metricsMap"`
	} `json:"allMetrics"`
}

// DecodeWellness expands the wellness payload into one raw record per day of the window. The payload
// must carry a metricsMap holding every requested metric; anything less is ErrFetchIncomplete.
func DecodeWellness(body []byte, from, to time.Time, metricIDs []int) ([]normalize.Raw, error) {
	var resp wellnessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode wellness: %v", domain.ErrFetchIncomplete, err)
	}
	if resp.AllMetrics == nil || resp.AllMetrics.MetricsMap == nil {
		return nil, fmt.Errorf("%w: wellness response has no metricsMap", domain.ErrFetchIncomplete)
	}

	metricsMap := resp.AllMetrics.MetricsMap
	for _, id := range resolveMetricIDs(metricIDs) {
		name, known := Metrics[id]
		if !known {
			continue
		}
		if _, ok := metricsMap[name]; !ok {
			return nil, fmt.Errorf("%w: metric %d (%s) missing", domain.ErrFetchIncomplete, id, name)
		}
	}
	return normalize.ExpandWellness(metricsMap, from, to), nil
}

// DecodeActivities flattens an activity list page.
func DecodeActivities(body []byte) ([]normalize.Raw, error) {
	items, err := decodeObjects(body)
	if err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return flattenAll(items), nil
}

// DecodeWeighIns flattens the dateWeightList of a weight range response.
func DecodeWeighIns(body []byte) ([]normalize.Raw, error) {
	var resp struct {
		DateWeightList json.RawMessage `json:"dateWeightList"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode weigh-ins: %w", err)
	}
	if len(resp.DateWeightList) == 0 {
		return nil, nil
	}
	items, err := decodeObjects(resp.DateWeightList)
	if err != nil {
		return nil, fmt.Errorf("decode weigh-ins: %w", err)
	}
	return flattenAll(items), nil
}

// DecodeActivityType reads the classification from a single activity document.
func DecodeActivityType(body []byte) (domain.ActivityType, error) {
	var doc struct {
		ActivityTypeDTO *struct {
			TypeID       int    `json:"typeId"`
			TypeKey      string `json:"typeKey"`
			ParentTypeID int    `json:"parentTypeId"`
		} `json:"activityTypeDTO"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.ActivityType{}, fmt.Errorf("decode activity: %w", err)
	}
	if doc.ActivityTypeDTO == nil {
		return domain.ActivityType{}, fmt.Errorf("decode activity: no activityTypeDTO")
	}
	return domain.ActivityType{
		TypeID:       doc.ActivityTypeDTO.TypeID,
		TypeKey:      doc.ActivityTypeDTO.TypeKey,
		ParentTypeID: doc.ActivityTypeDTO.ParentTypeID,
	}, nil
}

// ReclassifyBody is the update document that changes an activity's type.
func ReclassifyBody(activityID int64, to domain.ActivityType) ([]byte, error) {
	return json.Marshal(map[string]any{
		"activityId": activityID,
		"activityTypeDTO": map[string]any{
			"typeId":       to.TypeID,
			"typeKey":      to.TypeKey,
			"parentTypeId": to.ParentTypeID,
		},
	})
}

// decodeObjects decodes a JSON array of objects, keeping numbers as json.Number so large ids stay exact.
func decodeObjects(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func flattenAll(items []map[string]any) []normalize.Raw {
	out := make([]normalize.Raw, 0, len(items))
	for _, item := range items {
		out = append(out, normalize.Flatten(item))
	}
	return out
}
