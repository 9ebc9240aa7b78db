package events

const dailyStatUpsertedSchema = `{
  "type": "object",
  "title": "DailyStatUpserted",
  "properties": {
    "date": {"type": "string", "format": "date"},
    "day_of_week": {"type": "string"},
    "total_steps": {"type": "integer"},
    "step_goal": {"type": "integer"},
    "met_step_goal": {"type": "boolean"},
    "outcome": {"type": "string", "enum": ["inserted", "updated"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["date", "day_of_week", "total_steps", "step_goal", "met_step_goal", "outcome", "occurred_at"],
  "additionalProperties": false
}`

const activityUpsertedSchema = `{
  "type": "object",
  "title": "ActivityUpserted",
  "properties": {
    "activity_id": {"type": "integer"},
    "name": {"type": "string"},
    "start_time_local": {"type": "string"},
    "type_id": {"type": "integer"},
    "type_key": {"type": "string"},
    "type_corrected": {"type": "boolean"},
    "distance_miles": {"type": "number"},
    "outcome": {"type": "string", "enum": ["inserted", "updated"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "start_time_local", "type_id", "type_key", "outcome", "occurred_at"],
  "additionalProperties": false
}`

const weighInUpsertedSchema = `{
  "type": "object",
  "title": "WeighInUpserted",
  "properties": {
    "weigh_in_id": {"type": "integer"},
    "calendar_date": {"type": "string", "format": "date"},
    "weight_kg": {"type": "number"},
    "weight_lbs": {"type": "number"},
    "outcome": {"type": "string", "enum": ["inserted", "updated"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["weigh_in_id", "calendar_date", "weight_kg", "weight_lbs", "outcome", "occurred_at"],
  "additionalProperties": false
}`
