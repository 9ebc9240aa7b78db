// Package normalize maps raw, heterogeneously named remote fields onto the canonical record schema.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"example.com/wellness/internal/domain"
)

// Raw is one flat record as decoded from the remote source.
type Raw map[string]any

// Kind is the canonical type of a field.
type Kind int

const (
	KindInt Kind = iota
	KindInt64
	KindFloat
	KindString
	KindBool
	KindDate
	KindTimestamp
	KindEpochMillis
)

var (
	// ErrMissing marks a field that cannot be defaulted and was absent.
	ErrMissing = errors.New("missing value")
	// ErrSchema is returned for rename tables that cannot be applied unambiguously.
	ErrSchema = errors.New("invalid schema")
)

// Field describes one canonical field. Layout is used by KindTimestamp.
type Field struct {
	Name     string
	Kind     Kind
	Layout   string
	Required bool
}

// Schema is the keep-list plus rename table for one entity.
type Schema struct {
	fields  []Field
	index   map[string]int
	renames map[string]string
	targets map[string]struct{}
}

// NewSchema validates the rename table against the canonical fields.
func NewSchema(fields []Field, renames map[string]string) (*Schema, error) {
	s := &Schema{
		fields:  fields,
		index:   make(map[string]int, len(fields)),
		renames: make(map[string]string, len(renames)),
		targets: make(map[string]struct{}, len(renames)),
	}
	for i, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrSchema, f.Name)
		}
		s.index[f.Name] = i
	}

	// Iterate in a fixed order so collisions are reported deterministically.
	sources := make([]string, 0, len(renames))
	for from := range renames {
		sources = append(sources, from)
	}
	sort.Strings(sources)

	for _, from := range sources {
		to := renames[from]
		if _, ok := s.index[to]; !ok {
			return nil, fmt.Errorf("%w: rename %q targets unknown field %q", ErrSchema, from, to)
		}
		if _, ok := s.index[from]; ok {
			return nil, fmt.Errorf("%w: rename source %q is itself a canonical field", ErrSchema, from)
		}
		if _, taken := s.targets[to]; taken {
			return nil, fmt.Errorf("%w: field %q is the target of more than one rename", ErrSchema, to)
		}
		s.targets[to] = struct{}{}
		s.renames[from] = to
	}
	return s, nil
}

// MustSchema is NewSchema for package-level tables.
func MustSchema(fields []Field, renames map[string]string) *Schema {
	s, err := NewSchema(fields, renames)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the canonical field list in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Normalize renames, filters and parses raw into a record holding every canonical field.
// A canonical key present in raw wins over the rename source that targets it; the source is dropped.
func (s *Schema) Normalize(raw Raw) (Record, error) {
	picked := make(map[string]any, len(s.fields))
	var dropped []string

	for key, value := range raw {
		name := key
		if to, ok := s.renames[key]; ok {
			if _, direct := raw[to]; direct {
				dropped = append(dropped, key)
				continue
			}
			name = to
		}
		if _, keep := s.index[name]; !keep {
			dropped = append(dropped, key)
			continue
		}
		picked[name] = value
	}
	sort.Strings(dropped)

	rec := Record{values: make(map[string]any, len(s.fields)), dropped: dropped}
	for _, f := range s.fields {
		value, present := picked[f.Name]
		if present && value == nil {
			present = false
		}
		if !present && f.Required {
			return Record{}, &domain.FormatError{Field: f.Name, Err: ErrMissing}
		}
		parsed, err := parseField(f, value, present)
		if err != nil {
			return Record{}, &domain.FormatError{Field: f.Name, Value: value, Err: err}
		}
		rec.values[f.Name] = parsed
	}
	return rec, nil
}

func parseField(f Field, value any, present bool) (any, error) {
	switch f.Kind {
	case KindInt:
		if !present {
			return 0, nil
		}
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case KindInt64:
		if !present {
			return int64(0), nil
		}
		return toInt64(value)
	case KindFloat:
		if !present {
			return 0.0, nil
		}
		return toFloat(value)
	case KindString:
		if !present {
			return "", nil
		}
		return fmt.Sprint(value), nil
	case KindBool:
		if !present {
			return false, nil
		}
		return toBool(value)
	case KindDate:
		if !present {
			return nil, ErrMissing
		}
		return toDate(value)
	case KindTimestamp:
		if !present {
			return nil, ErrMissing
		}
		return toTimestamp(value, f.Layout)
	case KindEpochMillis:
		if !present {
			return nil, ErrMissing
		}
		ms, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return nil, fmt.Errorf("unsupported kind %d", f.Kind)
	}
}

func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("not a number: %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	f, err := toFloat(value)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("not a boolean: %T", value)
}

func toDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return domain.DateOf(v), nil
	case string:
		return domain.ParseDate(strings.TrimSpace(v))
	}
	return time.Time{}, fmt.Errorf("not a date: %T", value)
}

func toTimestamp(value any, layout string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if layout == "" {
			layout = time.RFC3339
		}
		return time.ParseInLocation(layout, strings.TrimSpace(v), time.UTC)
	}
	return time.Time{}, fmt.Errorf("not a timestamp: %T", value)
}

// Record is the canonical, default-filled output of Normalize.
type Record struct {
	values  map[string]any
	dropped []string
}

// Dropped lists the raw keys that were not part of the keep-list.
func (r Record) Dropped() []string { return r.dropped }

// Int returns an integer field.
func (r Record) Int(name string) int {
	v, _ := r.values[name].(int)
	return v
}

// Int64 returns a 64-bit integer field.
func (r Record) Int64(name string) int64 {
	v, _ := r.values[name].(int64)
	return v
}

// Float returns a floating point field.
func (r Record) Float(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// String returns a string field.
func (r Record) String(name string) string {
	v, _ := r.values[name].(string)
	return v
}

// Bool returns a boolean field.
func (r Record) Bool(name string) bool {
	v, _ := r.values[name].(bool)
	return v
}

// Time returns a date, timestamp or epoch field.
func (r Record) Time(name string) time.Time {
	v, _ := r.values[name].(time.Time)
	return v
}

// Has reports whether the record carries a canonical field.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}
