package normalize

import (
	"strings"
	"unicode"
)

// Flatten collapses nested objects into one level, joining snake_cased keys with "_".
// activityType.typeId becomes activity_type_type_id. Non-object values are copied as is.
func Flatten(nested map[string]any) Raw {
	out := make(Raw, len(nested))
	flattenInto(out, "", nested)
	return out
}

func flattenInto(out Raw, prefix string, m map[string]any) {
	for key, value := range m {
		name := SnakeCase(key)
		if prefix != "" {
			name = prefix + "_" + name
		}
		if child, ok := value.(map[string]any); ok {
			flattenInto(out, name, child)
			continue
		}
		out[name] = value
	}
}

// SnakeCase converts camelCase or SCREAMING_CASE to snake_case, keeping acronyms together
// (startTimeGMT -> start_time_gmt, averageHR -> average_hr).
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
