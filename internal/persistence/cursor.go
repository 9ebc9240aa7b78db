// Package persistence contains helpers shared by store implementations.
package persistence

import (
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"example.com/wellness/internal/domain"
)

var (
	// ErrInvalidCursor is returned when a page token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrDuplicateKey is returned by Insert when the natural key already exists. The primary key is the
	// backstop if two writers race past Find.
	ErrDuplicateKey = errors.New("duplicate natural key")
	// ErrNotFound is returned by Update when no row carries the natural key.
	ErrNotFound = errors.New("row not found")
)

// EncodeCursor serialises the cursor to a string token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := c.StartTimeLocal.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatInt(c.ActivityID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses the encoded cursor token. An empty token means the first page.
func DecodeCursor(token string) (*domain.Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &domain.Cursor{StartTimeLocal: ts, ActivityID: id}, nil
}

// Before reports whether a sorts strictly after the cursor position in (start time desc, id desc) order,
// i.e. whether it belongs on the next page.
func Before(a domain.Activity, c *domain.Cursor) bool {
	if c == nil {
		return true
	}
	if a.StartTimeLocal.Equal(c.StartTimeLocal) {
		return a.ActivityID < c.ActivityID
	}
	return a.StartTimeLocal.Before(c.StartTimeLocal)
}

// SortActivities orders activities newest first, breaking ties on id.
func SortActivities(acts []domain.Activity) {
	sort.Slice(acts, func(i, j int) bool {
		if acts[i].StartTimeLocal.Equal(acts[j].StartTimeLocal) {
			return acts[i].ActivityID > acts[j].ActivityID
		}
		return acts[i].StartTimeLocal.After(acts[j].StartTimeLocal)
	})
}

// Page filters, orders and truncates acts according to filter. The returned cursor is non-nil only when
// rows remain beyond the page.
func Page(acts []domain.Activity, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor) {
	types := make(map[int]struct{}, len(filter.TypeIDs))
	for _, id := range filter.TypeIDs {
		types[id] = struct{}{}
	}

	out := make([]domain.Activity, 0, len(acts))
	for _, a := range acts {
		if len(types) > 0 {
			if _, ok := types[a.Type.TypeID]; !ok {
				continue
			}
		}
		day := domain.DateOf(a.StartTimeLocal)
		if !filter.From.IsZero() && day.Before(domain.DateOf(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && day.After(domain.DateOf(filter.To)) {
			continue
		}
		if !Before(a, filter.After) {
			continue
		}
		out = append(out, a)
	}
	SortActivities(out)

	if filter.Limit <= 0 || len(out) <= filter.Limit {
		return out, nil
	}
	out = out[:filter.Limit]
	last := out[len(out)-1]
	return out, &domain.Cursor{StartTimeLocal: last.StartTimeLocal, ActivityID: last.ActivityID}
}
