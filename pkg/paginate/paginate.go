package paginate

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit  = 200
	DefaultOffset = 0
)

// Metadata describes where a page sits in a listing so that the next call
// can be suggested to the caller.
type Metadata struct {
	Count      int
	Total      int
	TotalKnown bool
	Offset     int
	Limit      int
	HasMore    bool
	NextOffset int
}

// Compute derives page metadata. A page is assumed to have more results when
// it is full (count reached limit); the backend gives no better signal.
func Compute(count, offset, limit int, total *int) Metadata {
	m := Metadata{
		Count:      count,
		Offset:     offset,
		Limit:      limit,
		HasMore:    LimitReached(count, limit),
		NextOffset: offset + count,
	}
	if total != nil {
		m.Total = *total
		m.TotalKnown = true
	}
	return m
}

// LimitReached reports whether a page of count results filled limit.
func LimitReached(count, limit int) bool {
	return limit > 0 && count >= limit
}

// FirstShown is the 1-based position of the first item on the page.
func (m Metadata) FirstShown() int { return m.Offset + 1 }

// LastShown is the 1-based position of the last item on the page.
func (m Metadata) LastShown() int { return m.Offset + m.Count }

// NextPageEnd is the 1-based position of the last item of the following
// page, capped at Total when it is known.
func (m Metadata) NextPageEnd() int {
	end := m.NextOffset + m.Limit
	if m.TotalKnown && end > m.Total {
		end = m.Total
	}
	return end
}

// ParseParams extracts limit and offset from request arguments. Values may
// be JSON numbers or numeric strings; invalid values fall back to defaults.
func ParseParams(args map[string]any, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := DefaultOffset

	if v, ok := toInt(args["limit"]); ok && v > 0 {
		limit = v
	}
	if v, ok := toInt(args["offset"]); ok && v >= 0 {
		offset = v
	}
	return limit, offset
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
