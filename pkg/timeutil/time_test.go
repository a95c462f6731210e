package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestResolve(t *testing.T) {
	now := fixedNow.UnixMilli()

	tests := []struct {
		name string
		expr Expr
		want int64
	}{
		{name: "empty is now", expr: Expr{}, want: now},
		{name: "blank text is now", expr: Text("  "), want: now},
		{name: "numeric passes through", expr: Millis(1234), want: 1234},
		{name: "seconds ago", expr: Text("45s"), want: now - 45_000},
		{name: "minutes ago", expr: Text("30m"), want: now - 1_800_000},
		{name: "hours ago", expr: Text("2h"), want: now - 7_200_000},
		{name: "days ago", expr: Text("1d"), want: now - 86_400_000},
		{name: "legacy now- prefix", expr: Text("now-1h"), want: now - 3_600_000},
		{name: "epoch millis string", expr: Text("1705744800000"), want: 1705744800000},
		{name: "ten digit string", expr: Text("1705744800"), want: 1705744800},
		{name: "rfc3339", expr: Text("2024-01-20T10:00:00Z"), want: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC).UnixMilli()},
		{name: "rfc3339 with offset", expr: Text("2024-01-20T12:00:00+02:00"), want: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC).UnixMilli()},
		{name: "iso with millis", expr: Text("2024-01-20T10:00:00.250Z"), want: time.Date(2024, 1, 20, 10, 0, 0, 250_000_000, time.UTC).UnixMilli()},
		{name: "date only", expr: Text("2024-01-20"), want: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{name: "literal now falls back to now", expr: Text("now"), want: now},
		{name: "garbage falls back to now", expr: Text("yesterday-ish"), want: now},
		{name: "unknown unit falls back to now", expr: Text("5w"), want: now},
		{name: "short digit string falls back to now", expr: Text("12345"), want: now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.expr, fixedNow))
		})
	}
}

func TestResolveRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		r, err := ResolveRange(Text("1h"), Text("now"), fixedNow)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.UnixMilli()-3_600_000, r.Start)
		assert.Equal(t, fixedNow.UnixMilli(), r.End)
	})

	t.Run("same input", func(t *testing.T) {
		_, err := ResolveRange(Text("now"), Text("now"), fixedNow)
		require.Error(t, err)

		var rangeErr *TimeRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, Inverted, rangeErr.Kind)
		assert.Contains(t, err.Error(), "same")
		assert.Contains(t, err.Error(), "now")
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := ResolveRange(Text("now"), Text("1h"), fixedNow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start (now) must be before end (1h)")
	})

	t.Run("equal instants from different inputs", func(t *testing.T) {
		ms := fixedNow.UnixMilli()
		_, err := ResolveRange(Millis(ms), Text("now"), fixedNow)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "same")
		assert.Contains(t, err.Error(), "must be before end")
	})

	t.Run("defaults via Or", func(t *testing.T) {
		r, err := ResolveRange(Expr{}.Or("now-1h"), Expr{}.Or("now"), fixedNow)
		require.NoError(t, err)
		assert.Equal(t, int64(3_600_000), r.End-r.Start)
	})
}

func TestParseStep(t *testing.T) {
	tests := map[string]int64{
		"30s": 30,
		"1m":  60,
		"5m":  300,
		"1h":  3600,
		"1d":  86400,
		"":    60,
		"abc": 60,
		"5":   60,
		"m5":  60,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseStep(in), "step %q", in)
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1h", want: time.Hour},
		{in: "30m", want: 30 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "now-2h", want: 2 * time.Hour},
		{in: "", wantErr: true},
		{in: "0h", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestUnitWarnings(t *testing.T) {
	now := fixedNow
	nowSec := now.Unix()

	assert.Empty(t, UnitWarnings(Range{Start: now.UnixMilli() - 1000, End: now.UnixMilli()}, now))

	warnings := UnitWarnings(Range{Start: nowSec - 3600, End: nowSec}, now)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "seconds")

	future := now.Add(2 * 365 * 24 * time.Hour).UnixMilli()
	warnings = UnitWarnings(Range{Start: now.UnixMilli(), End: future}, now)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "future")
}

func TestFormatTimestamp(t *testing.T) {
	ms := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC).UnixMilli()

	assert.Equal(t, "2024-01-20T10:00:00Z", FormatTimestamp("2024-01-20T10:00:00Z"))
	assert.Equal(t, "2024-01-20T10:00:00.000Z", FormatTimestamp(float64(ms)))
	assert.Equal(t, "2024-01-20T10:00:00.000Z", FormatTimestamp(ms))
	assert.Equal(t, "2024-01-20T10:00:00.000Z", FormatTimestamp(float64(ms)*1e6))
	assert.Equal(t, "2024-01-20T10:00:00.000Z", FormatTimestamp(json.Number("1705744800000")))
	assert.Equal(t, "unknown", FormatTimestamp(nil))
	assert.Equal(t, "unknown", FormatTimestamp(""))
}
