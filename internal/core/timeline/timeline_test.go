package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/cbcsl/cbcsl/internal/core/api"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestClassify(t *testing.T) {
	loc := mustZone(t, "America/Toronto")
	at := func(y int, m time.Month, d, hh, mm int) time.Time {
		return time.Date(y, m, d, hh, mm, 0, 0, loc)
	}
	now := at(2025, time.June, 1, 10, 0)

	tests := []struct {
		name     string
		item     api.ContentItem
		now      time.Time
		expected Kind
		when     string
	}{
		{
			name:     "live already started",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: at(2025, time.June, 1, 9, 0)},
			now:      now,
			expected: Started,
			when:     "09:00",
		},
		{
			name:     "live in the future",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: at(2025, time.June, 1, 12, 0)},
			now:      now,
			expected: Upcoming,
			when:     "12:00",
		},
		{
			name:     "live within known duration",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: at(2025, time.June, 1, 9, 0), Duration: 2 * time.Hour},
			now:      now,
			expected: Started,
			when:     "09:00",
		},
		{
			name:     "live past its known duration",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: at(2025, time.June, 1, 8, 0), Duration: time.Hour},
			now:      now,
			expected: Upcoming,
			when:     "08:00",
		},
		{
			name:     "live starting exactly now",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: now},
			now:      now,
			expected: Started,
			when:     "10:00",
		},
		{
			name:     "video is always a replay",
			item:     api.ContentItem{Flag: api.FlagVideo, AiredAt: at(2025, time.June, 1, 12, 0)},
			now:      now,
			expected: Replay,
			when:     "12:00",
		},
		{
			name:     "previous local day uses month format",
			item:     api.ContentItem{Flag: api.FlagLive, AiredAt: at(2025, time.May, 31, 23, 50)},
			now:      at(2025, time.June, 1, 0, 10),
			expected: Started,
			when:     "May 31 23:50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Classify(tt.item, tt.now, loc)
			if st.Kind != tt.expected {
				t.Errorf("Classify() kind = %s; want %s", st.Kind, tt.expected)
			}
			if st.When != tt.when {
				t.Errorf("Classify() when = %q; want %q", st.When, tt.when)
			}
		})
	}
}

func TestFormatAirTimeUsesLocalDates(t *testing.T) {
	// 23:50 and 00:10 in Toronto straddle local midnight but share the same
	// UTC date (03:50Z and 04:10Z).
	loc := mustZone(t, "America/Toronto")
	aired := time.Date(2025, time.May, 31, 23, 50, 0, 0, loc)
	now := time.Date(2025, time.June, 1, 0, 10, 0, 0, loc)

	if !SameLocalDay(aired.UTC(), now.UTC()) {
		t.Fatal("fixture should share a UTC date")
	}
	if got := FormatAirTime(aired, now, loc); got != "May 31 23:50" {
		t.Errorf("FormatAirTime() = %q; want %q", got, "May 31 23:50")
	}

	// Same instants seen from UTC are on the same day.
	if got := FormatAirTime(aired, now, time.UTC); got != "03:50" {
		t.Errorf("FormatAirTime(UTC) = %q; want %q", got, "03:50")
	}
}

func TestFormatAirTimeConvertsInstants(t *testing.T) {
	loc := mustZone(t, "America/Vancouver")
	aired := time.Date(2025, time.June, 1, 16, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.June, 1, 17, 0, 0, 0, time.UTC)
	if got := FormatAirTime(aired, now, loc); got != "09:00" {
		t.Errorf("FormatAirTime() = %q; want %q", got, "09:00")
	}
}

func TestLine(t *testing.T) {
	item := api.ContentItem{ID: "30045", Title: "Curling: Norway vs Canada"}

	tests := []struct {
		name   string
		state  State
		prefix string
		parts  []string
	}{
		{"started", State{Kind: Started, When: "09:00"}, "", []string{"30045 - (", "STARTED", "@ 09:00) Curling: Norway vs Canada"}},
		{"upcoming", State{Kind: Upcoming, When: "12:00"}, "", []string{"UPCOMING", "@ 12:00)"}},
		{"replay with prefix", State{Kind: Replay, When: "May 31 23:50"}, "https://www.cbc.ca/player/play/video/", []string{"https://www.cbc.ca/player/play/video/30045 - (May 31 23:50) Curling"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Line(item, tt.state, tt.prefix)
			for _, p := range tt.parts {
				if !strings.Contains(got, p) {
					t.Errorf("Line() = %q; missing %q", got, p)
				}
			}
		})
	}
}
