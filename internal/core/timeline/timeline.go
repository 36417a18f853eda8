// Package timeline sorts content items into started, upcoming and replay
// buckets and renders their air time for a listing.
package timeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cbcsl/cbcsl/internal/core/api"
)

// Kind is the timeline bucket of an item.
type Kind int

const (
	Started Kind = iota
	Upcoming
	Replay
)

func (k Kind) String() string {
	switch k {
	case Started:
		return "STARTED"
	case Upcoming:
		return "UPCOMING"
	case Replay:
		return "REPLAY"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Layouts use Go's built-in English month names, so output never depends on
// the process locale.
const (
	sameDayLayout  = "15:04"
	otherDayLayout = "Jan 02 15:04"
)

var (
	startedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0")).Bold(true)
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

// State is the classification of one item relative to "now".
type State struct {
	Kind Kind
	When string // air time formatted in the caller's zone
}

// Classify places item on the timeline. Live items are Started once their
// air time has passed (and, when the duration is known, until it ends) and
// Upcoming otherwise. Everything else is a Replay.
func Classify(item api.ContentItem, now time.Time, loc *time.Location) State {
	st := State{Kind: Replay, When: FormatAirTime(item.AiredAt, now, loc)}
	if !item.IsLive() {
		return st
	}

	st.Kind = Upcoming
	if !item.AiredAt.After(now) {
		if item.Duration <= 0 || !now.After(item.AiredAt.Add(item.Duration)) {
			st.Kind = Started
		}
	}
	return st
}

// FormatAirTime renders aired in loc as "15:04" when it falls on the same
// local calendar day as now, and as "Jan 02 15:04" otherwise.
func FormatAirTime(aired, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	a := aired.In(loc)
	if SameLocalDay(a, now.In(loc)) {
		return a.Format(sameDayLayout)
	}
	return a.Format(otherDayLayout)
}

// SameLocalDay compares calendar dates in the location each time carries.
func SameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Line renders one listing entry. prefix is prepended to the ID, typically
// the watch-URL base when full URLs are requested.
func Line(item api.ContentItem, st State, prefix string) string {
	var note string
	switch st.Kind {
	case Started:
		note = fmt.Sprintf("(%s @ %s) ", startedStyle.Render("STARTED "), st.When)
	case Upcoming:
		note = fmt.Sprintf("(%s @ %s) ", upcomingStyle.Render("UPCOMING"), st.When)
	default:
		note = fmt.Sprintf("(%s) ", st.When)
	}
	return fmt.Sprintf("%s%s - %s%s", prefix, item.ID, note, item.Title)
}
