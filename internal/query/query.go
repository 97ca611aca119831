// Package query organizes canonical events for display: the upcoming/past
// split, day buckets for grid views, and the history ordering. Every day
// boundary is computed in one injected location (the space's local zone), so
// the views agree with each other no matter where the server runs.
package query

import (
	"sort"
	"time"

	"fairhaven/internal/model"
)

// DefaultTimezone is the space's local zone, the single reference frame for
// all upcoming-vs-past determinations.
const DefaultTimezone = "America/Los_Angeles"

// Visible drops events whose status hides them from public views. The same
// filter runs on both the upcoming and past paths.
func Visible(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if model.IsHiddenStatus(ev.Status) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// StartsOnOrAfterDay reports whether t falls on the same local calendar day
// as ref, or later. Same-day events count as upcoming regardless of whether
// their time of day has already passed.
func StartsOnOrAfterDay(t, ref time.Time, loc *time.Location) bool {
	return !dayOf(t, loc).Before(dayOf(ref, loc))
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayKey is the bucket key for a time: its local calendar date.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Upcoming retains events starting on or after now's local day, sorted
// ascending by start time.
func Upcoming(events []model.Event, now time.Time, loc *time.Location) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if StartsOnOrAfterDay(ev.StartDate, now, loc) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

// Past retains the strict complement of Upcoming: events starting before
// now's local day. It reuses the same comparison, so the two views can never
// disagree on a boundary day.
func Past(events []model.Event, now time.Time, loc *time.Location) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if !StartsOnOrAfterDay(ev.StartDate, now, loc) {
			out = append(out, ev)
		}
	}
	return out
}

// Featured retains events flagged for the history "Featured" view.
func Featured(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Featured {
			out = append(out, ev)
		}
	}
	return out
}

// SortPastEventsByPriorityAndDate orders history: priority first
// (p1 < p2 < p3 < absent), then start date descending within a priority
// bucket. The sort is stable, so equal-priority equal-date events keep their
// input order.
func SortPastEventsByPriorityAndDate(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := model.PriorityRank(out[i].Priority), model.PriorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

// BucketOccurrencesByDay groups occurrences sharing a local calendar day for
// week/month grids. Within a bucket, upstream ordering is preserved.
func BucketOccurrencesByDay(occs []model.Occurrence, loc *time.Location) map[string][]model.Occurrence {
	buckets := make(map[string][]model.Occurrence)
	for _, occ := range occs {
		key := DayKey(occ.Start, loc)
		buckets[key] = append(buckets[key], occ)
	}
	return buckets
}
