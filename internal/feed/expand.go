package feed

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "fairhaven/internal/log"
	"fairhaven/internal/model"
)

const defaultMaxOccurrencesPerEvent = 366

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location is the zone occurrences are converted into. If nil, time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound the inclusive window of occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxPerEvent caps runaway rules. Zero means the default cap.
	MaxPerEvent int
}

// ExpandOccurrences turns events into concrete occurrences within the window.
// One-off events contribute themselves (when they intersect the window);
// events carrying a Recurrence rule are expanded through it, each occurrence
// keeping the base event's duration. All occurrences come back in the
// configured location.
func ExpandOccurrences(events []model.Event, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("feed: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxPerEvent <= 0 {
		cfg.MaxPerEvent = defaultMaxOccurrencesPerEvent
	}

	occurrences := make([]model.Occurrence, 0, len(events))

	for _, ev := range events {
		if ev.Recurrence == "" {
			if occ, ok := expandSingle(ev, cfg); ok {
				occurrences = append(occurrences, occ)
			}
			continue
		}
		occurrences = append(occurrences, expandRecurring(ev, cfg)...)
	}

	return occurrences, nil
}

func expandSingle(ev model.Event, cfg ExpandConfig) (model.Occurrence, bool) {
	end := ev.StartDate
	if ev.EndDate != nil {
		end = *ev.EndDate
	}
	if end.Before(cfg.RangeStart) || ev.StartDate.After(cfg.RangeEnd) {
		return model.Occurrence{}, false
	}
	return makeOccurrence(ev, ev.StartDate, cfg.Location), true
}

func expandRecurring(ev model.Event, cfg ExpandConfig) []model.Occurrence {
	rule, err := rrule.StrToRRule(ev.Recurrence)
	if err != nil {
		appLog.Warn("skipping unparseable recurrence rule", "event", ev.ID, "rrule", ev.Recurrence, "reason", err)
		// Fall back to the base date so the event does not vanish entirely.
		if occ, ok := expandSingle(ev, cfg); ok {
			return []model.Occurrence{occ}
		}
		return nil
	}
	rule.DTStart(ev.StartDate)

	starts := rule.Between(cfg.RangeStart, cfg.RangeEnd, true)
	if len(starts) > cfg.MaxPerEvent {
		appLog.Warn("truncated recurrence expansion", "event", ev.ID, "cap", cfg.MaxPerEvent)
		starts = starts[:cfg.MaxPerEvent]
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		out = append(out, makeOccurrence(ev, start, cfg.Location))
	}
	return out
}

// makeOccurrence builds one occurrence at start, preserving the base event's
// duration when it has an end date.
func makeOccurrence(ev model.Event, start time.Time, loc *time.Location) model.Occurrence {
	localStart := start.In(loc)

	occ := model.Occurrence{
		EventID:     ev.ID,
		InstanceKey: localStart.Format(time.RFC3339),
		Name:        ev.Name,
		Location:    ev.Location,
		URL:         ev.URL,
		Type:        ev.Type,
		Start:       localStart,
	}

	if ev.EndDate != nil {
		end := localStart.Add(ev.EndDate.Sub(ev.StartDate))
		occ.End = &end
	}

	return occ
}
