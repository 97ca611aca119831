package feed

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"fairhaven/internal/model"
)

const calendarName = "Fairhaven Events"

// BuildICS renders occurrences as a subscribable iCalendar feed. Point-in-time
// occurrences (no end) are given a nominal one-hour duration so calendar
// clients render them as blocks rather than zero-length markers.
func BuildICS(occs []model.Occurrence, siteURL string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Fairhaven//Events//EN")
	cal.SetXWRCalName(calendarName)

	now := time.Now().UTC()

	for _, occ := range occs {
		ev := cal.AddEvent(fmt.Sprintf("%s-%s@fairhaven", occ.EventID, occ.Start.UTC().Format("20060102T150405Z")))
		ev.SetDtStampTime(now)
		ev.SetStartAt(occ.Start)
		if occ.End != nil {
			ev.SetEndAt(*occ.End)
		} else {
			ev.SetEndAt(occ.Start.Add(time.Hour))
		}
		ev.SetSummary(occ.Name)
		if occ.Location != "" {
			ev.SetLocation(occ.Location)
		}
		if occ.URL != "" {
			ev.SetURL(occ.URL)
		} else if siteURL != "" {
			ev.SetURL(siteURL + "/events")
		}
	}

	return cal.Serialize()
}
