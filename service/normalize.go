package services

import (
	"sort"

	"trip-viewer/models/trip"
	"trip-viewer/util"
)

// NormalizeTripDays recomputes every weekday from its date, discarding any
// authored value, and orders the days by date. days is not modified.
func NormalizeTripDays(days []trip.TripDay, formatter *util.DateFormatter) []trip.TripDay {
	if formatter == nil {
		formatter = util.NewDateFormatter(util.LocaleEnglish)
	}
	out := make([]trip.TripDay, len(days))
	copy(out, days)
	for i := range out {
		weekday, err := formatter.WeekdayOf(out[i].Date)
		if err != nil {
			weekday = ""
		}
		out[i].Weekday = weekday
		if out[i].ItineraryItems == nil {
			out[i].ItineraryItems = []trip.ItineraryItem{}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
