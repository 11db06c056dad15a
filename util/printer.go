package util

import (
	"fmt"
	"io"
	"strings"

	"trip-viewer/models/trip"
)

// PrintTrip prints the day tabs, marking the selected day and today.
func PrintTrip(w io.Writer, days []trip.TripDay, selected int, formatter *DateFormatter) {
	if formatter == nil {
		formatter = defaultFormatter
	}
	for i, day := range days {
		marker := " "
		if i == selected {
			marker = ">"
		}
		label, err := formatter.FormatDisplay(day.Date)
		if err != nil {
			label = day.Date
		}
		today := ""
		if IsToday(day.Date) {
			today = " [today]"
		}
		fmt.Fprintf(w, "%s %d. %s  %s%s\n", marker, i+1, label, day.Title, today)
	}
}

// PrintTripDay prints one day. Item details are shown only for the items
// expanded reports as open.
func PrintTripDay(w io.Writer, day trip.TripDay, formatter *DateFormatter, expanded func(itemIndex int) bool) {
	if formatter == nil {
		formatter = defaultFormatter
	}
	label, err := formatter.FormatDisplay(day.Date)
	if err != nil {
		label = day.Date
	}
	fmt.Fprintf(w, "%s - %s\n", label, day.Title)

	for i, item := range day.ItineraryItems {
		when := item.Time
		if when == "" {
			when = "--:--"
		}
		fmt.Fprintf(w, "  %s  [%s] %s\n", when, item.Type, item.Name)
		if expanded == nil || !expanded(i) {
			continue
		}
		printDetail(w, "Description", item.Description)
		printDetail(w, "Location", item.Location)
		printDetail(w, "Tips", item.Tips)
		printDetail(w, "Dishes", item.RecommendedDishes)
		if item.Transportation != nil {
			printTransportation(w, item.Transportation)
		}
	}

	if len(day.FoodRecommendations) > 0 {
		fmt.Fprintf(w, "  Food: %s\n", strings.Join(day.FoodRecommendations, ", "))
	}
	if len(day.ShoppingRecommendations) > 0 {
		fmt.Fprintf(w, "  Shopping: %s\n", strings.Join(day.ShoppingRecommendations, ", "))
	}
	if acc := day.Accommodation; acc != nil {
		fmt.Fprintf(w, "  Stay: %s, %s (%s)\n", acc.Name, acc.City, acc.LocationURL)
	}
}

func printTransportation(w io.Writer, t *trip.Transportation) {
	fmt.Fprintf(w, "      %s -> %s%s\n", t.From, t.To, timeRange(t.DepartureTime, t.ArrivalTime))
	if t.IsDirect() {
		fmt.Fprintln(w, "      direct")
		return
	}
	for _, seg := range t.Segments {
		reserved := "unreserved"
		if seg.IsReserved {
			reserved = "reserved"
		}
		fmt.Fprintf(w, "      - %s: %s -> %s%s, %s\n",
			seg.VehicleNumber, seg.From, seg.To, timeRange(seg.DepartureTime, seg.ArrivalTime), reserved)
	}
}

func printDetail(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "      %s: %s\n", label, value)
	}
}

func timeRange(departure, arrival string) string {
	if departure == "" && arrival == "" {
		return ""
	}
	return fmt.Sprintf(" (%s-%s)", departure, arrival)
}

// PrintNotification prints a transient status message.
func PrintNotification(w io.Writer, title, message string) {
	fmt.Fprintf(w, "* %s: %s\n", title, message)
}
