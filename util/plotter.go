package util

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"trip-viewer/models/trip"
)

// PlotTripOverview renders an HTML bar chart of items per day, stacked by
// item type.
func PlotTripOverview(days []trip.TripDay, w io.Writer) error {
	dates := make([]string, len(days))
	for i, day := range days {
		dates[i] = day.Date
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Trip Overview",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Itinerary items per day"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(dates)
	for _, itemType := range trip.ItemTypes {
		data := make([]opts.BarData, len(days))
		for i, day := range days {
			count := 0
			for _, item := range day.ItineraryItems {
				if item.Type == itemType {
					count++
				}
			}
			data[i] = opts.BarData{Value: count}
		}
		bar.AddSeries(string(itemType), data, charts.WithBarChartOpts(opts.BarChart{Stack: "items"}))
	}

	return bar.Render(w)
}
