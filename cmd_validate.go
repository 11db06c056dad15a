package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trip-viewer/util"
	"trip-viewer/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Check an itinerary file and list every violation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := cfg.ItineraryFile
		if len(args) == 1 {
			file = args[0]
		}
		data, err := util.ReadItineraryFile(file)
		if err != nil {
			return err
		}

		result := validation.ValidateJSON(data)
		out := cmd.OutOrStdout()
		if result.IsValid {
			days, err := util.ReadTripDaysFromJSON(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: OK, %d day(s)\n", file, len(days))
			for i := range days {
				fmt.Fprintf(out, "  %s\n", days[i].ToString())
			}
			return nil
		}
		for _, e := range result.Errors {
			fmt.Fprintln(out, e)
		}
		return fmt.Errorf("%s: %d problem(s) found", file, len(result.Errors))
	},
}
