package app

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/pickarooms/reservations-server/internal/booking"
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Inspect the canonical booking store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	Long: `List bookings of the canonical store, optionally filtered by resource,
reference, arrival date and status.`,
	RunE: runBookingsList,
}

func init() {
	bookingsCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := bookingsCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	bookingsListCmd.Flags().String("resource", "", "Only rows of this resource id")
	bookingsListCmd.Flags().String("reference", "", "Only rows with this confirmation number")
	bookingsListCmd.Flags().String("arrival", "", "Only rows arriving on this date (YYYY-MM-DD)")
	bookingsListCmd.Flags().StringSlice("status", nil, "Only rows in these statuses (pending, confirmed, cancelled)")
	bookingsListCmd.Flags().Int("limit", 100, "Maximum number of rows")
	bookingsListCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")

	bookingsCmd.AddCommand(bookingsListCmd)
}

func runBookingsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}
	filter, err := listFilter(cmd)
	if err != nil {
		return err
	}

	_, s, cleanup, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := s.ListBookings(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}
	return renderBookings(cmd.OutOrStdout(), output, rows)
}

func listFilter(cmd *cobra.Command) (booking.Filter, error) {
	resource, _ := cmd.Flags().GetString("resource")
	reference, _ := cmd.Flags().GetString("reference")
	arrival, _ := cmd.Flags().GetString("arrival")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit <= 0 {
		return booking.Filter{}, fmt.Errorf("limit must be a positive integer")
	}
	filter := booking.Filter{
		ResourceID: strings.TrimSpace(resource),
		Reference:  strings.TrimPrefix(strings.TrimSpace(reference), "#"),
		Limit:      limit,
	}
	if arrival != "" {
		d, err := civil.ParseDate(arrival)
		if err != nil {
			return filter, fmt.Errorf("arrival must be a date in YYYY-MM-DD format")
		}
		filter.Arrival = &d
	}
	for _, raw := range statuses {
		st, err := booking.ParseStatus(strings.TrimSpace(raw))
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	return filter, nil
}
