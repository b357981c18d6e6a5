package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Moderate submitted reports",
}

// -- review pending --

var reviewPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List reports awaiting review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		if err := checkOutput(format); err != nil {
			return err
		}

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		reports, err := env.Moderation.Reports(ctx, cliSession)
		if err != nil {
			return err
		}
		out := incidentPage{Records: reports, Page: model.NewPageState(len(reports), len(reports), 1)}
		if format != outputTable {
			return encode(os.Stdout, format, out)
		}
		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No pending reports.")
			return nil
		}
		formatIncidents(os.Stdout, out, env.Location)
		return nil
	},
}

// reviewActionCmd returns the subcommand applying action to the ids given as arguments.
func reviewActionCmd(action moderation.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <report-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := initEnv(ctx, "cli")
			if err != nil {
				return err
			}
			defer env.Close()

			sum, err := env.Moderation.Apply(ctx, cliSession, action, args)
			if err != nil {
				return err
			}
			if err := encode(os.Stdout, outputJSON, sum); err != nil {
				return err
			}
			if len(sum.Failed) > 0 {
				return eris.Errorf("%s: %d of %d reports failed", action, len(sum.Failed), len(args))
			}
			return nil
		},
	}
}

// -- record --

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a crime directly as validated",
	Long:  "Stores an admin-observed crime in the crimes collection. Without --lat/--lng the location is geocoded and must fall inside the service area.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		var d moderation.Draft
		d.Category, _ = flags.GetString("category")
		d.Location, _ = flags.GetString("location")
		d.AdditionalInfo, _ = flags.GetString("info")
		d.Coordinate.Latitude, _ = flags.GetFloat64("lat")
		d.Coordinate.Longitude, _ = flags.GetFloat64("lng")

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if at, _ := flags.GetString("at"); at != "" {
			t, err := time.ParseInLocation("2006-01-02 15:04", at, env.Location)
			if err != nil {
				return eris.Wrap(err, "parse --at")
			}
			d.OccurredAt = t
		}

		rec, err := env.Moderation.Record(ctx, cliSession, d)
		if err != nil {
			return err
		}
		zap.L().Info("crime recorded", zap.String("id", rec.ID), zap.String("category", string(rec.Category)))
		return encode(os.Stdout, outputJSON, rec)
	},
}

// -- cleanup --

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete crimes whose category is unknown",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Moderation.Cleanup(ctx, cliSession)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted %d crimes with unknown category.\n", n)
		return nil
	},
}

func init() {
	reviewPendingCmd.Flags().String("format", outputTable, "output format: table, json or yaml")
	reviewCmd.AddCommand(
		reviewPendingCmd,
		reviewActionCmd(moderation.ActionValidate, "Validate reports and publish them as crimes"),
		reviewActionCmd(moderation.ActionArchive, "Archive reports"),
		reviewActionCmd(moderation.ActionPenalize, "Delete mischievous reports and penalize their owners"),
		reviewActionCmd(moderation.ActionDelete, "Delete reports without penalty"),
	)

	recordCmd.Flags().String("category", "", "crime category (required)")
	recordCmd.Flags().String("location", "", "location description")
	recordCmd.Flags().Float64("lat", 0, "latitude")
	recordCmd.Flags().Float64("lng", 0, "longitude")
	recordCmd.Flags().String("at", "", `time of crime "YYYY-MM-DD HH:MM" (default now)`)
	recordCmd.Flags().String("info", "", "additional info")
	_ = recordCmd.MarkFlagRequired("category")

	rootCmd.AddCommand(reviewCmd, recordCmd, cleanupCmd)
}
