package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/listo-ph/listo/internal/monitoring"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the moderation backlog and distress queue",
	Long:  "Collects queue metrics and evaluates them against the monitoring thresholds. With --alert, triggered alerts are posted to the configured webhook.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if err := checkOutput(format); err != nil {
			return err
		}
		lookback, _ := cmd.Flags().GetInt("lookback")
		if lookback == 0 {
			lookback = cfg.Monitoring.LookbackWindowHours
		}
		send, _ := cmd.Flags().GetBool("alert")

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := monitoring.NewCollector(env.Store).Collect(ctx, lookback)
		if err != nil {
			return err
		}
		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap)

		if format != outputTable {
			return encode(os.Stdout, format, struct {
				monitoring.MetricsSnapshot `yaml:",inline"`
				Alerts                     []monitoring.Alert `json:"alerts" yaml:"alerts"`
			}{*snap, alerts})
		}
		formatStats(os.Stdout, snap, alerts)

		if send && len(alerts) > 0 {
			sent := alerter.SendAlerts(ctx, alerts)
			fmt.Fprintf(os.Stdout, "\n%d of %d alerts sent\n", sent, len(alerts))
		}
		return nil
	},
}

func formatStats(w io.Writer, snap *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pending reports\t%d\n", snap.PendingReports)
	fmt.Fprintf(tw, "Oldest pending\t%.1fh\n", snap.OldestPendingHours)
	fmt.Fprintf(tw, "Crimes (last %dh)\t%d\n", snap.LookbackHours, snap.RecentCrimes)
	for _, c := range snap.TopCategories() {
		fmt.Fprintf(tw, "  %s\t%d\n", c, snap.RecentByCategory[c])
	}
	fmt.Fprintf(tw, "Unknown category\t%d\n", snap.UnknownCategory)
	fmt.Fprintf(tw, "Distress signals\t%d (%d unacknowledged)\n", snap.DistressTotal, snap.DistressUnacknowledged)
	tw.Flush() //nolint:errcheck

	if len(alerts) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tALERT\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Severity, a.Type, a.Message)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	statsCmd.Flags().Int("lookback", 0, "hours of recent crimes to count (default from config)")
	statsCmd.Flags().Bool("alert", false, "post triggered alerts to the monitoring webhook")
	statsCmd.Flags().String("format", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(statsCmd)
}
