package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

var distressCmd = &cobra.Command{
	Use:   "distress",
	Short: "Inspect and acknowledge distress signals",
}

// -- distress list --

var distressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List distress signals with reverse-geocoded addresses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if err := checkOutput(format); err != nil {
			return err
		}
		barangay, _ := cmd.Flags().GetString("barangay")
		query, _ := cmd.Flags().GetString("query")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		if pageSize == 0 {
			pageSize = cfg.Filter.PageSize
		}
		if page < 1 || pageSize < 1 {
			return eris.New("--page and --page-size must be positive")
		}

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Distress.List(ctx, cliSession)
		if err != nil {
			return err
		}
		records = env.Distress.Filter(records, barangay, query)

		out := distressPage{
			Records: filter.Paginate(records, pageSize, page),
			Page:    model.NewPageState(len(records), pageSize, page),
		}
		if format != outputTable {
			return encode(os.Stdout, format, out)
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No distress signals found.")
			return nil
		}
		formatDistress(os.Stdout, out, env.Location)
		return nil
	},
}

// -- distress ack --

var distressAckCmd = &cobra.Command{
	Use:   "ack <signal-id>...",
	Short: "Acknowledge distress signals",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		for _, id := range args {
			if err := env.Distress.Acknowledge(ctx, cliSession, id); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Acknowledged %s\n", id)
		}
		return nil
	},
}

func init() {
	distressListCmd.Flags().String("barangay", "", "barangay code (HS, MB)")
	distressListCmd.Flags().String("query", "", "case-insensitive text search")
	distressListCmd.Flags().Int("page", 1, "page number (1-based)")
	distressListCmd.Flags().Int("page-size", 0, "signals per page (default from config)")
	distressListCmd.Flags().String("format", outputTable, "output format: table, json or yaml")

	distressCmd.AddCommand(distressListCmd, distressAckCmd)
	rootCmd.AddCommand(distressCmd)
}
