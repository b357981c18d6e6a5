package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/snapshot"
	"github.com/listo-ph/listo/internal/store"
)

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Filter and page incident collections",
}

// -- incidents list --

var incidentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List incidents matching date, month, range, category and status filters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if err := checkOutput(format); err != nil {
			return err
		}
		spec, err := specFromFlags(cmd)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		if pageSize == 0 {
			pageSize = cfg.Filter.PageSize
		}
		if page < 1 || pageSize < 1 {
			return eris.New("--page and --page-size must be positive")
		}
		collection, _ := cmd.Flags().GetString("collection")

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := loadRecords(ctx, env.Store, collection)
		if err != nil {
			return err
		}
		res := filter.Apply(records, spec, filter.WithLocation(env.Location))
		for _, s := range res.Skipped {
			zap.L().Debug("record skipped", zap.String("id", s.ID), zap.String("reason", string(s.Reason)))
		}

		out := incidentPage{
			Records: filter.Paginate(res.Records, pageSize, page),
			Page:    model.NewPageState(len(res.Records), pageSize, page),
			Skipped: res.Skipped,
		}
		if format == outputTable {
			if out.Page.TotalRecords == 0 {
				fmt.Fprintln(os.Stderr, "No incidents found.")
				return nil
			}
			formatIncidents(os.Stdout, out, env.Location)
			return nil
		}
		return encode(os.Stdout, format, out)
	},
}

// -- incidents months --

var incidentsMonthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Count incidents per month, stepping forward or back from a starting month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		start, _ := cmd.Flags().GetString("start")
		count, _ := cmd.Flags().GetInt("count")
		back, _ := cmd.Flags().GetBool("back")
		collection, _ := cmd.Flags().GetString("collection")
		categories, _ := cmd.Flags().GetStringSlice("category")

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		win := model.WindowOf(time.Now(), env.Location)
		if start != "" {
			if win, err = model.ParseMonthWindow(start); err != nil {
				return err
			}
		}
		nav, err := filter.NewNavigator(win)
		if err != nil {
			return err
		}

		records, err := loadRecords(ctx, env.Store, collection)
		if err != nil {
			return err
		}
		set := filter.NewCategorySet(categories...)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MONTH\tINCIDENTS\tSKIPPED")
		for i := 0; i < count; i++ {
			cur := nav.Current()
			res := filter.FilterByMonth(records, cur, set, filter.WithLocation(env.Location))
			fmt.Fprintf(tw, "%s\t%d\t%d\n", cur, len(res.Records), len(res.Skipped))

			if i == count-1 {
				break
			}
			if back {
				_, err = nav.Back()
			} else {
				_, err = nav.Forward()
			}
			var iwe *model.InvalidWindowError
			if errors.As(err, &iwe) {
				zap.L().Warn("month navigation stopped", zap.Error(err))
				break
			}
			if err != nil {
				return err
			}
		}
		return tw.Flush()
	},
}

// loadRecords fetches and normalizes collection once.
func loadRecords(ctx context.Context, st store.Store, collection string) ([]model.IncidentRecord, error) {
	if err := store.CheckCollection(collection); err != nil {
		return nil, err
	}
	snap, err := snapshot.New(st, collection).Refresh(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", collection)
	}
	return snap.Records, nil
}

// specFromFlags builds filter criteria from the shared filter flags.
func specFromFlags(cmd *cobra.Command) (filter.Spec, error) {
	var spec filter.Spec
	flags := cmd.Flags()

	if v, _ := flags.GetString("date"); v != "" {
		d, err := model.ParseCalendarDate(v)
		if err != nil {
			return spec, err
		}
		spec.Date = &d
	}
	if v, _ := flags.GetString("month"); v != "" {
		w, err := model.ParseMonthWindow(v)
		if err != nil {
			return spec, err
		}
		spec.Window = &w
	}
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return spec, eris.New("--from and --to must be given together")
		}
		f, err := model.ParseCalendarDate(from)
		if err != nil {
			return spec, err
		}
		t, err := model.ParseCalendarDate(to)
		if err != nil {
			return spec, err
		}
		if t.Before(f) {
			return spec, eris.Errorf("range ends %s before it starts %s", t, f)
		}
		spec.Range = &model.DateRange{From: f, To: t}
	}

	categories, _ := flags.GetStringSlice("category")
	spec.Categories = filter.NewCategorySet(categories...)

	if v, _ := flags.GetString("status"); v != "" {
		st, err := model.ParseStatus(v)
		if err != nil {
			return spec, err
		}
		spec.Status = &st
	}
	spec.OwnerID, _ = flags.GetString("owner")
	spec.Query, _ = flags.GetString("query")
	return spec, nil
}

// addFilterFlags registers the flags read by specFromFlags.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("collection", model.CollectionCrimes, "collection to read (crimes, reports, archives)")
	f.String("date", "", "exact day YYYY-MM-DD")
	f.String("month", "", "calendar month YYYY-MM")
	f.String("from", "", "range start YYYY-MM-DD (inclusive)")
	f.String("to", "", "range end YYYY-MM-DD (inclusive)")
	f.StringSlice("category", nil, "categories to keep (repeatable; empty keeps all)")
	f.String("status", "", "moderation status (pending, validated, archived)")
	f.String("owner", "", "reporter uid")
	f.String("query", "", "case-insensitive text search")
}

func init() {
	addFilterFlags(incidentsListCmd)
	incidentsListCmd.Flags().Int("page", 1, "page number (1-based)")
	incidentsListCmd.Flags().Int("page-size", 0, "records per page (default from config)")
	incidentsListCmd.Flags().String("format", outputTable, "output format: table, json or yaml")

	incidentsMonthsCmd.Flags().String("start", "", "first month YYYY-MM (default current month)")
	incidentsMonthsCmd.Flags().Int("count", 6, "number of months to show")
	incidentsMonthsCmd.Flags().Bool("back", false, "step backwards in time")
	incidentsMonthsCmd.Flags().String("collection", model.CollectionCrimes, "collection to read")
	incidentsMonthsCmd.Flags().StringSlice("category", nil, "categories to count")

	incidentsCmd.AddCommand(incidentsListCmd, incidentsMonthsCmd)
	rootCmd.AddCommand(incidentsCmd)
}
