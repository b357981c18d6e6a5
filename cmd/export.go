package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered incidents as CSV, XLSX or a PDF summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("format")
		format, err := transfer.ParseExportFormat(name)
		if err != nil {
			return err
		}
		spec, err := specFromFlags(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = format.FileName()
		}
		title, _ := cmd.Flags().GetString("title")
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

		var buf bytes.Buffer
		opts := transfer.ExportOptions{Title: title, Period: describePeriod(spec), Location: env.Location}
		if err := transfer.Export(&buf, format, res.Records, opts); err != nil {
			return err
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return eris.Wrap(err, "write export")
		}

		abs, _ := filepath.Abs(out)
		zap.L().Info("export complete",
			zap.String("file", abs),
			zap.String("format", string(format)),
			zap.Int("records", len(res.Records)),
			zap.Int("skipped", len(res.Skipped)),
		)
		return nil
	},
}

func describePeriod(spec filter.Spec) string {
	if p := spec.Period(); p != "" {
		return p
	}
	return "All dates"
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().String("format", "csv", "export format: csv, xlsx or pdf")
	exportCmd.Flags().String("out", "", "output path (default FilteredReports.<format>)")
	exportCmd.Flags().String("title", "", "title printed on PDF summaries")
	rootCmd.AddCommand(exportCmd)
}
