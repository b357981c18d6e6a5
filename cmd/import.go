package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/fetcher"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/sheet"
	"github.com/listo-ph/listo/internal/transfer"
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-url>",
	Short: "Import crimes from a CSV or XLSX spreadsheet",
	Long:  "Reads Category, Location, Time of Crime, Time Reported, Latitude, Longitude and Additional Info columns. Rows without coordinates are geocoded, falling back to the default coordinate.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		sheetFormat, _ := cmd.Flags().GetString("sheet-format")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency == 0 {
			concurrency = cfg.Import.Concurrency
		}

		rows, err := readSheet(ctx, path, sheetFormat)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No rows found.")
			return nil
		}

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := []transfer.ImportOption{
			transfer.WithConcurrency(concurrency),
			transfer.WithLocation(env.Location),
			transfer.WithFallback(model.Coordinate{Latitude: cfg.Import.DefaultLat, Longitude: cfg.Import.DefaultLng}),
			transfer.WithDryRun(dryRun),
		}
		if env.Geocoder != nil {
			opts = append(opts, transfer.WithGeocoder(env.Geocoder))
		}

		sum, err := transfer.NewImporter(env.Store, opts...).Import(ctx, rows)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("file", path),
			zap.Int("imported", sum.Imported),
			zap.Int("skipped", sum.Skipped),
		)
		return encode(os.Stdout, outputJSON, sum)
	},
}

// readSheet parses a local spreadsheet or one downloaded from an http(s) URL. An empty
// format is inferred from the file name, URL or response content type.
func readSheet(ctx context.Context, path, format string) ([]sheet.Row, error) {
	var (
		r    io.Reader
		hint = path
	)
	if fetcher.IsURL(path) {
		d, err := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}).Download(ctx, path)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(d.Body)
		hint = d.FormatHint()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open spreadsheet")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	if format == "" {
		format = hint
	}
	sf, err := sheet.FormatOf(format)
	if err != nil {
		return nil, err
	}
	rows, err := sheet.Read(ctx, r, sf)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return rows, nil
}

func init() {
	importCmd.Flags().String("sheet-format", "", "csv or xlsx (default from file name or download)")
	importCmd.Flags().Bool("dry-run", false, "convert rows without writing them")
	importCmd.Flags().Int("concurrency", 0, "rows geocoded in parallel (default from config)")
	rootCmd.AddCommand(importCmd)
}
