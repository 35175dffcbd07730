package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vizpipe/internal/dataprocessing"
	"vizpipe/internal/exporter"
	"vizpipe/internal/ingest"
	"vizpipe/internal/services"
	"vizpipe/internal/validation"
	"vizpipe/pkg/contracts/domain"
)

func newSeriesCmd() *cobra.Command {
	var (
		file  string
		sheet string
		outer []string
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Build the grouped series (outer key x inner bucket counts)",
		Example: "  vizpipe series --file data/board_games.csv --outer 2015,2016\n" +
			"  vizpipe series -o csv --out series.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if file == "" {
				file = cliCtx.Config.Datasets.RatingsPath()
			}

			records, err := cliCtx.loadTable(cmd, file, sheet, ingest.RatingsSchema())
			if err != nil {
				return err
			}

			keys := parseKeys(outer)
			if len(keys) == 0 {
				for _, k := range cliCtx.Config.Pipeline.OuterKeys {
					keys = append(keys, domain.Number(float64(k)))
				}
			}

			groups, err := cliCtx.Pipeline.Series(cmd.Context(), records, keys...)
			if err != nil {
				return err
			}

			maxCount, total := dataprocessing.SeriesExtent(groups)
			resp := services.SeriesResponse{Groups: groups, MaxCount: maxCount, Total: total}
			return cliCtx.writeResult(cmd, resp, func(w io.Writer) error {
				return exporter.WriteSeries(w, groups, false)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "ratings dataset (.csv or .xlsx; default from config)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringSliceVar(&outer, "outer", nil, "outer keys to build, e.g. 2015,2016 (default from config)")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var (
		regions     string
		counts      string
		sheet       string
		keyProperty string
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join per-region counts into GeoJSON features and classify them",
		Example: "  vizpipe join --regions data/us-states.json --counts data/post_count_state.csv\n" +
			"  vizpipe join -o csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			datasets := cliCtx.Config.Datasets
			if regions == "" {
				regions = datasets.RegionsPath()
			}
			if counts == "" {
				counts = datasets.CountsPath()
			}
			if keyProperty == "" {
				keyProperty = datasets.RegionKeyProperty
			}

			if err := cliCtx.Validator.ValidateDataset(regions, validation.KindRegions); err != nil {
				return err
			}
			targets, err := cliCtx.Loader.LoadFeatureCollection(cmd.Context(), regions, keyProperty)
			if err != nil {
				return err
			}
			source, err := cliCtx.loadTable(cmd, counts, sheet, ingest.CountsSchema())
			if err != nil {
				return err
			}

			result, err := cliCtx.Pipeline.Choropleth(cmd.Context(), targets, source)
			if err != nil {
				return err
			}

			for _, s := range result.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", s)
			}
			return cliCtx.writeResult(cmd, result, func(w io.Writer) error {
				return exporter.WriteChoropleth(w, result.Targets, false)
			})
		},
	}

	cmd.Flags().StringVar(&regions, "regions", "", "GeoJSON FeatureCollection (default from config)")
	cmd.Flags().StringVar(&counts, "counts", "", "per-region counts (.csv or .xlsx; default from config)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet name for the counts (default: first sheet)")
	cmd.Flags().StringVar(&keyProperty, "key-property", "", "feature property holding the region key (default from config)")
	return cmd
}

func newTopNCmd() *cobra.Command {
	var (
		file  string
		sheet string
		outer string
		inner string
		limit int
	)

	cmd := &cobra.Command{
		Use:     "topn",
		Short:   "List the top records of one outer/inner bucket",
		Example: "  vizpipe topn --outer 2015 --inner 7 --limit 3",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if file == "" {
				file = cliCtx.Config.Datasets.RatingsPath()
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
			}

			records, err := cliCtx.loadTable(cmd, file, sheet, ingest.RatingsSchema())
			if err != nil {
				return err
			}

			sel := domain.Selection{
				Outer: services.NormalizeKey(domain.String(outer)),
				Inner: services.NormalizeKey(domain.String(inner)),
			}
			top, err := cliCtx.Pipeline.DrillDown(cmd.Context(), records, sel, limit)
			if err != nil {
				return err
			}

			resp := services.DrillDownResponse{Selection: sel, Records: top}
			return cliCtx.writeResult(cmd, resp, func(w io.Writer) error {
				return exporter.WriteRecords(w, top, exporter.RecordColumns(top), false)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "ratings dataset (.csv or .xlsx; default from config)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringVar(&outer, "outer", "", "outer key, e.g. 2015 (required)")
	cmd.Flags().StringVar(&inner, "inner", "", "inner bucket, e.g. 7 (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of records (default from config)")
	_ = cmd.MarkFlagRequired("outer")
	_ = cmd.MarkFlagRequired("inner")
	return cmd
}

// parseKeys turns flag values into outer keys, numbers where possible
func parseKeys(values []string) []domain.Scalar {
	keys := make([]domain.Scalar, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			keys = append(keys, services.NormalizeKey(domain.String(v)))
		}
	}
	return keys
}
