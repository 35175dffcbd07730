package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vizpipe/internal/config"
	"vizpipe/internal/dataprocessing"
	"vizpipe/internal/infrastructure"
	"vizpipe/internal/ingest"
	"vizpipe/internal/services"
	"vizpipe/internal/validation"
	"vizpipe/pkg/contracts/domain"
	"vizpipe/pkg/contracts"
)

const (
	outputJSON = "json"
	outputCSV  = "csv"
)

type cliContextKey struct{}

// rootOptions holds the global flags
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
	OutFile    string
}

// cliContext carries the initialized dependencies to the subcommands
type cliContext struct {
	Config    *config.Config
	Logger    *slog.Logger
	Loader    *ingest.Loader
	Validator *validation.FileValidator
	Pipeline  *dataprocessing.Pipeline
	Output    string
	OutFile   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vizpipe",
		Short: "Bin, join and drill into tabular data for charts",
		Long: "vizpipe reads CSV, XLSX and GeoJSON datasets and produces the data\n" +
			"behind grouped bar charts, choropleth maps and drill-down tooltips.",
		Version: contracts.Current().String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml when present)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", outputJSON, "output format (json, csv)")
	pf.StringVar(&opts.OutFile, "out", "", "write the result to this file instead of stdout")

	cmd.AddCommand(newSeriesCmd(), newJoinCmd(), newTopNCmd())
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	format := strings.ToLower(opts.Output)
	if format != outputJSON && format != outputCSV {
		return fmt.Errorf("unsupported output format %q: use json or csv", opts.Output)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	cfg.Logging.Level = opts.LogLevel

	// stdout carries the result, so logs go to stderr
	logger := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	cliCtx := &cliContext{
		Config:    cfg,
		Logger:    logger,
		Loader:    ingest.NewLoader(logger),
		Validator: validation.NewFileValidator(logger),
		Pipeline:  dataprocessing.NewPipeline(logger, services.PipelineConfigFrom(cfg.Pipeline)),
		Output:    format,
		OutFile:   opts.OutFile,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

func getCLIContext(cmd *cobra.Command) (*cliContext, error) {
	cliCtx, ok := cmd.Context().Value(cliContextKey{}).(*cliContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("cli context not initialized")
	}
	return cliCtx, nil
}

// writeResult writes v as indented JSON, or calls writeCSV, to stdout or
// the --out file
func (c *cliContext) writeResult(cmd *cobra.Command, v interface{}, writeCSV func(io.Writer) error) (err error) {
	var w io.Writer = cmd.OutOrStdout()
	if c.OutFile != "" {
		if err := c.Validator.ValidateOutputPath(c.OutFile); err != nil {
			return err
		}
		f, err := os.Create(c.OutFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = f
	}

	if c.Output == outputCSV {
		return writeCSV(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadTable validates and reads a CSV or XLSX dataset
func (c *cliContext) loadTable(cmd *cobra.Command, path, sheet string, schema ingest.Schema) ([]domain.Record, error) {
	if err := c.Validator.ValidateDataset(path, validation.KindTable); err != nil {
		return nil, err
	}
	return c.Loader.LoadSheet(cmd.Context(), path, sheet, schema)
}
