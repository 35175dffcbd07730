package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "vizpipe/internal/errors"
	"vizpipe/pkg/contracts/domain"
)

// Loader reads dataset files and logs what it loaded
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "ingest"))}
}

// LoadRecords reads a .csv or .xlsx table from path
func (l *Loader) LoadRecords(ctx context.Context, path string, schema Schema) ([]domain.Record, error) {
	return l.LoadSheet(ctx, path, "", schema)
}

// LoadSheet is LoadRecords with a named worksheet for .xlsx files.
// The sheet is ignored for CSV; an empty name means the first sheet.
func (l *Loader) LoadSheet(ctx context.Context, path, sheet string, schema Schema) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	records, stats, err := readTable(f, filepath.Ext(path), sheet, schema)
	if err != nil {
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Int("rows", stats.Rows),
		slog.Int("failed_cells", stats.FailedCells),
		slog.Int("missing_cells", stats.MissingCells))
	return records, nil
}

// LoadFeatureCollection reads a GeoJSON file from path
func (l *Loader) LoadFeatureCollection(ctx context.Context, path, keyProperty string) ([]domain.JoinTarget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	targets, err := ReadFeatureCollection(f, keyProperty)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	l.logger.InfoContext(ctx, "features loaded",
		slog.String("path", path),
		slog.Int("features", len(targets)))
	return targets, nil
}

// LoadRecords reads a table file without logging
func LoadRecords(path string, schema Schema) ([]domain.Record, error) {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil))).LoadRecords(context.Background(), path, schema)
}

func readTable(r io.Reader, ext, sheet string, schema Schema) ([]domain.Record, TableStats, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readCSV(r, schema)
	case ".xlsx":
		return readXLSX(r, sheet, schema)
	default:
		return nil, TableStats{}, apperrors.NewParsingError(fmt.Sprintf("unsupported table format %q", ext), nil)
	}
}
