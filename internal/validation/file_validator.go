package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DatasetKind selects the file formats a dataset may be stored in
type DatasetKind int

const (
	// KindTable is a CSV file or an XLSX workbook
	KindTable DatasetKind = iota
	// KindRegions is a GeoJSON FeatureCollection
	KindRegions
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmptyFile         = errors.New("dataset file is empty")
	ErrTemporaryFile     = errors.New("temporary office file")
)

var extensions = map[DatasetKind][]string{
	KindTable:   {".csv", ".xlsx"},
	KindRegions: {".json", ".geojson"},
}

// FileValidator checks dataset files before they are parsed, so a
// misconfigured path fails with a clear message instead of a parse error
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDataDir validates that the dataset directory exists
func (v *FileValidator) ValidateDataDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Data directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("data directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateFile checks that path is a readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDataset checks that path exists, is not empty and has an
// extension the loader reads for kind
func (v *FileValidator) ValidateDataset(path string, kind DatasetKind) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary office file",
			slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrTemporaryFile)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supported(kind, ext) {
		v.logger.Error("Unsupported dataset format",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%s (extension %q, want one of %s): %w",
			path, ext, strings.Join(extensions[kind], ", "), ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return nil
}

// ValidateOutputPath ensures the directory of an output file exists or can
// be created
func (v *FileValidator) ValidateOutputPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

func supported(kind DatasetKind, ext string) bool {
	for _, e := range extensions[kind] {
		if e == ext {
			return true
		}
	}
	return false
}
