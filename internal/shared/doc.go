// Package shared holds helpers used across vizpipe packages that belong to no
// single layer.
//
// The testutil subpackage provides a capturing slog handler for log
// assertions and small dataset fixtures (board game ratings, regions and
// per-region counts) shared by the package tests.
package shared
