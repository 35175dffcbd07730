// Package ingest loads datasets from CSV, XLSX and GeoJSON into the record and
// join target shapes of pkg/contracts/domain.
//
// Loaders do the text-to-scalar work: stripping thousands separators,
// parsing "2015" as a year date, coercing numeric strings. A cell that does
// not convert is kept as its raw string so that the pipeline rejects the
// record with a precise error instead of the loader guessing.
package ingest
