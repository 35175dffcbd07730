// Package exporter writes pipeline results as CSV.
//
// Series exports have one row per bucket (outer, inner, count,
// representative). Choropleth exports have one row per region (key, value,
// class) with an empty value cell for regions without data. Files written
// through CSVWriter start with a UTF-8 BOM so spreadsheet tools detect the
// encoding.
package exporter
