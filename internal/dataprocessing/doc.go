// Package dataprocessing turns flat records into the shapes chart renderers
// consume. Every operation is a pure function over immutable inputs: no I/O,
// no shared state, identical output for identical input.
//
// # Components
//
//  1. BuildSeries groups records by an outer key (first-seen order) and an
//     inner key, zero-filling each group to a fixed inner-key domain.
//  2. Join attaches per-key values from source rows to join targets such as
//     map regions. Unmatched targets get an absent value, not zero.
//  3. TopN filters records to a selected bucket and keeps the top n by a
//     descending sort key, the drill-down list behind a hovered bar.
//  4. QuantileScale classifies joined values into equal-population classes.
//
// Pipeline wraps the four with a fixed configuration and structured logging.
//
// # Usage
//
//	groups, err := dataprocessing.BuildSeries(records,
//	    dataprocessing.YearField("year"),
//	    dataprocessing.FloorField("average_rating"),
//	    dataprocessing.NumberDomain(0, 9))
//
//	joined := dataprocessing.Join(regions, counts, dataprocessing.JoinOptions{})
//
// # Error Handling
//
// A record with a missing or mistyped key aborts BuildSeries and TopN with an
// *InvalidRecordError. A join source row with an unreadable value is skipped
// and reported as an *UnparsableValueError in JoinResult.Skipped. Both match
// the sentinels of internal/errors with errors.Is.
package dataprocessing
