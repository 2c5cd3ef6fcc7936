// Package domain models the US land border crossing entry dataset.
//
// # Data Source
//
// The Bureau of Transportation Statistics publishes inbound crossing counts
// at US-Canada and US-Mexico land ports as a single CSV file
// (Border_Crossing_Entry_Data.csv). Each row counts one measure (trucks,
// personal vehicles, pedestrians, ...) at one port for one month.
//
// # Source Conventions
//
// Header:
//
//	Port Name,State,Port Code,Border,Date,Measure,Value,Point
//	Newer releases add Latitude and Longitude columns; they are ignored and
//	the coordinates are always taken from Point.
//
// Date format:
//
//	"<Mon> <YYYY>", e.g. "Mar 1996". Parsed with the Go layout "Jan 2006".
//	Month becomes the full English name ("March"), Year stays a 4-digit
//	string ("1996"). Any other shape is a [ErrDateFormat].
//
// Point format:
//
//	"POINT (<lon> <lat>)", longitude first, e.g. "POINT (-67.0 44.9)".
//	Split on whitespace: token 2 less "(" is the longitude, token 3 less ")"
//	is the latitude. Anything else is a [ErrGeometryFormat].
//
// Value:
//
//	A non-negative integer count. Non-integers are a [ErrParse].
//
// # Output
//
// A [Record] carries exactly the ten [Columns] in order. The struct field
// order is the serialization order, so the SQLite schema, the JSON export,
// and any published message agree without name lookups.
package domain
