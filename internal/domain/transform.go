package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the source date stamp format: abbreviated month and 4-digit
// year, e.g. "Mar 1996".
const dateLayout = "Jan 2006"

// pointPrefix is the geometry tag of a source point string.
const pointPrefix = "POINT"

// NormalizeRow converts a raw source row into a Record. It parses Value as an
// integer count, splits the date stamp into Month and Year, and splits the
// point string into Latitude and Longitude. The Date and Point columns are
// consumed.
func NormalizeRow(row SourceRow) (Record, error) {
	value, err := parseCount(row.Get(ColValue))
	if err != nil {
		return Record{}, &RowError{Line: row.Line, Err: err}
	}

	month, year, err := ParseDate(row.Get(ColDate))
	if err != nil {
		return Record{}, &RowError{Line: row.Line, Err: err}
	}

	lon, lat, err := ParsePoint(row.Get(ColPoint))
	if err != nil {
		return Record{}, &RowError{Line: row.Line, Err: err}
	}

	return Record{
		PortName:  row.Get(ColPortName),
		State:     row.Get(ColState),
		PortCode:  row.Get(ColPortCode),
		Border:    row.Get(ColBorder),
		Month:     month,
		Year:      year,
		Measure:   row.Get(ColMeasure),
		Value:     value,
		Latitude:  Degrees(lat),
		Longitude: Degrees(lon),
	}, nil
}

// ParseDate decomposes a "Mar 1996" style stamp into the full month name and
// the 4-digit year, e.g. ("March", "1996"). There is no fallback layout.
func ParseDate(stamp string) (month, year string, err error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(stamp))
	if err != nil {
		return "", "", fmt.Errorf("%w: %q does not match %q", ErrDateFormat, stamp, dateLayout)
	}
	return t.Month().String(), t.Format("2006"), nil
}

// ParsePoint extracts longitude and latitude from "POINT (<lon> <lat>)".
//
// Extraction is positional: the second whitespace-separated token, less its
// leading parenthesis, is the longitude and the third, less its trailing
// parenthesis, is the latitude.
func ParsePoint(point string) (lon, lat float64, err error) {
	tokens := strings.Fields(point)
	if len(tokens) < 3 || tokens[0] != pointPrefix {
		return 0, 0, fmt.Errorf("%w: %q is not POINT (<lon> <lat>)", ErrGeometryFormat, point)
	}

	lonTok, ok := strings.CutPrefix(tokens[1], "(")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q: missing opening parenthesis", ErrGeometryFormat, point)
	}
	latTok, ok := strings.CutSuffix(tokens[2], ")")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q: missing closing parenthesis", ErrGeometryFormat, point)
	}

	lon, err = parseCoordinate(lonTok)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: longitude: %w", ErrGeometryFormat, point, err)
	}
	lat, err = parseCoordinate(latTok)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: latitude: %w", ErrGeometryFormat, point, err)
	}
	return lon, lat, nil
}

// parseCoordinate parses a decimal degree token. NaN and infinities are
// rejected since they cannot be stored or exported.
func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a finite number", s)
	}
	return v, nil
}

// parseCount parses the Value column. Counts may carry surrounding spaces but
// are otherwise plain base-10 integers.
func parseCount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value %q is not an integer", ErrParse, s)
	}
	return v, nil
}
