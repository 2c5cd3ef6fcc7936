package domain

import (
	"math"
	"strconv"
)

// Columns is the fixed output column order shared by every materialization
// of the record set: the SQLite table schema and each exported JSON object.
var Columns = []string{
	"Port Name",
	"State",
	"Port Code",
	"Border",
	"Month",
	"Year",
	"Measure",
	"Value",
	"Latitude",
	"Longitude",
}

// Source header names. Date and Point are consumed by normalization and
// never appear in a Record.
const (
	ColPortName = "Port Name"
	ColState    = "State"
	ColPortCode = "Port Code"
	ColBorder   = "Border"
	ColDate     = "Date"
	ColMeasure  = "Measure"
	ColValue    = "Value"
	ColPoint    = "Point"
)

// SourceColumns lists the header columns a source file must carry.
// Extra columns are tolerated and ignored.
var SourceColumns = []string{
	ColPortName,
	ColState,
	ColPortCode,
	ColBorder,
	ColDate,
	ColMeasure,
	ColValue,
	ColPoint,
}

// SourceRow is one raw data row of the source file, keyed by header name.
type SourceRow struct {
	Line   int // 1-based line number in the source file
	Fields map[string]string
}

// Get returns the raw value of the named column, or "" when absent.
func (r SourceRow) Get(column string) string {
	return r.Fields[column]
}

// Record is one normalized border crossing measurement. Field order is the
// output column order.
type Record struct {
	PortName  string  `json:"Port Name"`
	State     string  `json:"State"`
	PortCode  string  `json:"Port Code"`
	Border    string  `json:"Border"`
	Month     string  `json:"Month"`
	Year      string  `json:"Year"`
	Measure   string  `json:"Measure"`
	Value     int64   `json:"Value"`
	Latitude  Degrees `json:"Latitude"`
	Longitude Degrees `json:"Longitude"`
}

// Degrees is a WGS-84 coordinate component in decimal degrees.
//
// It always serializes with a fractional part ("-67.0", never "-67") so the
// export reads the same as the float column it was persisted from.
type Degrees float64

// MarshalJSON implements json.Marshaler.
func (d Degrees) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &UnsupportedDegreesError{Value: f}
	}
	b := strconv.AppendFloat(nil, f, 'f', -1, 64)
	if f == math.Trunc(f) {
		b = append(b, '.', '0')
	}
	return b, nil
}

// UnsupportedDegreesError is returned when a coordinate cannot be encoded.
type UnsupportedDegreesError struct {
	Value float64
}

func (e *UnsupportedDegreesError) Error() string {
	return "domain: unsupported coordinate value " + strconv.FormatFloat(e.Value, 'g', -1, 64)
}
