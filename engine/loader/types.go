package loader

import (
	"time"

	"github.com/paulmach/orb"
)

// Required column names of the earthquake table. Header names are part of the input contract.
const (
	ColumnLongitude = "Longitude"
	ColumnLatitude  = "Latitude"
	ColumnDepthKm   = "Depth_km"
	ColumnMagnitude = "MLy"
)

// RequiredColumns lists the header names every source must provide, in reporting order.
var RequiredColumns = []string{ColumnLongitude, ColumnLatitude, ColumnDepthKm, ColumnMagnitude}

// PointRecord is one accepted input row. Records are immutable once loaded and their
// position in Result.Records is the canonical instance index.
type PointRecord struct {
	Longitude   float64
	Latitude    float64
	DepthMeters float64
	Magnitude   float64
}

// Point returns the record's lon/lat as an orb.Point.
func (r PointRecord) Point() orb.Point {
	return orb.Point{r.Longitude, r.Latitude}
}

// Result is the outcome of one load.
type Result struct {
	// Source is the Name of the Source that produced this result.
	Source string
	// Records holds accepted rows in input order.
	Records []PointRecord
	// Dropped counts rows rejected with a RowParseError.
	Dropped int
	// Samples keeps the first few row errors for diagnostics.
	Samples []*RowParseError
	// Duration is the wall time spent opening and parsing the source.
	Duration time.Duration
	// Err is the load-level error, set on LoadAsync results. Load returns it separately.
	Err error
}

// Points returns the lon/lat of every record, index-aligned with Records.
func (r Result) Points() []orb.Point {
	pts := make([]orb.Point, len(r.Records))
	for i, rec := range r.Records {
		pts[i] = rec.Point()
	}
	return pts
}
