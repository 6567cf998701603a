package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MeanEarthRadius is the mean earth radius in meters used for altitude scaling.
// Horizontal projection uses orb.EarthRadius (the WGS84 equatorial radius) like every web-mercator tile scheme.
const MeanEarthRadius = 6371008.8

// worldMeters is the width of the spherical web-mercator plane in meters.
const worldMeters = 2 * math.Pi * orb.EarthRadius

// LocalPosition is a point in the host map's local render space.
// X grows east and Y grows south over the unit square [0,1]x[0,1] covering the mercator world.
// Z is elevation in the same units as X and Y at the point's latitude.
type LocalPosition struct {
	X, Y, Z float64
}

// Projector converts geographic coordinates into LocalPosition.
// Implementations must be pure and deterministic.
type Projector interface {
	// Project converts a longitude/latitude pair in decimal degrees and an altitude in meters
	// into the host's local coordinate system. NaN inputs propagate as NaN outputs.
	//
	// Parameters:
	//   - longitude: decimal degrees in [-180, 180]
	//   - latitude: decimal degrees in [-90, 90]
	//   - altitudeMeters: distance along the host's elevation axis in meters
	//
	// Returns:
	//   - LocalPosition: the projected position
	Project(longitude, latitude, altitudeMeters float64) LocalPosition
}

// ProjectorFunc adapts a plain function to the Projector interface.
type ProjectorFunc func(longitude, latitude, altitudeMeters float64) LocalPosition

func (f ProjectorFunc) Project(longitude, latitude, altitudeMeters float64) LocalPosition {
	return f(longitude, latitude, altitudeMeters)
}

// Mercator is the default Projector: spherical web mercator normalized to the unit square,
// matching the coordinate space custom map layers render in.
type Mercator struct{}

var _ Projector = Mercator{}

func (Mercator) Project(longitude, latitude, altitudeMeters float64) LocalPosition {
	m := project.WGS84.ToMercator(orb.Point{longitude, latitude})
	return LocalPosition{
		X: 0.5 + m[0]/worldMeters,
		Y: 0.5 - m[1]/worldMeters,
		Z: altitudeMeters * MetersToUnits(latitude),
	}
}

// Project runs the default Mercator projection.
func Project(longitude, latitude, altitudeMeters float64) LocalPosition {
	return Mercator{}.Project(longitude, latitude, altitudeMeters)
}

// Unproject inverts the horizontal part of Mercator.Project.
//
// Parameters:
//   - p: a position in local units; Z is ignored
//
// Returns:
//   - longitude, latitude: decimal degrees
func Unproject(p LocalPosition) (longitude, latitude float64) {
	g := project.Mercator.ToWGS84(orb.Point{
		(p.X - 0.5) * worldMeters,
		(0.5 - p.Y) * worldMeters,
	})
	return g[0], g[1]
}

// MetersToUnits returns how many local units one meter spans at the given latitude.
// It is the inverse of the earth's circumference along that parallel.
func MetersToUnits(latitude float64) float64 {
	return 1 / (2 * math.Pi * MeanEarthRadius * math.Cos(latitude*math.Pi/180))
}

// BoundOf returns the lon/lat bounding box of points, skipping any point with a NaN coordinate.
// An empty or all-NaN input yields the zero Bound.
func BoundOf(points []orb.Point) orb.Bound {
	var mp orb.MultiPoint
	for _, p := range points {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			continue
		}
		mp = append(mp, p)
	}
	if len(mp) == 0 {
		return orb.Bound{}
	}
	return mp.Bound()
}
