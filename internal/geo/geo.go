package geo

import (
	"math"
)

// EarthRadius is the mean Earth radius in meters used for all
// spherical calculations.
const EarthRadius = 6371000.0

// Position is an absolute geographic coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RelativeToAbsolute converts an east/north displacement in meters from
// origin into an absolute position, using the direct geodesic on a
// sphere. xMeters is positive eastward, yMeters positive northward.
func RelativeToAbsolute(origin Position, xMeters, yMeters float64) Position {
	// Zero displacement means the bearing is undefined; don't feed
	// atan2(0, 0) into the formula, just return the origin.
	if xMeters == 0 && yMeters == 0 {
		return origin
	}

	distance := math.Sqrt(xMeters*xMeters + yMeters*yMeters)

	bearingRad := math.Atan2(xMeters, yMeters)
	bearingDeg := bearingRad * 180.0 / math.Pi
	if bearingDeg < 0 {
		bearingDeg += 360
	}
	bearingRad = bearingDeg * math.Pi / 180.0

	lat1 := origin.Lat * math.Pi / 180.0
	lon1 := origin.Lon * math.Pi / 180.0

	angular := distance / EarthRadius

	lat2 := math.Asin(
		math.Sin(lat1)*math.Cos(angular) +
			math.Cos(lat1)*math.Sin(angular)*math.Cos(bearingRad),
	)

	lon2 := lon1 + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Position{
		Lat: lat2 * 180.0 / math.Pi,
		Lon: lon2 * 180.0 / math.Pi,
	}
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula.
func Distance(a, b Position) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lon * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lon * math.Pi / 180.0

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}
