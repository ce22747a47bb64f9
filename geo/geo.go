// Package geo implements the great-circle distance and bubble-repulsion
// math the overlay's admission rules depend on.
package geo

import (
	"math"

	"github.com/user/geomesh/model"
)

// earthRadiusKm is the WGS-84 mean radius used by the original LocNet
// implementation's haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two locations on the
// WGS-84 sphere using the haversine formula.
func DistanceKm(a, b model.GpsLocation) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// BubbleKm computes the repulsion radius around a colleague located at
// distance km from self: 500*log10(distance+2500) - 1700. Close colleagues
// (near self) get a negative bubble, meaning no repulsion is enforced at
// short range; distant colleagues get progressively larger bubbles so the
// world map spreads out roughly uniformly.
func BubbleKm(distanceFromSelfKm float64) float64 {
	return 500*math.Log10(distanceFromSelfKm+2500) - 1700
}
