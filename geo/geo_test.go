package geo

import (
	"math"
	"testing"

	"github.com/user/geomesh/model"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestDistanceKmSamePointIsZero(t *testing.T) {
	p := model.GpsLocation{Latitude: 47.4979, Longitude: 19.0402}
	if d := DistanceKm(p, p); !almostEqual(d, 0, 1e-9) {
		t.Fatalf("DistanceKm(p, p) = %v, want 0", d)
	}
}

func TestDistanceKmIsSymmetric(t *testing.T) {
	a := model.GpsLocation{Latitude: 47.4979, Longitude: 19.0402}
	b := model.GpsLocation{Latitude: 51.5074, Longitude: -0.1278}

	if !almostEqual(DistanceKm(a, b), DistanceKm(b, a), 1e-9) {
		t.Fatalf("DistanceKm is not symmetric")
	}
}

func TestDistanceKmKnownCities(t *testing.T) {
	// Budapest to London, roughly 1450km great-circle.
	budapest := model.GpsLocation{Latitude: 47.4979, Longitude: 19.0402}
	london := model.GpsLocation{Latitude: 51.5074, Longitude: -0.1278}

	d := DistanceKm(budapest, london)
	if d < 1400 || d > 1500 {
		t.Fatalf("DistanceKm(Budapest, London) = %v, want ~1450km", d)
	}
}

func TestDistanceKmAntipodal(t *testing.T) {
	a := model.GpsLocation{Latitude: 0, Longitude: 0}
	b := model.GpsLocation{Latitude: 0, Longitude: 180}

	d := DistanceKm(a, b)
	want := math.Pi * earthRadiusKm
	if !almostEqual(d, want, 1) {
		t.Fatalf("DistanceKm(antipodal) = %v, want ~%v", d, want)
	}
}

func TestBubbleKmIsMonotonicIncreasing(t *testing.T) {
	near := BubbleKm(10)
	far := BubbleKm(10000)
	if !(near < far) {
		t.Fatalf("expected BubbleKm to grow with distance: near=%v far=%v", near, far)
	}
}

func TestBubbleKmNegativeAtShortRange(t *testing.T) {
	if b := BubbleKm(0); b >= 0 {
		t.Fatalf("BubbleKm(0) = %v, want negative (no repulsion at short range)", b)
	}
}
