package geo

import (
	"math"
	"testing"

	"carpool/internal/domain"
)

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Paris to London is roughly 344 km.
	paris := domain.Coordinates{Lat: 48.8566, Lng: 2.3522}
	london := domain.Coordinates{Lat: 51.5074, Lng: -0.1278}

	got := DistanceKm(paris, london)
	if math.Abs(got-344) > 2 {
		t.Errorf("expected ~344 km, got %.2f", got)
	}
}

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	p := domain.Coordinates{Lat: 12.9716, Lng: 77.5946}

	if got := DistanceKm(p, p); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := domain.Coordinates{Lat: 6.9271, Lng: 79.8612}
	b := domain.Coordinates{Lat: 7.2906, Lng: 80.6337}

	ab := DistanceKm(a, b)
	ba := DistanceKm(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistanceKm_ShortDistance(t *testing.T) {
	// Two points ~1.11 km apart along a meridian (0.01 degrees of latitude).
	a := domain.Coordinates{Lat: 45.0, Lng: 7.0}
	b := domain.Coordinates{Lat: 45.01, Lng: 7.0}

	got := DistanceKm(a, b)
	if math.Abs(got-1.11) > 0.02 {
		t.Errorf("expected ~1.11 km, got %.4f", got)
	}
}
