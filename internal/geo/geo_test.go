package geo

import (
	"math"
	"testing"
)

func TestDistanceZero(t *testing.T) {
	if d := Distance(55.751244, 37.618423, 55.751244, 37.618423); d != 0 {
		t.Fatalf("distance between identical points = %f, want 0", d)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// Москва - Санкт-Петербург, около 634 км
	d := Distance(55.751244, 37.618423, 59.934280, 30.335099)
	if math.Abs(d-634000) > 5000 {
		t.Fatalf("Moscow-SPb distance = %f m, want ~634000 m", d)
	}
}

func TestInRadius(t *testing.T) {
	centerLat, centerLon := 24.7136, 46.6753
	// ~111 м на градус по широте * 0.0005 ≈ 55 м
	if !InRadius(centerLat+0.0005, centerLon, centerLat, centerLon, 100) {
		t.Error("point ~55m away must be inside a 100m radius")
	}
	if InRadius(centerLat+0.01, centerLon, centerLat, centerLon, 100) {
		t.Error("point ~1.1km away must be outside a 100m radius")
	}
}
