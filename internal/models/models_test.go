package models

import (
	"testing"

	"github.com/example/carpool-matching/internal/geo"
)

func TestRole(t *testing.T) {
	if !RoleDriver.Valid() || !RoleRider.Valid() {
		t.Fatal("expected both roles valid")
	}
	for _, r := range []Role{"", "driver", "RIDER", "Passenger"} {
		if r.Valid() {
			t.Errorf("expected %q invalid", r)
		}
	}
	if RoleDriver.Counterpart() != RoleRider || RoleRider.Counterpart() != RoleDriver {
		t.Fatal("counterpart mismatch")
	}
}

func TestZoneDelay(t *testing.T) {
	z := DisruptionZone{DelayHours: 1, DelayMins: 45}
	if z.Delay() != 105 {
		t.Fatalf("expected 105, got %d", z.Delay())
	}
}

func TestZoneCoversInclusive(t *testing.T) {
	z := DisruptionZone{Center: geo.Point{X: 0, Y: 0}, Radius: 10}
	cases := []struct {
		p    geo.Point
		want bool
	}{
		{geo.Point{X: 0, Y: 0}, true},
		{geo.Point{X: 5, Y: 5}, true},
		{geo.Point{X: 10, Y: 0}, true},
		{geo.Point{X: 6, Y: 8}, true},
		{geo.Point{X: 10, Y: 1}, false},
		{geo.Point{X: -8, Y: -7}, false},
	}
	for _, c := range cases {
		if got := z.Covers(c.p); got != c.want {
			t.Errorf("Covers(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}
