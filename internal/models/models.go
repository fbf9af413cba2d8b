package models

import (
	"fmt"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/geo"
)

type Role string

const (
	RoleDriver Role = "Driver"
	RoleRider  Role = "Rider"
)

func (r Role) Valid() bool { return r == RoleDriver || r == RoleRider }

// Counterpart is the role a participant is matched against.
func (r Role) Counterpart() Role {
	if r == RoleDriver {
		return RoleRider
	}
	return RoleDriver
}

// Participant is a carpool user with a route and schedule. It is a value
// type; copies never alias each other.
type Participant struct {
	Name      string     `json:"name"`
	Start     geo.Point  `json:"start"`
	End       geo.Point  `json:"end"`
	StartTime clock.Time `json:"start_time"`
	EndTime   clock.Time `json:"end_time"`
	Role      Role       `json:"role"`
}

func (p Participant) String() string {
	return fmt.Sprintf("%s [%s] %s %s -> %s %s", p.Name, p.Role, p.Start, p.StartTime, p.End, p.EndTime)
}

// DisruptionZone is a circular area where travel is delayed.
type DisruptionZone struct {
	ID         string    `json:"id"`
	Center     geo.Point `json:"center"`
	Radius     float64   `json:"radius"`
	DelayHours int       `json:"delay_hours"`
	DelayMins  int       `json:"delay_minutes"`
}

// Delay is the zone's delay in minutes.
func (z DisruptionZone) Delay() int {
	return z.DelayHours*clock.MinutesPerHour + z.DelayMins
}

// Covers reports whether p lies inside or on the edge of the zone.
func (z DisruptionZone) Covers(p geo.Point) bool {
	return geo.Distance(p, z.Center) <= z.Radius
}

func (z DisruptionZone) String() string {
	return fmt.Sprintf("zone %s at %s r=%g delay %dh%02dm", z.ID, z.Center, z.Radius, z.DelayHours, z.DelayMins)
}
