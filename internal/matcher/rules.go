package matcher

import (
	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

const (
	MaxStartDistance = 25.0
	MaxEndDistance   = 50.0
)

// withinWindow reports whether other is no more than early minutes before
// ref and no more than late minutes after it.
func withinWindow(ref, other clock.Time, early, late int) bool {
	if other.Before(ref) {
		return other.MinutesUntil(ref) <= early
	}
	return ref.MinutesUntil(other) <= late
}

func routesClose(driver, rider models.Participant) bool {
	return geo.Distance(driver.Start, rider.Start) <= MaxStartDistance &&
		geo.Distance(driver.End, rider.End) <= MaxEndDistance
}

// RiderFitsDriver reports whether rider is a valid recommendation for
// driver. The rider may start up to 30 minutes before or 60 after the
// driver, and end up to 60 minutes before or 30 after.
func RiderFitsDriver(driver, rider models.Participant) bool {
	return routesClose(driver, rider) &&
		withinWindow(driver.StartTime, rider.StartTime, 30, 60) &&
		withinWindow(driver.EndTime, rider.EndTime, 60, 30)
}

// DriverFitsRider reports whether driver is a valid recommendation for
// rider. The tolerances are mirrored from RiderFitsDriver: the driver may
// start up to 60 minutes before or 30 after the rider, and end up to 30
// minutes before or 60 after.
func DriverFitsRider(rider, driver models.Participant) bool {
	return routesClose(driver, rider) &&
		withinWindow(rider.StartTime, driver.StartTime, 60, 30) &&
		withinWindow(rider.EndTime, driver.EndTime, 30, 60)
}

// Fits dispatches to the predicate for subject's role. Participants with
// the same role never fit each other.
func Fits(subject, candidate models.Participant) bool {
	switch {
	case subject.Role == models.RoleDriver && candidate.Role == models.RoleRider:
		return RiderFitsDriver(subject, candidate)
	case subject.Role == models.RoleRider && candidate.Role == models.RoleDriver:
		return DriverFitsRider(subject, candidate)
	default:
		return false
	}
}
