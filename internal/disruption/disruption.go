// Package disruption derives effective schedules for participants whose
// start or end point falls inside a delay zone.
package disruption

import "github.com/example/carpool-matching/internal/models"

// Apply returns the effective pool: one entry per participant, in the same
// order. A participant starting inside a zone must leave earlier by that
// zone's delay; one ending inside a zone arrives later by that zone's delay.
// The input slice is not modified.
func Apply(pool []models.Participant, zones []models.DisruptionZone) []models.Participant {
	return ApplyIndex(pool, NewIndex(zones))
}

// ApplyIndex is Apply over a prebuilt zone index.
func ApplyIndex(pool []models.Participant, ix *Index) []models.Participant {
	out := make([]models.Participant, len(pool))
	for i, p := range pool {
		out[i] = Effective(p, ix)
	}
	return out
}

// Effective shifts a single participant's schedule.
func Effective(p models.Participant, ix *Index) models.Participant {
	if z, ok := ix.Covering(p.Start); ok {
		p.StartTime = p.StartTime.Add(-z.Delay())
	}
	if z, ok := ix.Covering(p.End); ok {
		p.EndTime = p.EndTime.Add(z.Delay())
	}
	return p
}
