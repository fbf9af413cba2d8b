package matcher

import (
	"sort"
	"strings"

	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

// Cost is the ranking key of one candidate relative to a subject.
type Cost struct {
	Spatial  float64
	Temporal int
}

// CostOf sums start and end distances, and the forward minutes from the
// subject's start and end times to the candidate's.
func CostOf(subject, candidate models.Participant) Cost {
	return Cost{
		Spatial: geo.Distance(subject.Start, candidate.Start) + geo.Distance(subject.End, candidate.End),
		Temporal: subject.StartTime.MinutesUntil(candidate.StartTime) +
			subject.EndTime.MinutesUntil(candidate.EndTime),
	}
}

// Rank orders candidates by spatial cost, then temporal cost, then name.
// Equal keys keep their input order. candidates is not modified.
func Rank(subject models.Participant, candidates []models.Participant) []models.Participant {
	type scored struct {
		p    models.Participant
		cost Cost
	}
	list := make([]scored, len(candidates))
	for i, c := range candidates {
		list[i] = scored{c, CostOf(subject, c)}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.cost.Spatial != b.cost.Spatial {
			return a.cost.Spatial < b.cost.Spatial
		}
		if a.cost.Temporal != b.cost.Temporal {
			return a.cost.Temporal < b.cost.Temporal
		}
		return strings.Compare(a.p.Name, b.p.Name) < 0
	})
	out := make([]models.Participant, len(list))
	for i, s := range list {
		out[i] = s.p
	}
	return out
}
