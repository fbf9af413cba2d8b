package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/carpool-matching/internal/disruption"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
	"github.com/example/carpool-matching/internal/storage"
)

const (
	ModePlain      = "plain"
	ModeDisruption = "disruption"
)

// Recommend returns the ranked counterparts in pool that fit subject.
func Recommend(subject models.Participant, pool []models.Participant) []models.Participant {
	var out []models.Participant
	for _, c := range pool {
		if Fits(subject, c) {
			out = append(out, c)
		}
	}
	return Rank(subject, out)
}

// RecommendWithDisruptions filters and ranks with every schedule shifted by
// the zones, but returns the original pool records.
func RecommendWithDisruptions(subject models.Participant, pool []models.Participant, zones []models.DisruptionZone) []models.Participant {
	ix := disruption.NewIndex(zones)
	effSubject := disruption.Effective(subject, ix)
	effective := disruption.ApplyIndex(pool, ix)
	var out []models.Participant
	for i, c := range effective {
		if Fits(effSubject, c) {
			out = append(out, pool[i])
		}
	}
	return Rank(effSubject, out)
}

// Pool is the read side of the participant store.
type Pool interface {
	Snapshot(ctx context.Context) (storage.Snapshot, error)
}

type Service struct {
	Pool   Pool
	Logger *slog.Logger
}

// Recommend looks name up in a single pool snapshot and returns its ranked
// matches. Unknown names yield an error wrapping storage.ErrNotFound.
func (s *Service) Recommend(ctx context.Context, name string, withDisruptions bool) ([]models.Participant, error) {
	start := time.Now()
	mode := ModePlain
	if withDisruptions {
		mode = ModeDisruption
	}
	snap, err := s.Pool.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot pool: %w", err)
	}
	recordPoolSize(snap)
	subject, _, ok := snap.Find(name)
	if !ok {
		return nil, fmt.Errorf("participant %q: %w", name, storage.ErrNotFound)
	}
	out := recommend(subject, snap, withDisruptions)

	observability.RecommendationsTotal.WithLabelValues(mode).Inc()
	observability.RecommendationResults.WithLabelValues(mode).Observe(float64(len(out)))
	observability.RecommendationLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	s.logger().Debug("recommendations computed", "name", name, "mode", mode, "matches", len(out), "pool", len(snap.Participants))
	return out, nil
}

// RecommendMany computes disruption-aware matches for several participants
// from one snapshot. Names not in the pool are left out of the result.
func (s *Service) RecommendMany(ctx context.Context, names []string) (map[string][]models.Participant, error) {
	snap, err := s.Pool.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot pool: %w", err)
	}
	recordPoolSize(snap)
	out := make(map[string][]models.Participant, len(names))
	for _, n := range names {
		subject, _, ok := snap.Find(n)
		if !ok {
			continue
		}
		out[n] = recommend(subject, snap, true)
	}
	return out, nil
}

func recommend(subject models.Participant, snap storage.Snapshot, withDisruptions bool) []models.Participant {
	var out []models.Participant
	if withDisruptions {
		out = RecommendWithDisruptions(subject, snap.Participants, snap.Disruptions)
	} else {
		out = Recommend(subject, snap.Participants)
	}
	if out == nil {
		out = []models.Participant{}
	}
	return out
}

func recordPoolSize(snap storage.Snapshot) {
	var drivers, riders int
	for _, p := range snap.Participants {
		if p.Role == models.RoleDriver {
			drivers++
		} else {
			riders++
		}
	}
	observability.Participants.WithLabelValues(string(models.RoleDriver)).Set(float64(drivers))
	observability.Participants.WithLabelValues(string(models.RoleRider)).Set(float64(riders))
	observability.Disruptions.Set(float64(len(snap.Disruptions)))
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
