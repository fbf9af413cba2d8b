package storage

import (
	"context"
	"errors"

	"github.com/example/carpool-matching/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Snapshot is one consistent view of the participant and disruption pools,
// each in insertion order.
type Snapshot struct {
	Participants []models.Participant
	Disruptions  []models.DisruptionZone
}

// Find returns the first participant with the given name.
func (s Snapshot) Find(name string) (models.Participant, int, bool) {
	for i, p := range s.Participants {
		if p.Name == name {
			return p, i, true
		}
	}
	return models.Participant{}, -1, false
}

// PoolStore holds the participant and disruption pools.
type PoolStore interface {
	CreateParticipant(ctx context.Context, p models.Participant) error
	PutParticipant(ctx context.Context, p models.Participant) error
	GetParticipant(ctx context.Context, name string) (models.Participant, error)
	DeleteParticipant(ctx context.Context, name string) error
	AddDisruption(ctx context.Context, z models.DisruptionZone) error
	Snapshot(ctx context.Context) (Snapshot, error)
	Ping(ctx context.Context) error
}
