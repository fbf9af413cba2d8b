package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/carpool-matching/internal/models"
)

// MemoryStore keeps the pools in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	participants []models.Participant
	byName       map[string]int
	zones        []models.DisruptionZone
	zoneIDs      map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]int), zoneIDs: make(map[string]struct{})}
}

func (m *MemoryStore) CreateParticipant(_ context.Context, p models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[p.Name]; ok {
		return fmt.Errorf("participant %q: %w", p.Name, ErrExists)
	}
	m.byName[p.Name] = len(m.participants)
	m.participants = append(m.participants, p)
	return nil
}

func (m *MemoryStore) PutParticipant(_ context.Context, p models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byName[p.Name]; ok {
		m.participants[i] = p
		return nil
	}
	m.byName[p.Name] = len(m.participants)
	m.participants = append(m.participants, p)
	return nil
}

func (m *MemoryStore) GetParticipant(_ context.Context, name string) (models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byName[name]
	if !ok {
		return models.Participant{}, fmt.Errorf("participant %q: %w", name, ErrNotFound)
	}
	return m.participants[i], nil
}

func (m *MemoryStore) DeleteParticipant(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("participant %q: %w", name, ErrNotFound)
	}
	m.participants = append(m.participants[:i], m.participants[i+1:]...)
	delete(m.byName, name)
	for j := i; j < len(m.participants); j++ {
		m.byName[m.participants[j].Name] = j
	}
	return nil
}

func (m *MemoryStore) AddDisruption(_ context.Context, z models.DisruptionZone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zoneIDs[z.ID]; ok {
		return nil
	}
	m.zoneIDs[z.ID] = struct{}{}
	m.zones = append(m.zones, z)
	return nil
}

// Snapshot copies both pools under one read lock.
func (m *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		Participants: make([]models.Participant, len(m.participants)),
		Disruptions:  make([]models.DisruptionZone, len(m.zones)),
	}
	copy(s.Participants, m.participants)
	copy(s.Disruptions, m.zones)
	return s, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
