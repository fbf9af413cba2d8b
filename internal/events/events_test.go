package events

import (
	"encoding/json"
	"testing"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/models"
)

func TestDecodeValidEvents(t *testing.T) {
	p := models.Participant{Name: "Ann", StartTime: clock.New(8, 5), Role: models.RoleDriver}
	z := models.DisruptionZone{ID: "z1", Radius: 3}
	for _, e := range []Event{
		{Type: ParticipantCreated, Participant: &p},
		{Type: ParticipantUpdated, Participant: &p},
		{Type: ParticipantDeleted, Name: "Ann"},
		{Type: DisruptionCreated, Disruption: &z},
	} {
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s: %v", e.Type, err)
		}
		if got.Type != e.Type {
			t.Fatalf("type %s, want %s", got.Type, e.Type)
		}
	}
}

func TestDecodeRejectsIncomplete(t *testing.T) {
	for _, raw := range []string{
		`{"type":"participant.created"}`,
		`{"type":"participant.deleted"}`,
		`{"type":"disruption.created"}`,
		`{"type":"participant.renamed","name":"Ann"}`,
		`not json`,
	} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestKeyGroupsByRecord(t *testing.T) {
	p := models.Participant{Name: "Ann"}
	created := Event{Type: ParticipantCreated, Participant: &p}
	deleted := Event{Type: ParticipantDeleted, Name: "Ann"}
	if created.Key() != deleted.Key() {
		t.Fatalf("keys differ: %s vs %s", created.Key(), deleted.Key())
	}
	z := Event{Type: DisruptionCreated, Disruption: &models.DisruptionZone{ID: "z9"}}
	if z.Key() != "disruption:z9" {
		t.Fatalf("unexpected key %s", z.Key())
	}
}
