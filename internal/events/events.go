// Package events carries pool changes between the API and the mirror
// consumer over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/carpool-matching/internal/models"
)

type Type string

const (
	ParticipantCreated Type = "participant.created"
	ParticipantUpdated Type = "participant.updated"
	ParticipantDeleted Type = "participant.deleted"
	DisruptionCreated  Type = "disruption.created"
)

// Event describes one pool mutation. Participant is set for created and
// updated events, Name for deletions, Disruption for new zones.
type Event struct {
	Type        Type                   `json:"type"`
	Name        string                 `json:"name,omitempty"`
	Participant *models.Participant    `json:"participant,omitempty"`
	Disruption  *models.DisruptionZone `json:"disruption,omitempty"`
	At          time.Time              `json:"at"`
}

// Key partitions events so all changes to one record stay ordered.
func (e Event) Key() string {
	switch {
	case e.Participant != nil:
		return "participant:" + e.Participant.Name
	case e.Disruption != nil:
		return "disruption:" + e.Disruption.ID
	default:
		return "participant:" + e.Name
	}
}

// Validate checks that the payload matching the event type is present.
func (e Event) Validate() error {
	switch e.Type {
	case ParticipantCreated, ParticipantUpdated:
		if e.Participant == nil {
			return fmt.Errorf("%s event without participant", e.Type)
		}
	case ParticipantDeleted:
		if e.Name == "" {
			return fmt.Errorf("%s event without name", e.Type)
		}
	case DisruptionCreated:
		if e.Disruption == nil {
			return fmt.Errorf("%s event without disruption", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, err
	}
	return e, e.Validate()
}

// Publisher is implemented by KafkaProducer and by test fakes.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Key()), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
