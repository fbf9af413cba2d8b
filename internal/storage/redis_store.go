package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool-matching/internal/models"
)

const createAttempts = 3

// RedisStore keeps the pools in Redis so several API instances share them.
// Each pool is a hash of JSON records plus a sorted set holding insertion
// order; scores come from a shared INCR counter.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if prefix == "" {
		prefix = "carpool"
	}
	return &RedisStore{client: c, prefix: prefix}
}

func (r *RedisStore) participantsKey() string     { return r.prefix + ":participants" }
func (r *RedisStore) participantOrderKey() string { return r.prefix + ":participants:order" }
func (r *RedisStore) zonesKey() string            { return r.prefix + ":disruptions" }
func (r *RedisStore) zoneOrderKey() string        { return r.prefix + ":disruptions:order" }
func (r *RedisStore) seqKey() string              { return r.prefix + ":seq" }

// CreateParticipant inserts p unless the name is taken. The name check and
// the write run under WATCH so concurrent creates cannot both succeed.
func (r *RedisStore) CreateParticipant(ctx context.Context, p models.Participant) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	create := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.participantsKey(), p.Name).Result()
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("participant %q: %w", p.Name, ErrExists)
		}
		seq, err := tx.Incr(ctx, r.seqKey()).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.participantsKey(), p.Name, b)
			pipe.ZAdd(ctx, r.participantOrderKey(), redis.Z{Score: float64(seq), Member: p.Name})
			return nil
		})
		return err
	}
	for i := 0; i < createAttempts; i++ {
		err = r.client.Watch(ctx, create, r.participantsKey())
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// PutParticipant upserts p. An existing record keeps its position.
func (r *RedisStore) PutParticipant(ctx context.Context, p models.Participant) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.participantsKey(), p.Name, b)
		pipe.ZAddNX(ctx, r.participantOrderKey(), redis.Z{Score: float64(seq), Member: p.Name})
		return nil
	})
	return err
}

func (r *RedisStore) GetParticipant(ctx context.Context, name string) (models.Participant, error) {
	raw, err := r.client.HGet(ctx, r.participantsKey(), name).Result()
	if errors.Is(err, redis.Nil) {
		return models.Participant{}, fmt.Errorf("participant %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Participant{}, err
	}
	var p models.Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.Participant{}, fmt.Errorf("decode participant %q: %w", name, err)
	}
	return p, nil
}

func (r *RedisStore) DeleteParticipant(ctx context.Context, name string) error {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, r.participantsKey(), name)
		pipe.ZRem(ctx, r.participantOrderKey(), name)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return fmt.Errorf("participant %q: %w", name, ErrNotFound)
	}
	return nil
}

// AddDisruption stores z once per id; repeats are ignored.
func (r *RedisStore) AddDisruption(ctx context.Context, z models.DisruptionZone) error {
	b, err := json.Marshal(z)
	if err != nil {
		return err
	}
	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, r.zonesKey(), z.ID, b)
		pipe.ZAddNX(ctx, r.zoneOrderKey(), redis.Z{Score: float64(seq), Member: z.ID})
		return nil
	})
	return err
}

// Snapshot reads both pools inside a single MULTI/EXEC.
func (r *RedisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		pOrder, zOrder *redis.StringSliceCmd
		pAll, zAll     *redis.MapStringStringCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pOrder = pipe.ZRange(ctx, r.participantOrderKey(), 0, -1)
		pAll = pipe.HGetAll(ctx, r.participantsKey())
		zOrder = pipe.ZRange(ctx, r.zoneOrderKey(), 0, -1)
		zAll = pipe.HGetAll(ctx, r.zonesKey())
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return assembleSnapshot(pOrder.Val(), pAll.Val(), zOrder.Val(), zAll.Val())
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisStore) Close() error { return r.client.Close() }

// assembleSnapshot decodes hash values in sorted-set order. Members missing
// from the hash are skipped.
func assembleSnapshot(pOrder []string, pAll map[string]string, zOrder []string, zAll map[string]string) (Snapshot, error) {
	s := Snapshot{
		Participants: make([]models.Participant, 0, len(pOrder)),
		Disruptions:  make([]models.DisruptionZone, 0, len(zOrder)),
	}
	for _, name := range pOrder {
		raw, ok := pAll[name]
		if !ok {
			continue
		}
		var p models.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Snapshot{}, fmt.Errorf("decode participant %q: %w", name, err)
		}
		s.Participants = append(s.Participants, p)
	}
	for _, id := range zOrder {
		raw, ok := zAll[id]
		if !ok {
			continue
		}
		var z models.DisruptionZone
		if err := json.Unmarshal([]byte(raw), &z); err != nil {
			return Snapshot{}, fmt.Errorf("decode disruption %q: %w", id, err)
		}
		s.Disruptions = append(s.Disruptions, z)
	}
	return s, nil
}
