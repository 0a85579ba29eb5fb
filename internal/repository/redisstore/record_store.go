package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ppm-intake-be/internal/repository/contract"
	"ppm-intake-be/pkg/intake/record"
)

const keyPrefix = "intake:record:"

// RecordStore keeps each completion record as a JSON string under intake:record:<session id>
type RecordStore struct {
	rdb *redis.Client
}

var _ contract.RecordRepository = (*RecordStore)(nil)

func NewRecordStore(rdb *redis.Client) *RecordStore {
	return &RecordStore{rdb: rdb}
}

func Key(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *RecordStore) Save(ctx context.Context, rec record.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(rec.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RecordStore) Load(ctx context.Context, sessionID string) (record.Record, bool, error) {
	data, err := s.rdb.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fmt.Errorf("redis get: %w", err)
	}

	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record.Record{}, false, fmt.Errorf("decode record %s: %w", sessionID, err)
	}
	return rec, true, nil
}
