package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerimport/internal/usecase"
)

// ProgressStore keeps the latest progress event of every running import so
// clients can poll it. It implements usecase.ProgressReporter.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewProgressStore creates a new ProgressStore.
func NewProgressStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ProgressStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ProgressStore{client: client, ttl: ttl, logger: logger}
}

// Report stores p under its batch and its project. Storage errors are logged;
// progress is advisory and must not fail an import.
func (s *ProgressStore) Report(ctx context.Context, p usecase.Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn().Err(err).Str("batch_id", p.BatchID).Msg("encode progress")
		return
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if p.BatchID != "" {
			pipe.Set(ctx, batchProgressKey(p.BatchID), data, s.ttl)
		}
		if p.ProjectID != "" {
			pipe.Set(ctx, projectProgressKey(p.ProjectID), data, s.ttl)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("batch_id", p.BatchID).Msg("store progress")
	}
}

// ForBatch returns the latest progress of a batch. ok is false when nothing
// was reported or the entry expired.
func (s *ProgressStore) ForBatch(ctx context.Context, batchID string) (usecase.Progress, bool, error) {
	return s.get(ctx, batchProgressKey(batchID))
}

// ForProject returns the latest progress reported by any import of a project.
func (s *ProgressStore) ForProject(ctx context.Context, projectID string) (usecase.Progress, bool, error) {
	return s.get(ctx, projectProgressKey(projectID))
}

func (s *ProgressStore) get(ctx context.Context, key string) (usecase.Progress, bool, error) {
	var p usecase.Progress

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, false, nil
	}
	if err != nil {
		return p, false, err
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, false, err
	}
	return p, true, nil
}
