package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/erp/billing/internal/infrastructure/scheduler"
)

const defaultJobKeyPrefix = "billing:jobs:"

// RedisJobStore implements scheduler.JobStore using Redis.
// Job state is shared between instances, so the generation guard sees jobs
// started by any worker process.
//
// Layout:
//
//	<prefix>job:<id>               JSON encoded job
//	<prefix>state:<channel>:<state> set of job IDs
//	<prefix>index                  sorted set of job IDs by enqueue time
type RedisJobStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisJobStore connects to Redis and creates a job store
func NewRedisJobStore(cfg RedisConfig) (*RedisJobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisJobStoreWithClient(client, ""), nil
}

// NewRedisJobStoreWithClient creates a store with an existing Redis client
func NewRedisJobStoreWithClient(client *redis.Client, keyPrefix string) *RedisJobStore {
	if keyPrefix == "" {
		keyPrefix = defaultJobKeyPrefix
	}
	return &RedisJobStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisJobStore) jobKey(id uuid.UUID) string {
	return s.keyPrefix + "job:" + id.String()
}

func (s *RedisJobStore) stateKey(channel string, state scheduler.JobState) string {
	return s.keyPrefix + "state:" + channel + ":" + string(state)
}

func (s *RedisJobStore) indexKey() string {
	return s.keyPrefix + "index"
}

// saveAttempts bounds the optimistic retries of Save under contention
const saveAttempts = 5

// Save writes the job and moves its ID to the set of its current state.
// The job key is watched so the state move is based on the stored state
// at commit time.
func (s *RedisJobStore) Save(ctx context.Context, job *scheduler.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	key := s.jobKey(job.ID)
	save := func(tx *redis.Tx) error {
		previous, err := decodeJob(tx.Get(ctx, key).Bytes())
		if err != nil && !errors.Is(err, scheduler.ErrJobNotFound) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if previous != nil && (previous.State != job.State || previous.Channel != job.Channel) {
				pipe.SRem(ctx, s.stateKey(previous.Channel, previous.State), job.ID.String())
			}
			pipe.SAdd(ctx, s.stateKey(job.Channel, job.State), job.ID.String())
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{
				Score:  float64(job.EnqueuedAt.UnixNano()),
				Member: job.ID.String(),
			})
			return nil
		})
		return err
	}

	for i := 0; i < saveAttempts; i++ {
		err = s.client.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Get loads a job by ID
func (s *RedisJobStore) Get(ctx context.Context, id uuid.UUID) (*scheduler.Job, error) {
	job, err := decodeJob(s.client.Get(ctx, s.jobKey(id)).Bytes())
	if err != nil && !errors.Is(err, scheduler.ErrJobNotFound) {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return job, err
}

func decodeJob(data []byte, err error) (*scheduler.Job, error) {
	if errors.Is(err, redis.Nil) {
		return nil, scheduler.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job scheduler.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// List returns matching jobs, most recently enqueued first
func (s *RedisJobStore) List(ctx context.Context, filter scheduler.JobFilter) ([]*scheduler.Job, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyPrefix + "job:" + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	var jobs []*scheduler.Job
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var job scheduler.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		if filter.Channel != "" && job.Channel != filter.Channel {
			continue
		}
		if filter.State != "" && job.State != filter.State {
			continue
		}
		jobs = append(jobs, &job)
		if filter.Limit > 0 && len(jobs) == filter.Limit {
			break
		}
	}
	return jobs, nil
}

// CountByChannelAndState counts the members of a state set
func (s *RedisJobStore) CountByChannelAndState(ctx context.Context, channel string, state scheduler.JobState) (int, error) {
	n, err := s.client.SCard(ctx, s.stateKey(channel, state)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(n), nil
}

// Close closes the Redis client
func (s *RedisJobStore) Close() error {
	return s.client.Close()
}

var _ scheduler.JobStore = (*RedisJobStore)(nil)
