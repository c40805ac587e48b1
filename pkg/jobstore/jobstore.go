// Package jobstore tracks the lifecycle of asynchronous tutoring jobs in
// Redis. The worker writes status transitions; the API reads them back
// for polling clients.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-tutor-be/pkg/store"
)

// Job statuses. Transitions are linear: queued, processing, then one of
// succeeded or failed.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

var ErrNotFound = errors.New("jobstore: job not found")

// Job is the stored record for one async ask request.
type Job struct {
	ID         string         `json:"id"`
	StudentID  string         `json:"student_id"`
	Question   string         `json:"question"`
	ThreadID   string         `json:"thread_id,omitempty"`
	Status     string         `json:"status"`
	Answer     string         `json:"answer,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Sources    []store.Source `json:"sources,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store persists jobs under a key prefix with a TTL so finished jobs age
// out on their own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func key(jobID string) string {
	return "tutor:job:" + jobID
}

// Create writes a fresh job in the queued state.
func (s *Store) Create(ctx context.Context, job Job) error {
	now := time.Now().UTC()
	job.Status = StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now
	return s.write(ctx, job)
}

// Get returns the job, or ErrNotFound when the key is missing or expired.
func (s *Store) Get(ctx context.Context, jobID string) (Job, error) {
	data, err := s.client.Get(ctx, key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("jobstore: get %s: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("jobstore: decode %s: %w", jobID, err)
	}
	return job, nil
}

// MarkProcessing flips the job into the processing state.
func (s *Store) MarkProcessing(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID, func(job *Job) {
		job.Status = StatusProcessing
	})
}

// MarkSucceeded records the final answer.
func (s *Store) MarkSucceeded(ctx context.Context, jobID, answer string, confidence float64, sources []store.Source) error {
	return s.update(ctx, jobID, func(job *Job) {
		job.Status = StatusSucceeded
		job.Answer = answer
		job.Confidence = confidence
		job.Sources = sources
	})
}

// MarkFailed records the failure reason.
func (s *Store) MarkFailed(ctx context.Context, jobID, reason string) error {
	return s.update(ctx, jobID, func(job *Job) {
		job.Status = StatusFailed
		job.Error = reason
	})
}

func (s *Store) update(ctx context.Context, jobID string, mutate func(*Job)) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	return s.write(ctx, job)
}

func (s *Store) write(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: encode %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, key(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("jobstore: set %s: %w", job.ID, err)
	}
	return nil
}
