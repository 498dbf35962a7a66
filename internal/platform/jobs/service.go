package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hrcore/internal/platform/querier"
)

const (
	JobIdempotencyPurge = "idempotency_purge"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one unit of background work. Run returns details stored with the run.
type Job struct {
	Type string
	Run  func(context.Context) (any, error)
}

// RunLog persists the lifecycle of each job run.
type RunLog interface {
	Start(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

// Service executes jobs on a single worker fed by a bounded queue.
type Service struct {
	runs  RunLog
	queue chan Job
	wg    sync.WaitGroup
}

func New(runs RunLog) *Service {
	return &Service{runs: runs, queue: make(chan Job, 128)}
}

// Start launches the worker; it stops when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

// Wait blocks until the worker and every scheduler have returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(j Job) bool {
	select {
	case s.queue <- j:
		return true
	default:
		log.Warn().Str("jobType", j.Type).Msg("job queue full")
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, j Job) (any, error) {
	return s.runJob(ctx, j)
}

// Schedule enqueues the job built by next every interval until ctx ends.
func (s *Service) Schedule(ctx context.Context, interval time.Duration, next func() Job) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(next())
			}
		}
	}()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				log.Warn().Err(err).Str("jobType", j.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j Job) (any, error) {
	runID := ""
	if s.runs != nil {
		id, err := s.runs.Start(ctx, j.Type)
		if err != nil {
			log.Warn().Err(err).Str("jobType", j.Type).Msg("job run insert failed")
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]string{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		log.Warn().Err(marshalErr).Str("jobType", j.Type).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.runs.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			log.Warn().Err(updErr).Str("jobType", j.Type).Msg("job run update failed")
		}
	}
	log.Info().Str("jobType", j.Type).Str("status", status).RawJSON("details", detailsJSON).Msg("job finished")
	return details, err
}

// Purger removes records created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// IdempotencyPurge builds the job that drops idempotency keys older than ttl.
func IdempotencyPurge(store Purger, ttl time.Duration, now func() time.Time) Job {
	return Job{
		Type: JobIdempotencyPurge,
		Run: func(ctx context.Context) (any, error) {
			cutoff := now().Add(-ttl)
			deleted, err := store.Purge(ctx, cutoff)
			if err != nil {
				return nil, err
			}
			return map[string]any{"cutoff": cutoff.UTC(), "deleted": deleted}, nil
		},
	}
}

type PostgresRunLog struct {
	DB querier.Querier
}

func NewRunLog(db querier.Querier) *PostgresRunLog {
	return &PostgresRunLog{DB: db}
}

func (l *PostgresRunLog) Start(ctx context.Context, jobType string) (string, error) {
	var id string
	err := l.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, StatusRunning).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert job run: %w", err)
	}
	return id, nil
}

func (l *PostgresRunLog) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := l.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	if err != nil {
		return fmt.Errorf("update job run: %w", err)
	}
	return nil
}
