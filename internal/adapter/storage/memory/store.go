// Package memory provides an in-process JobStore used by tests and
// single-node dev setups. It mirrors the Redis adapter's semantics, including
// the atomicity of Init and the ordered-append contract for results.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/port"
)

type jobRecord struct {
	state   domain.JobState
	meta    domain.JobMetadata
	results []domain.JobResult
}

type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobRecord
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobRecord)}
}

func (s *Store) Init(_ context.Context, jobID, fileName string, fps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[jobID] = &jobRecord{
		state: domain.JobState{Status: domain.StatusQueued},
		meta: domain.JobMetadata{
			FileName:        fileName,
			FramesPerSecond: fps,
			CreatedAt:       time.Now().UTC(),
		},
	}
	return nil
}

func (s *Store) SetStatus(_ context.Context, jobID string, status domain.JobStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		// A status write for an uninitialized id still has to stick; the
		// Redis adapter behaves the same way (SET creates the key).
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.state = domain.JobState{Status: status, ErrorMessage: errorMessage}
	return nil
}

func (s *Store) GetStatus(_ context.Context, jobID string) (domain.JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok || rec.state.Status == "" {
		return domain.JobState{}, domain.ErrNotFound
	}
	return rec.state, nil
}

func (s *Store) AddResult(_ context.Context, jobID string, result domain.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.results = append(rec.results, result)
	return nil
}

func (s *Store) GetResults(_ context.Context, jobID string) ([]domain.JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return []domain.JobResult{}, nil
	}

	out := make([]domain.JobResult, len(rec.results))
	copy(out, rec.results)
	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampSeconds < out[j].TimestampSeconds
	})
	return out, nil
}

func (s *Store) GetMetadata(_ context.Context, jobID string) (domain.JobMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok || rec.meta.CreatedAt.IsZero() {
		return domain.JobMetadata{}, domain.ErrNotFound
	}
	return rec.meta, nil
}

var _ port.JobStore = (*Store)(nil)
