package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/castforge/castforge/internal/podcast"
)

// jobState is everything the server tracks for one generation job.
type jobState struct {
	job       podcast.Job
	record    *podcast.Record
	audioPath string
}

// jobStore keeps jobs in memory for the life of the process.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
}

func newJobStore() *jobStore {
	return &jobStore{jobs: map[string]*jobState{}}
}

// Create registers a new pending job and returns its id.
func (s *jobStore) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[id] = &jobState{
		job: podcast.Job{ID: id, Status: podcast.StatusPending},
	}

	return id
}

// Job returns the job status, reporting whether the id is known.
func (s *jobStore) Job(id string) (podcast.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.jobs[id]
	if !ok {
		return podcast.Job{}, false
	}

	return state.job, true
}

// Record returns the finished record for id, nil until completed.
func (s *jobStore) Record(id string) (*podcast.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.jobs[id]
	if !ok {
		return nil, false
	}

	return state.record, true
}

// AudioPath returns where the encoded episode lives on disk.
func (s *jobStore) AudioPath(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.jobs[id]
	if !ok || state.audioPath == "" {
		return "", false
	}

	return state.audioPath, true
}

// SetStatus moves a job through its lifecycle. Terminal states stick.
func (s *jobStore) SetStatus(id string, status podcast.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.jobs[id]
	if !ok || state.job.Status.Terminal() {
		return
	}

	state.job.Status = status
}

// Fail marks the job failed with a message for the client.
func (s *jobStore) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.jobs[id]
	if !ok || state.job.Status.Terminal() {
		return
	}

	state.job.Status = podcast.StatusFailed
	state.job.ErrorMessage = message
}

// Complete stores the finished record and flips the job to completed.
func (s *jobStore) Complete(id string, rec *podcast.Record, audioPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.jobs[id]
	if !ok || state.job.Status.Terminal() {
		return
	}

	state.record = rec
	state.audioPath = audioPath
	state.job.Status = podcast.StatusCompleted
}
