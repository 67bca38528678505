package job

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/veridex/veridex/internal/model"
)

// Store holds jobs in memory. Active jobs never expire; a job starts
// its retention clock only when it reaches a terminal status.
//
// All mutation goes through Update under a single lock, which makes the
// orchestrator the only effective writer and lets the terminal fence be
// enforced in one place. Get and List return snapshots; callers must
// treat them as read-only.
type Store struct {
	mu   sync.Mutex
	jobs *gocache.Cache
	ttl  time.Duration
}

// NewStore creates a job store with the given terminal-job retention
func NewStore(ttl time.Duration) *Store {
	return &Store{
		jobs: gocache.New(gocache.NoExpiration, 10*time.Minute),
		ttl:  ttl,
	}
}

// Put registers a freshly submitted job
func (s *Store) Put(job *model.FactCheckJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *job
	s.jobs.Set(job.JobID, &copied, gocache.NoExpiration)
}

// Get returns a snapshot of the job
func (s *Store) Get(id string) (*model.FactCheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, found := s.jobs.Get(id)
	if !found {
		return nil, model.ErrJobNotFound
	}
	snapshot := *stored.(*model.FactCheckJob)
	return &snapshot, nil
}

// Update applies fn to the stored job under the store lock. Terminal
// jobs are write-fenced: once finished or failed, nothing may touch
// them again, and a late writer gets ErrJobTerminal instead of silently
// clobbering the result. An update that moves the job into a terminal
// status starts its retention TTL.
func (s *Store) Update(id string, fn func(*model.FactCheckJob)) (*model.FactCheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, found := s.jobs.Get(id)
	if !found {
		return nil, model.ErrJobNotFound
	}
	job := stored.(*model.FactCheckJob)
	if job.Status.Terminal() {
		return nil, model.ErrJobTerminal
	}

	fn(job)

	if job.Status.Terminal() {
		s.jobs.Set(id, job, s.ttl)
	}

	snapshot := *job
	return &snapshot, nil
}

// List returns snapshots of all retained jobs, newest first
func (s *Store) List() []*model.FactCheckJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.jobs.Items()
	jobs := make([]*model.FactCheckJob, 0, len(items))
	for _, item := range items {
		snapshot := *item.Object.(*model.FactCheckJob)
		jobs = append(jobs, &snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}
