package job

import (
	"errors"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/model"
)

func storedJob(s *Store, id string) *model.FactCheckJob {
	job := &model.FactCheckJob{
		JobID:     id,
		Status:    model.StatusSubmitted,
		CreatedAt: time.Now().UTC(),
	}
	s.Put(job)
	return job
}

func TestStore_GetUnknownJob(t *testing.T) {
	s := NewStore(time.Minute)

	if _, err := s.Get("nope"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := s.Update("nope", func(*model.FactCheckJob) {}); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound from update, got %v", err)
	}
}

func TestStore_UpdateAppliesAndSnapshots(t *testing.T) {
	s := NewStore(time.Minute)
	storedJob(s, "j1")

	updated, err := s.Update("j1", func(j *model.FactCheckJob) {
		j.Status = model.StatusValidating
		j.Progress = 0.4
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.StatusValidating {
		t.Errorf("returned snapshot stale: %s", updated.Status)
	}

	// Mutating the snapshot must not leak back into the store
	updated.Progress = 0.99
	got, _ := s.Get("j1")
	if got.Progress != 0.4 {
		t.Errorf("snapshot mutation leaked into the store: %f", got.Progress)
	}
}

func TestStore_TerminalWriteFence(t *testing.T) {
	s := NewStore(time.Minute)
	storedJob(s, "j1")

	if _, err := s.Update("j1", func(j *model.FactCheckJob) {
		j.Status = model.StatusFinished
		j.CredibilityScore = 88
	}); err != nil {
		t.Fatalf("terminal transition: %v", err)
	}

	_, err := s.Update("j1", func(j *model.FactCheckJob) {
		j.CredibilityScore = 1
	})
	if !errors.Is(err, model.ErrJobTerminal) {
		t.Fatalf("expected ErrJobTerminal, got %v", err)
	}

	got, _ := s.Get("j1")
	if got.CredibilityScore != 88 {
		t.Errorf("late write clobbered a terminal job: %d", got.CredibilityScore)
	}
}

func TestStore_TerminalJobExpires(t *testing.T) {
	s := NewStore(30 * time.Millisecond)
	storedJob(s, "j1")

	if _, err := s.Update("j1", func(j *model.FactCheckJob) {
		j.Status = model.StatusFailed
	}); err != nil {
		t.Fatalf("terminal transition: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := s.Get("j1"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("terminal job should expire after its TTL, got %v", err)
	}
}

func TestStore_ActiveJobNeverExpires(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	storedJob(s, "j1")

	time.Sleep(40 * time.Millisecond)
	if _, err := s.Get("j1"); err != nil {
		t.Errorf("active job must not expire: %v", err)
	}
}
