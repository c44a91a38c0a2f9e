package imaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// StubJobService completes every job on the first poll with the source URL
// unchanged. A job is forgotten once polled. Used when no image API key is
// configured.
type StubJobService struct {
	mu   sync.Mutex
	jobs map[string]string
}

// NewStubJobService creates a StubJobService.
func NewStubJobService() *StubJobService {
	return &StubJobService{jobs: make(map[string]string)}
}

func (s *StubJobService) SubmitJob(_ context.Context, req JobRequest) (string, error) {
	id := uuid.NewString()
	out := req.SourceURL
	if out == "" {
		out = PlaceholderBackground(nil)
	}
	s.mu.Lock()
	s.jobs[id] = out
	s.mu.Unlock()
	return id, nil
}

func (s *StubJobService) PollJob(_ context.Context, jobID string) (JobResult, error) {
	s.mu.Lock()
	out, ok := s.jobs[jobID]
	delete(s.jobs, jobID)
	s.mu.Unlock()
	if !ok {
		return JobResult{Status: JobFailed}, nil
	}
	return JobResult{Status: JobComplete, OutputURL: out}, nil
}
