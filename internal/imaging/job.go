// Package imaging runs product images through an image-synthesis service:
// per image, an ordered chain of optional passes, each submit-then-poll.
package imaging

import (
	"context"
	"errors"
	"time"
)

// JobStatus is the coarse state of a remote generation job.
type JobStatus string

// Job statuses
const (
	JobPending  JobStatus = "pending"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Sentinel errors of the poll loop.
var (
	ErrJobFailed   = errors.New("image job failed")
	ErrJobNoOutput = errors.New("image job completed without output")
	ErrJobTimeout  = errors.New("image job timed out")
)

// JobRequest describes one transform (or text-only generation) job.
type JobRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	GuidanceScale  float64
	PresetStyle    string
	// InitImage is the source image. Nil for text-only jobs.
	InitImage    []byte
	InitStrength float64
	// SourceURL is where InitImage came from. Informational.
	SourceURL string
}

// JobResult is one observation of a job.
type JobResult struct {
	Status    JobStatus
	OutputURL string
}

// JobService is the image-synthesis backend.
type JobService interface {
	SubmitJob(ctx context.Context, req JobRequest) (string, error)
	PollJob(ctx context.Context, jobID string) (JobResult, error)
}

// Fetcher downloads image bytes.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Uploader stores image bytes and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Recorder receives per-image outcomes.
type Recorder interface {
	ImageEnhanced(kind string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ImageEnhanced(string, time.Duration) {}
