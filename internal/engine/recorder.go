package engine

import "time"

// Recorder receives generation telemetry.
type Recorder interface {
	StageDuration(stage string, d time.Duration)
	RunFinished(status string)
	ContentFallback(field string)
}

type nopRecorder struct{}

func (nopRecorder) StageDuration(string, time.Duration) {}
func (nopRecorder) RunFinished(string)                  {}
func (nopRecorder) ContentFallback(string)              {}
