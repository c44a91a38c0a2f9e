package imaging

import (
	"context"
	"fmt"
	"time"
)

// Default poll schedule: 30 polls, 10s apart.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultPollAttempts = 30
)

type pollState int

const (
	stateSubmitted pollState = iota
	statePolling
	stateComplete
	stateFailed
	stateTimedOut
)

func (s pollState) String() string {
	switch s {
	case stateSubmitted:
		return "submitted"
	case statePolling:
		return "polling"
	case stateComplete:
		return "complete"
	case stateFailed:
		return "failed"
	case stateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Poller waits for a submitted job on a fixed interval.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPoller returns the standard 10s x 30 schedule.
func DefaultPoller() Poller {
	return Poller{Interval: DefaultPollInterval, MaxAttempts: DefaultPollAttempts}
}

// Wait polls jobID until it completes, fails or the attempts run out, and
// returns the output URL. A transport error while polling fails the job.
func (p Poller) Wait(ctx context.Context, svc JobService, jobID string) (string, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}

	state := stateSubmitted
	attempt := 0
	var (
		output string
		err    error
	)
	for {
		switch state {
		case stateSubmitted, statePolling:
			if attempt >= attempts {
				state = stateTimedOut
				continue
			}
			if attempt > 0 {
				if err = p.sleep(ctx); err != nil {
					state = stateFailed
					continue
				}
			}
			attempt++

			var res JobResult
			res, err = svc.PollJob(ctx, jobID)
			switch {
			case err != nil:
				err = fmt.Errorf("poll %s: %w", jobID, err)
				state = stateFailed
			case res.Status == JobComplete && res.OutputURL == "":
				err = ErrJobNoOutput
				state = stateFailed
			case res.Status == JobComplete:
				output = res.OutputURL
				state = stateComplete
			case res.Status == JobFailed:
				err = ErrJobFailed
				state = stateFailed
			default:
				state = statePolling
			}

		case stateComplete:
			return output, nil
		case stateFailed:
			return "", err
		case stateTimedOut:
			return "", fmt.Errorf("%w after %d polls", ErrJobTimeout, attempt)
		}
	}
}

func (p Poller) sleep(ctx context.Context) error {
	t := time.NewTimer(p.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
