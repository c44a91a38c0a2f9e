package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Step names as recorded in ErrorInfo.FailedStep.
const (
	StepExtract    = "extract"
	StepSynthesize = "synthesize"
	StepEnhance    = "enhance"
	StepAssemble   = "assemble"
	StepFinalize   = "finalize"
)

// Pipeline orchestrates one generation run for a store.
type Pipeline struct {
	store     StoreRepository
	extractor ProductExtractor
	content   ContentSynthesizer
	images    ImageEnhancer
	recorder  Recorder
	now       func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder reports stage timings and run outcomes to r.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock overrides the time source used for generated_at.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. A nil ImageEnhancer skips enhancement.
func NewPipeline(s StoreRepository, ex ProductExtractor, cs ContentSynthesizer, ie ImageEnhancer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:     s,
		extractor: ex,
		content:   cs,
		images:    ie,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes every stage for the store and returns its final status.
// On failure the store is marked error and a *StepError is returned.
func (p *Pipeline) Run(ctx context.Context, storeID, sourceURL string) (status string, err error) {
	defer func() { p.recorder.RunFinished(status) }()

	product, err := p.runExtract(ctx, storeID, sourceURL)
	if err != nil {
		return p.fail(ctx, storeID, StepExtract, err)
	}

	content, err := p.runSynthesize(ctx, storeID, *product)
	if err != nil {
		return p.fail(ctx, storeID, StepSynthesize, err)
	}

	images, err := p.runEnhance(ctx, storeID, product.Images)
	if err != nil {
		return p.fail(ctx, storeID, StepEnhance, err)
	}

	doc, err := p.runAssemble(ctx, storeID, product, content, images)
	if err != nil {
		return p.fail(ctx, storeID, StepAssemble, err)
	}

	if err := p.runFinalize(ctx, storeID, doc, content, images); err != nil {
		return p.fail(ctx, storeID, StepFinalize, err)
	}

	slog.Info("store generated", "store_id", storeID, "images", len(images))
	return model.StatusCompleted, nil
}

func (p *Pipeline) fail(ctx context.Context, storeID, step string, err error) (string, error) {
	slog.Error("generation failed", "store_id", storeID, "step", step, "error", err)
	msg := err.Error()
	if merr := p.store.MarkError(ctx, storeID, msg, model.NewErrorInfo(step, msg)); merr != nil {
		slog.Error("mark store error failed", "store_id", storeID, "error", merr)
	}
	return model.StatusError, &StepError{Step: step, Err: err}
}

// StepError wraps an error with the stage that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

// StepName returns the failing stage.
func (e *StepError) StepName() string {
	return e.Step
}

func (e *StepError) Unwrap() error {
	return e.Err
}
