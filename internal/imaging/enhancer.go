package imaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yangwenmai/storeforge/internal/model"
)

// MaxImages is the number of source images considered per run.
const MaxImages = 5

// Passes toggles each stage of the chain. Disabled passes are skipped.
type Passes struct {
	Quality          bool
	RemoveBackground bool
	Style            bool
}

// DefaultPasses enables quality and style; background removal is opt-in.
func DefaultPasses() Passes {
	return Passes{Quality: true, Style: true}
}

func (p Passes) plan() []Pass {
	var out []Pass
	if p.Quality {
		out = append(out, PassQuality)
	}
	if p.RemoveBackground {
		out = append(out, PassRemoveBackground)
	}
	if p.Style {
		out = append(out, PassStyle)
	}
	return out
}

// Enhancer runs source images through the pass chain.
type Enhancer struct {
	jobs     JobService
	fetcher  Fetcher
	uploader Uploader
	poller   Poller
	passes   Passes
	limit    int
	recorder Recorder
}

// EnhancerOption configures an Enhancer.
type EnhancerOption func(*Enhancer)

// WithPasses sets which passes run.
func WithPasses(p Passes) EnhancerOption {
	return func(e *Enhancer) { e.passes = p }
}

// WithPoller sets the poll schedule.
func WithPoller(p Poller) EnhancerOption {
	return func(e *Enhancer) { e.poller = p }
}

// WithUploader persists final outputs. Without one, the service URL is kept.
func WithUploader(u Uploader) EnhancerOption {
	return func(e *Enhancer) { e.uploader = u }
}

// WithConcurrency bounds how many images are processed at once.
func WithConcurrency(n int) EnhancerOption {
	return func(e *Enhancer) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithImageRecorder sets the outcome hook.
func WithImageRecorder(r Recorder) EnhancerOption {
	return func(e *Enhancer) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEnhancer creates an Enhancer.
func NewEnhancer(jobs JobService, fetcher Fetcher, opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		jobs:     jobs,
		fetcher:  fetcher,
		poller:   DefaultPoller(),
		passes:   DefaultPasses(),
		limit:    MaxImages,
		recorder: nopRecorder{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enhance processes at most MaxImages URLs and returns one result per
// processed URL in input order. It never fails: a broken chain yields the
// last good URL tagged fallback_original.
func (e *Enhancer) Enhance(ctx context.Context, urls []string, style model.ThemeStyle) []model.EnhancedImage {
	if len(urls) > MaxImages {
		urls = urls[:MaxImages]
	}
	out := make([]model.EnhancedImage, len(urls))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, u := range urls {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("image enhancement panicked", "url", u, "panic", r)
					out[i] = fallback(u, u, style, 0, 0)
				}
			}()
			out[i] = e.enhanceOne(ctx, u, style)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fallback(orig, current string, style model.ThemeStyle, passes int, elapsed time.Duration) model.EnhancedImage {
	return model.EnhancedImage{
		OriginalURL:     orig,
		EnhancedURL:     current,
		Style:           style,
		ProcessingTime:  elapsed.Seconds(),
		EnhancementKind: model.EnhancementFallback,
		PassesCompleted: passes,
	}
}

func (e *Enhancer) enhanceOne(ctx context.Context, url string, style model.ThemeStyle) model.EnhancedImage {
	start := time.Now()
	plan := e.passes.plan()
	if len(plan) == 0 {
		e.recorder.ImageEnhanced(model.EnhancementFallback, time.Since(start))
		return fallback(url, url, style, 0, time.Since(start))
	}

	current := url
	for i, pass := range plan {
		next, err := e.runPass(ctx, pass, style, current)
		if err != nil {
			slog.Warn("image pass failed, keeping last good image",
				"url", url, "pass", pass, "completed", i, "error", err)
			e.recorder.ImageEnhanced(model.EnhancementFallback, time.Since(start))
			return fallback(url, current, style, i, time.Since(start))
		}
		current = next
	}

	final, err := e.persist(ctx, current)
	if err != nil {
		slog.Warn("persist enhanced image failed", "url", url, "error", err)
		e.recorder.ImageEnhanced(model.EnhancementFallback, time.Since(start))
		return fallback(url, current, style, len(plan), time.Since(start))
	}

	e.recorder.ImageEnhanced(model.EnhancementFull, time.Since(start))
	return model.EnhancedImage{
		OriginalURL:     url,
		EnhancedURL:     final,
		Style:           style,
		ProcessingTime:  time.Since(start).Seconds(),
		EnhancementKind: model.EnhancementFull,
		PassesCompleted: len(plan),
	}
}

func (e *Enhancer) runPass(ctx context.Context, pass Pass, style model.ThemeStyle, src string) (string, error) {
	img, _, err := e.fetcher.Download(ctx, src)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	id, err := e.jobs.SubmitJob(ctx, passRequest(pass, style, img, src))
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	return e.poller.Wait(ctx, e.jobs, id)
}

func (e *Enhancer) persist(ctx context.Context, src string) (string, error) {
	if e.uploader == nil {
		return src, nil
	}
	data, ct, err := e.fetcher.Download(ctx, src)
	if err != nil {
		return "", fmt.Errorf("download output: %w", err)
	}
	return e.uploader.Upload(ctx, ObjectKey(data, ct), data, ct)
}

// ObjectKey derives a content-addressed storage key.
func ObjectKey(data []byte, contentType string) string {
	sum := sha256.Sum256(data)
	ext := ".png"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	return "enhanced/" + hex.EncodeToString(sum[:16]) + ext
}
