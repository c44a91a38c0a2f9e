package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yangwenmai/storeforge/internal/imaging"
	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/store"
)

// memRepo is an in-memory StoreRepository that records every checkpoint.
type memRepo struct {
	mu       sync.Mutex
	store    model.Store
	progress []int
	failAt   int
	saved    *model.GenerationResult
	errInfo  *model.ErrorInfo
}

func newMemRepo() *memRepo {
	st := model.NewStore("s1", "u1", "Acme Goods", "https://www.amazon.com/dp/X", model.StyleLuxury, nil, true)
	return &memRepo{store: st}
}

func (m *memRepo) GetStore(_ context.Context, id string) (*model.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.store
	return &st, nil
}

func (m *memRepo) UpdateProgress(_ context.Context, _ string, progress int, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if progress == m.failAt {
		return errors.New("disk full")
	}
	m.progress = append(m.progress, progress)
	m.store.GenerationProgress = progress
	m.store.StatusMessage = message
	return nil
}

func (m *memRepo) MarkError(_ context.Context, _ string, message string, info model.ErrorInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Status = model.StatusError
	m.store.ErrorDetail = &message
	m.errInfo = &info
	return nil
}

func (m *memRepo) SaveGenerated(_ context.Context, _ string, r model.GenerationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &r
	m.store.Status = model.StatusCompleted
	m.store.GenerationProgress = 100
	return nil
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (*model.ProductRecord, error) {
	return nil, errors.New("HTTP 503")
}

type noImageExtractor struct{}

func (noImageExtractor) Extract(ctx context.Context, url string) (*model.ProductRecord, error) {
	p, _ := (&StubExtractor{}).Extract(ctx, url)
	p.Images = nil
	return p, nil
}

// passthroughEnhancer records calls and returns originals.
type passthroughEnhancer struct{ calls int }

func (e *passthroughEnhancer) Enhance(_ context.Context, urls []string, style model.ThemeStyle) []model.EnhancedImage {
	e.calls++
	out := make([]model.EnhancedImage, len(urls))
	for i, u := range urls {
		out[i] = model.EnhancedImage{OriginalURL: u, EnhancedURL: u + "?enhanced", Style: style, EnhancementKind: model.EnhancementFull}
	}
	return out
}

type runRecorder struct {
	mu       sync.Mutex
	stages   []string
	statuses []string
}

func (r *runRecorder) StageDuration(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}
func (r *runRecorder) RunFinished(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}
func (r *runRecorder) ContentFallback(string) {}

var fixedNow = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

func TestPipeline_FullRun(t *testing.T) {
	repo := newMemRepo()
	enh := &passthroughEnhancer{}
	rec := &runRecorder{}
	p := NewPipeline(repo, &StubExtractor{}, NewSynthesizer(&StubModelClient{}), enh, WithRecorder(rec), WithClock(fixedNow))

	status, err := p.Run(context.Background(), "s1", repo.store.SourceURL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", status)
	}

	want := []int{10, 25, 50, 75, 90}
	if len(repo.progress) != len(want) {
		t.Fatalf("progress = %v, want %v", repo.progress, want)
	}
	for i := range want {
		if repo.progress[i] != want[i] {
			t.Errorf("progress[%d] = %d, want %d", i, repo.progress[i], want[i])
		}
	}

	if repo.saved == nil {
		t.Fatal("result not saved")
	}
	doc := repo.saved.Document
	if doc.StoreName != "Acme Goods" || doc.Theme.Style != model.StyleLuxury {
		t.Errorf("document store/theme = %q/%q", doc.StoreName, doc.Theme.Style)
	}
	if doc.GeneratedAt != "2026-05-01T09:00:00Z" {
		t.Errorf("GeneratedAt = %q", doc.GeneratedAt)
	}
	if len(repo.saved.EnhancedImages) != 2 || repo.saved.EnhancedImages[0].Style != model.StyleLuxury {
		t.Errorf("EnhancedImages = %+v", repo.saved.EnhancedImages)
	}
	if repo.saved.SEOTitle != "[Stub] Insulated Steel Bottle" || len(repo.saved.SEOKeywords) != 3 {
		t.Errorf("SEO mirror = %q %v", repo.saved.SEOTitle, repo.saved.SEOKeywords)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != model.StatusCompleted {
		t.Errorf("recorded statuses = %v", rec.statuses)
	}
	if len(rec.stages) != 5 {
		t.Errorf("recorded stages = %v, want 5", rec.stages)
	}
}

func TestPipeline_ExtractFailure(t *testing.T) {
	repo := newMemRepo()
	p := NewPipeline(repo, failingExtractor{}, NewSynthesizer(&StubModelClient{}), &passthroughEnhancer{})

	status, err := p.Run(context.Background(), "s1", "https://example.com/x")
	if status != model.StatusError {
		t.Errorf("status = %q, want error", status)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepExtract {
		t.Fatalf("err = %v, want StepError at extract", err)
	}
	if repo.store.GenerationProgress != 10 {
		t.Errorf("progress = %d, want left at 10", repo.store.GenerationProgress)
	}
	if repo.errInfo == nil || repo.errInfo.FailedStep != StepExtract {
		t.Errorf("errInfo = %+v", repo.errInfo)
	}
	if repo.saved != nil {
		t.Error("nothing should be saved on failure")
	}
}

func TestPipeline_AllContentFallsBack(t *testing.T) {
	repo := newMemRepo()
	down := funcModel(func(CompletionRequest) (string, error) { return "", errors.New("down") })
	p := NewPipeline(repo, &StubExtractor{}, NewSynthesizer(down), &passthroughEnhancer{})

	status, err := p.Run(context.Background(), "s1", repo.store.SourceURL)
	if err != nil || status != model.StatusCompleted {
		t.Fatalf("Run = %q, %v; want completed", status, err)
	}
	if repo.store.GenerationProgress != 100 {
		t.Errorf("progress = %d, want 100", repo.store.GenerationProgress)
	}
	if repo.saved.Document.Product.Title != "Insulated Steel Water Bottle" {
		t.Errorf("title = %q, want extracted title", repo.saved.Document.Product.Title)
	}
}

// emptyJobs accepts every job and reports it complete without an output URL.
type emptyJobs struct{}

func (emptyJobs) SubmitJob(context.Context, imaging.JobRequest) (string, error) { return "job", nil }
func (emptyJobs) PollJob(context.Context, string) (imaging.JobResult, error) {
	return imaging.JobResult{Status: imaging.JobComplete}, nil
}

type bytesFetcher struct{}

func (bytesFetcher) Download(_ context.Context, url string) ([]byte, string, error) {
	return []byte(url), "image/jpeg", nil
}

func TestPipeline_AllContentAndImagesFallBack(t *testing.T) {
	repo := newMemRepo()
	down := funcModel(func(CompletionRequest) (string, error) { return "", errors.New("down") })
	enh := imaging.NewEnhancer(emptyJobs{}, bytesFetcher{},
		imaging.WithPoller(imaging.Poller{Interval: time.Millisecond, MaxAttempts: 3}))
	p := NewPipeline(repo, &StubExtractor{}, NewSynthesizer(down), enh)

	status, err := p.Run(context.Background(), "s1", repo.store.SourceURL)
	if err != nil || status != model.StatusCompleted {
		t.Fatalf("Run = %q, %v; want completed", status, err)
	}
	if repo.store.GenerationProgress != 100 {
		t.Errorf("progress = %d, want 100", repo.store.GenerationProgress)
	}

	doc := repo.saved.Document
	if doc.Product.Title != "Insulated Steel Water Bottle" {
		t.Errorf("title = %q, want extracted title", doc.Product.Title)
	}
	if doc.SEO.Title != "Insulated Steel Water Bottle - Best Quality Online Store" {
		t.Errorf("seo title = %q, want fallback", doc.SEO.Title)
	}
	if len(doc.Pages.FAQ.Items) != 3 || doc.Pages.About.Content == "" {
		t.Errorf("faq=%d about=%q, want fallbacks", len(doc.Pages.FAQ.Items), doc.Pages.About.Content)
	}
	if len(repo.saved.SEOKeywords) == 0 {
		t.Error("keywords should fall back")
	}

	imgs := repo.saved.EnhancedImages
	if len(imgs) != 2 {
		t.Fatalf("EnhancedImages = %d, want 2", len(imgs))
	}
	for _, img := range imgs {
		if img.EnhancementKind != model.EnhancementFallback || img.EnhancedURL != img.OriginalURL || img.PassesCompleted != 0 {
			t.Errorf("image = %+v, want untouched fallback_original", img)
		}
	}
	if doc.SEO.OGImage == nil || *doc.SEO.OGImage != imgs[0].OriginalURL {
		t.Errorf("OGImage = %v, want first original", doc.SEO.OGImage)
	}
}

func TestPipeline_NoImagesSkipsEnhancement(t *testing.T) {
	repo := newMemRepo()
	enh := &passthroughEnhancer{}
	p := NewPipeline(repo, noImageExtractor{}, NewSynthesizer(&StubModelClient{}), enh)

	if _, err := p.Run(context.Background(), "s1", repo.store.SourceURL); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if enh.calls != 0 {
		t.Errorf("enhancer called %d times, want 0", enh.calls)
	}
	if repo.saved.EnhancedImages == nil || len(repo.saved.EnhancedImages) != 0 {
		t.Errorf("EnhancedImages = %v, want empty", repo.saved.EnhancedImages)
	}
	if repo.saved.Document.SEO.OGImage != nil {
		t.Error("OGImage should be nil without images")
	}
}

func TestPipeline_CheckpointFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failAt = 75
	p := NewPipeline(repo, &StubExtractor{}, NewSynthesizer(&StubModelClient{}), &passthroughEnhancer{})

	_, err := p.Run(context.Background(), "s1", repo.store.SourceURL)
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepAssemble {
		t.Fatalf("err = %v, want StepError at assemble", err)
	}
	if repo.store.GenerationProgress != 50 {
		t.Errorf("progress = %d, want 50", repo.store.GenerationProgress)
	}
}

func TestPipeline_WithSQLiteStore(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	ctx := context.Background()
	st := model.NewStore("s9", "u1", "Bottle Shop", "https://www.ebay.com/itm/1", model.StyleMinimal, nil, true)
	if err := s.CreateStore(ctx, st); err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if _, err := s.ClaimNextGeneration(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}

	p := NewPipeline(s, &StubExtractor{}, NewSynthesizer(&StubModelClient{}), &passthroughEnhancer{})
	if _, err := p.Run(ctx, st.ID, st.SourceURL); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.GetStore(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if got.Status != model.StatusCompleted || got.GenerationProgress != 100 {
		t.Errorf("status = %q/%d", got.Status, got.GenerationProgress)
	}
	if got.Document == nil || got.Document.Theme.Style != model.StyleMinimal {
		t.Errorf("document = %+v", got.Document)
	}
	if len(got.EnhancedImages) != 2 {
		t.Errorf("EnhancedImages = %d, want 2", len(got.EnhancedImages))
	}
}
