package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yangwenmai/storeforge/internal/model"
)

// funcModel answers each request with fn.
type funcModel func(CompletionRequest) (string, error)

func (f funcModel) Complete(_ context.Context, req CompletionRequest) (string, error) {
	return f(req)
}

type fallbackCounter struct {
	mu     sync.Mutex
	fields []string
}

func (c *fallbackCounter) StageDuration(string, time.Duration) {}
func (c *fallbackCounter) RunFinished(string)                  {}
func (c *fallbackCounter) ContentFallback(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = append(c.fields, field)
}

func sampleProduct() model.ProductRecord {
	return model.ProductRecord{
		Title:       "Steel Bottle",
		Description: "Keeps drinks cold.",
		Features:    []string{"Insulated", "Leak proof", "BPA free"},
		Category:    "Kitchen",
	}
}

func TestSynthesize_AllCallsSucceed(t *testing.T) {
	s := NewSynthesizer(&StubModelClient{})
	c := s.Synthesize(context.Background(), sampleProduct())

	if len(c.FallbackFields) != 0 {
		t.Errorf("FallbackFields = %v, want none", c.FallbackFields)
	}
	if c.ProductTitle != "[Stub] The Bottle That Keeps Up" {
		t.Errorf("ProductTitle = %q", c.ProductTitle)
	}
	if len(c.ProductBenefits) != 5 {
		t.Errorf("benefits = %d, want 5", len(c.ProductBenefits))
	}
	// hero reply is fenced
	if c.HomepageHero.Headline != "[Stub] Stay Cold" {
		t.Errorf("Headline = %q, fenced JSON should be parsed", c.HomepageHero.Headline)
	}
	if !strings.HasPrefix(c.AboutPage, "[Stub] We started") {
		t.Errorf("AboutPage = %q", c.AboutPage)
	}
	if len(c.FAQItems) != 2 || len(c.Keywords) != 3 {
		t.Errorf("faq=%d keywords=%d, want 2/3", len(c.FAQItems), len(c.Keywords))
	}
}

func TestSynthesize_AllCallsFail(t *testing.T) {
	rec := &fallbackCounter{}
	s := NewSynthesizer(funcModel(func(CompletionRequest) (string, error) {
		return "", errors.New("service unavailable")
	}), WithSynthesisRecorder(rec))

	p := sampleProduct()
	c := s.Synthesize(context.Background(), p)

	if len(c.FallbackFields) != len(model.ContentFields) {
		t.Fatalf("FallbackFields = %v, want all six", c.FallbackFields)
	}
	if len(rec.fields) != 6 {
		t.Errorf("recorded fallbacks = %d, want 6", len(rec.fields))
	}
	if c.ProductTitle != p.Title || c.ProductDescription != p.Description {
		t.Errorf("product copy fallback = %q/%q", c.ProductTitle, c.ProductDescription)
	}
	if c.SEOTitle != "Steel Bottle - Best Quality Online Store" {
		t.Errorf("SEOTitle = %q", c.SEOTitle)
	}
	if c.HomepageHero.Headline != "Premium Kitchen Collection" || c.HomepageHero.CTAText != "Shop Now" {
		t.Errorf("hero = %+v", c.HomepageHero)
	}
	if len(c.FAQItems) != 3 {
		t.Errorf("faq = %d, want 3", len(c.FAQItems))
	}
	if len(c.ProductBenefits) != 3 || c.ProductBenefits[0] != "Insulated" {
		t.Errorf("benefits = %v, want features", c.ProductBenefits)
	}
	if c.Keywords[0] != "steel bottle" || !containsStr(c.Keywords, "leak proof") {
		t.Errorf("keywords = %v", c.Keywords)
	}
}

func TestSynthesize_EmptyRecordFallsBackToDefaults(t *testing.T) {
	s := NewSynthesizer(funcModel(func(CompletionRequest) (string, error) {
		return "", errors.New("service unavailable")
	}))
	c := s.Synthesize(context.Background(), model.ProductRecord{})

	if c.ProductTitle != "Unknown Product" {
		t.Errorf("ProductTitle = %q, want Unknown Product", c.ProductTitle)
	}
	if c.SEOTitle != "Unknown Product - Best Quality Online Store" {
		t.Errorf("SEOTitle = %q", c.SEOTitle)
	}
	if c.HomepageHero.Subheadline != "Discover high-quality Unknown Product with fast shipping worldwide" {
		t.Errorf("Subheadline = %q", c.HomepageHero.Subheadline)
	}
	if strings.Contains(c.ProductDescription, "  ") || c.ProductDescription == "" {
		t.Errorf("ProductDescription = %q", c.ProductDescription)
	}
	for name, v := range map[string]string{
		"product_description": c.ProductDescription,
		"seo_description":     c.SEODescription,
		"hero_headline":       c.HomepageHero.Headline,
		"about_page":          c.AboutPage,
	} {
		if strings.TrimSpace(v) == "" {
			t.Errorf("%s is empty", name)
		}
	}
	if len(c.ProductBenefits) == 0 || len(c.FAQItems) == 0 {
		t.Errorf("benefits=%d faq=%d, want non-empty", len(c.ProductBenefits), len(c.FAQItems))
	}
	if !containsStr(c.Keywords, "unknown product") || !containsStr(c.Keywords, "buy Unknown Product") {
		t.Errorf("Keywords = %v", c.Keywords)
	}
	for _, k := range c.Keywords {
		if strings.TrimSpace(k) == "" || strings.HasSuffix(k, " ") {
			t.Errorf("malformed keyword %q", k)
		}
	}
}

func TestSynthesize_PartialFailure(t *testing.T) {
	s := NewSynthesizer(funcModel(func(req CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "SEO-optimized title"):
			return `{"title": "", "description": "missing title"}`, nil
		case strings.Contains(req.Prompt, "FAQ items"):
			return "Sorry, I cannot help with that.", nil
		}
		return (&StubModelClient{}).Complete(context.Background(), req)
	}))
	c := s.Synthesize(context.Background(), sampleProduct())

	if !c.UsedFallback(model.FieldSEO) || !c.UsedFallback(model.FieldFAQ) {
		t.Errorf("FallbackFields = %v, want seo and faq", c.FallbackFields)
	}
	if c.UsedFallback(model.FieldProductCopy) || c.UsedFallback(model.FieldKeywords) {
		t.Errorf("FallbackFields = %v, product copy and keywords should succeed", c.FallbackFields)
	}
	if c.SEOTitle != "Steel Bottle - Best Quality Online Store" {
		t.Errorf("SEOTitle = %q, want fallback", c.SEOTitle)
	}
}

func TestSynthesize_CallTimeout(t *testing.T) {
	s := NewSynthesizer(funcModelCtx(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), WithCallTimeout(20*time.Millisecond))

	start := time.Now()
	c := s.Synthesize(context.Background(), sampleProduct())
	if time.Since(start) > 2*time.Second {
		t.Errorf("calls should run concurrently under their own timeout")
	}
	if len(c.FallbackFields) != 6 {
		t.Errorf("FallbackFields = %v, want all six", c.FallbackFields)
	}
}

func TestSynthesize_PanicIsContained(t *testing.T) {
	s := NewSynthesizer(funcModel(func(req CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "About Us") {
			panic("boom")
		}
		return (&StubModelClient{}).Complete(context.Background(), req)
	}))
	c := s.Synthesize(context.Background(), sampleProduct())
	if !c.UsedFallback(model.FieldAbout) || len(c.FallbackFields) != 1 {
		t.Errorf("FallbackFields = %v, want only about_page", c.FallbackFields)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{`{"a":1}`, `{"a":1}`, false},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"Here you go: [1,2] done", `[1,2]`, false},
		{"no json here", "", true},
	}
	for _, tt := range tests {
		got, err := extractJSON(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("extractJSON(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type funcModelCtx func(context.Context) (string, error)

func (f funcModelCtx) Complete(ctx context.Context, _ CompletionRequest) (string, error) {
	return f(ctx)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
