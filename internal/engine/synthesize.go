package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yangwenmai/storeforge/internal/model"
)

// DefaultCallTimeout bounds a single generation call.
const DefaultCallTimeout = 45 * time.Second

// Synthesizer implements ContentSynthesizer by fanning out one generation
// request per field group and falling back per field.
type Synthesizer struct {
	model    ModelClient
	timeout  time.Duration
	recorder Recorder
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) SynthesizerOption {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSynthesisRecorder reports fallbacks to r.
func WithSynthesisRecorder(r Recorder) SynthesizerOption {
	return func(s *Synthesizer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSynthesizer creates a Synthesizer backed by mc.
func NewSynthesizer(mc ModelClient, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{model: mc, timeout: DefaultCallTimeout, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type productCopy struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
}

type seoCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Synthesize runs all six generation calls concurrently and waits for every
// one to settle. Each call owns its own result slot; failures are absorbed.
func (s *Synthesizer) Synthesize(ctx context.Context, p model.ProductRecord) model.SynthesizedContent {
	var (
		pc       productCopy
		seo      seoCopy
		hero     model.HomepageHero
		about    string
		faq      []model.FAQItem
		keywords []string
	)

	tasks := []struct {
		field string
		run   func(context.Context) error
	}{
		{model.FieldProductCopy, func(ctx context.Context) error {
			return s.completeJSON(ctx, productCopyRequest(p), &pc, func() error {
				pc.Benefits = compact(pc.Benefits)
				return require(pc.Title != "" && pc.Description != "" && len(pc.Benefits) > 0, "title, description and benefits")
			})
		}},
		{model.FieldSEO, func(ctx context.Context) error {
			return s.completeJSON(ctx, seoRequest(p), &seo, func() error {
				return require(seo.Title != "" && seo.Description != "", "title and description")
			})
		}},
		{model.FieldHomepage, func(ctx context.Context) error {
			return s.completeJSON(ctx, homepageRequest(p), &hero, func() error {
				if hero.FeaturesHeadline == "" {
					hero.FeaturesHeadline = "Why Choose Us"
				}
				return require(hero.Headline != "" && hero.Subheadline != "" && hero.CTAText != "", "headline, subheadline and cta_text")
			})
		}},
		{model.FieldAbout, func(ctx context.Context) error {
			raw, err := s.model.Complete(ctx, aboutRequest(p))
			if err != nil {
				return err
			}
			about = strings.TrimSpace(stripFences(raw))
			return require(about != "", "non-empty text")
		}},
		{model.FieldFAQ, func(ctx context.Context) error {
			return s.completeJSON(ctx, faqRequest(p), &faq, func() error {
				valid := faq[:0]
				for _, item := range faq {
					if strings.TrimSpace(item.Question) != "" && strings.TrimSpace(item.Answer) != "" {
						valid = append(valid, item)
					}
				}
				faq = valid
				return require(len(faq) > 0, "at least one question/answer pair")
			})
		}},
		{model.FieldKeywords, func(ctx context.Context) error {
			return s.completeJSON(ctx, keywordsRequest(p), &keywords, func() error {
				keywords = compact(keywords)
				return require(len(keywords) > 0, "at least one keyword")
			})
		}},
	}

	ok := make([]bool, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			ok[i] = s.call(ctx, t.field, t.run)
			return nil
		})
	}
	_ = g.Wait()

	out := model.SynthesizedContent{}
	for i, t := range tasks {
		if !ok[i] {
			out.FallbackFields = append(out.FallbackFields, t.field)
		}
	}

	if ok[0] {
		out.ProductTitle, out.ProductDescription, out.ProductBenefits = pc.Title, pc.Description, pc.Benefits
	} else {
		out.ProductTitle, out.ProductDescription, out.ProductBenefits = fallbackProductCopy(p)
	}
	if ok[1] {
		out.SEOTitle, out.SEODescription = seo.Title, seo.Description
	} else {
		out.SEOTitle, out.SEODescription = fallbackSEO(p)
	}
	if ok[2] {
		out.HomepageHero = hero
	} else {
		out.HomepageHero = fallbackHero(p)
	}
	if ok[3] {
		out.AboutPage = about
	} else {
		out.AboutPage = fallbackAbout(p)
	}
	if ok[4] {
		out.FAQItems = faq
	} else {
		out.FAQItems = fallbackFAQ()
	}
	if ok[5] {
		out.Keywords = keywords
	} else {
		out.Keywords = fallbackKeywords(p)
	}
	return out
}

// call runs one field task under its own timeout and reports whether it succeeded.
func (s *Synthesizer) call(ctx context.Context, field string, run func(context.Context) error) (ok bool) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("content generation panicked", "field", field, "panic", r)
			ok = false
		}
		if !ok {
			s.recorder.ContentFallback(field)
		}
	}()

	if err := run(cctx); err != nil {
		slog.Warn("content generation fell back", "field", field, "error", err)
		return false
	}
	return true
}

// completeJSON calls the model, decodes the JSON payload into v and runs validate.
func (s *Synthesizer) completeJSON(ctx context.Context, req CompletionRequest, v any, validate func() error) error {
	raw, err := s.model.Complete(ctx, req)
	if err != nil {
		return err
	}
	payload, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return validate()
}

var errNoJSON = errors.New("no JSON payload in response")

// extractJSON pulls the outermost JSON object or array out of a model reply,
// tolerating code fences and surrounding prose.
func extractJSON(raw string) (string, error) {
	s := stripFences(raw)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", errNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func require(cond bool, what string) error {
	if !cond {
		return fmt.Errorf("invalid response shape: want %s", what)
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
