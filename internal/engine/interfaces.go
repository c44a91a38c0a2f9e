package engine

import (
	"context"

	"github.com/yangwenmai/storeforge/internal/model"
)

// CompletionRequest is one call to a generative-text service.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// ModelClient abstracts LLM calls. Implementations can wrap OpenAI, local models, etc.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProductExtractor turns a listing URL into a structured product record.
// Any error is treated as fatal by the pipeline.
type ProductExtractor interface {
	Extract(ctx context.Context, url string) (*model.ProductRecord, error)
}

// ContentSynthesizer produces marketing copy. It never fails: every field
// has a local fallback.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, product model.ProductRecord) model.SynthesizedContent
}

// ImageEnhancer runs the enhancement chain over a batch of images and returns
// one result per (capped) input.
type ImageEnhancer interface {
	Enhance(ctx context.Context, imageURLs []string, style model.ThemeStyle) []model.EnhancedImage
}

// StoreRepository is the subset of the store the orchestrator writes to.
type StoreRepository interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	UpdateProgress(ctx context.Context, id string, progress int, message string) error
	MarkError(ctx context.Context, id, message string, info model.ErrorInfo) error
	SaveGenerated(ctx context.Context, id string, result model.GenerationResult) error
}

const defaultMaxTokens = 4096

func maxTokensOr(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
