package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/storefront"
)

// checkpoint persists progress before a stage starts.
func (p *Pipeline) checkpoint(ctx context.Context, storeID string, progress int, message string) error {
	if err := p.store.UpdateProgress(ctx, storeID, progress, message); err != nil {
		return fmt.Errorf("checkpoint %d: %w", progress, err)
	}
	return nil
}

func (p *Pipeline) timed(stage string) func() {
	start := time.Now()
	return func() { p.recorder.StageDuration(stage, time.Since(start)) }
}

func (p *Pipeline) runExtract(ctx context.Context, storeID, sourceURL string) (*model.ProductRecord, error) {
	if err := p.checkpoint(ctx, storeID, 10, "Scraping product data..."); err != nil {
		return nil, err
	}
	defer p.timed(StepExtract)()

	product, err := p.extractor.Extract(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("extract %s: empty product", sourceURL)
	}
	return product, nil
}

func (p *Pipeline) runSynthesize(ctx context.Context, storeID string, product model.ProductRecord) (model.SynthesizedContent, error) {
	if err := p.checkpoint(ctx, storeID, 25, "Generating AI content..."); err != nil {
		return model.SynthesizedContent{}, err
	}
	defer p.timed(StepSynthesize)()
	return p.content.Synthesize(ctx, product), nil
}

func (p *Pipeline) runEnhance(ctx context.Context, storeID string, urls []string) ([]model.EnhancedImage, error) {
	if err := p.checkpoint(ctx, storeID, 50, "Enhancing product images..."); err != nil {
		return nil, err
	}
	if len(urls) == 0 || p.images == nil {
		return []model.EnhancedImage{}, nil
	}
	defer p.timed(StepEnhance)()

	st, err := p.store.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return p.images.Enhance(ctx, urls, st.ThemeStyle), nil
}

func (p *Pipeline) runAssemble(ctx context.Context, storeID string, product *model.ProductRecord, content model.SynthesizedContent, images []model.EnhancedImage) (model.StoreDocument, error) {
	if err := p.checkpoint(ctx, storeID, 75, "Building store structure..."); err != nil {
		return model.StoreDocument{}, err
	}
	defer p.timed(StepAssemble)()

	// Re-read so name, style and colors edited mid-run are honoured.
	st, err := p.store.GetStore(ctx, storeID)
	if err != nil {
		return model.StoreDocument{}, err
	}
	return storefront.Assemble(storefront.Input{
		Store:   st,
		Product: product,
		Content: content,
		Images:  images,
	}, p.now())
}

func (p *Pipeline) runFinalize(ctx context.Context, storeID string, doc model.StoreDocument, content model.SynthesizedContent, images []model.EnhancedImage) error {
	if err := p.checkpoint(ctx, storeID, 90, "Finalizing store..."); err != nil {
		return err
	}
	defer p.timed(StepFinalize)()

	return p.store.SaveGenerated(ctx, storeID, model.GenerationResult{
		Document:       doc,
		EnhancedImages: images,
		SEOTitle:       content.SEOTitle,
		SEODescription: content.SEODescription,
		SEOKeywords:    content.Keywords,
	})
}
