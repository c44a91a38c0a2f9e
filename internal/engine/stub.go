package engine

import (
	"context"
	"strings"

	"github.com/yangwenmai/storeforge/internal/model"
)

// StubExtractor returns a fixed product for any URL (for development/testing).
type StubExtractor struct{}

func (e *StubExtractor) Extract(_ context.Context, url string) (*model.ProductRecord, error) {
	platform := model.DetectPlatform(url)
	return &model.ProductRecord{
		Title:       "Insulated Steel Water Bottle",
		Description: "Double-wall vacuum insulated bottle that keeps drinks cold for 24 hours and hot for 12.",
		Price:       "24.99",
		Images: []string{
			"https://images.example.com/bottle-front.jpg",
			"https://images.example.com/bottle-side.jpg",
		},
		Features: []string{
			"Keeps drinks cold for 24 hours",
			"Leak-proof lid",
			"BPA free",
			"Fits standard cup holders",
		},
		Specifications: map[string]string{"Capacity": "750 ml", "Material": "18/8 stainless steel"},
		Category:       "Kitchen",
		Brand:          "Stub",
		Platform:       platform,
	}, nil
}

// StubModelClient returns canned responses keyed on the prompt (for development/testing).
type StubModelClient struct{}

func (m *StubModelClient) Complete(_ context.Context, req CompletionRequest) (string, error) {
	p := req.Prompt
	switch {
	case strings.Contains(p, "expert e-commerce copywriter"):
		return `{"title": "[Stub] The Bottle That Keeps Up", "description": "[Stub] Cold all day, hot all morning.", "benefits": ["Cold for 24 hours", "No leaks in your bag", "Safe materials", "Fits your car", "Built to last"]}`, nil
	case strings.Contains(p, "SEO-optimized title and meta description"):
		return `{"title": "[Stub] Insulated Steel Bottle", "description": "[Stub] Shop the insulated bottle that keeps drinks cold for 24 hours."}`, nil
	case strings.Contains(p, "homepage hero content"):
		return "```json\n" + `{"headline": "[Stub] Stay Cold", "subheadline": "[Stub] Hydration that lasts", "cta_text": "Shop Now", "features_headline": "Why You'll Love It"}` + "\n```", nil
	case strings.Contains(p, "About Us page"):
		return "[Stub] We started with one goal: a bottle that never lets you down.\n\nEvery product we sell is tested by our team.", nil
	case strings.Contains(p, "FAQ items"):
		return `[{"question": "[Stub] How fast is shipping?", "answer": "Orders ship within 2 business days."}, {"question": "[Stub] Can I return it?", "answer": "Yes, within 30 days."}]`, nil
	case strings.Contains(p, "SEO keywords"):
		return `["[stub] insulated bottle", "water bottle", "steel bottle"]`, nil
	}
	return "", nil
}
