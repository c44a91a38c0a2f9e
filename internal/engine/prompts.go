package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Each builder returns the request for one synthesized field group. Sampling
// parameters are tuned per field: descriptive copy runs warmer than metadata.

func productCopyRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.7,
		MaxTokens:   800,
		Prompt: fmt.Sprintf(`You are an expert e-commerce copywriter. Rewrite this product information to be persuasive, SEO-optimized and conversion-driven for an online store.

Original product:
Title: %s
Description: %s
Features: %s
Category: %s

Generate:
1. A compelling product title (max 60 characters)
2. A persuasive product description (200-300 words)
3. 5 key product benefits

Focus on benefits over features and a clear value proposition.

Output ONLY valid JSON with this exact structure (no markdown, no explanation):
{"title": "...", "description": "...", "benefits": ["...", "...", "...", "...", "..."]}`,
			p.TitleOrDefault(), truncateRunes(p.Description, 2000), strings.Join(p.Features, ", "), p.CategoryOrDefault()),
	}
}

func seoRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.5,
		MaxTokens:   200,
		Prompt: fmt.Sprintf(`Create an SEO-optimized title and meta description for this product.

Product: %s
Category: %s
Description: %s

Rules:
- title: 50-60 characters, include the main keyword
- description: 150-160 characters, compelling and informative

Output ONLY valid JSON with this exact structure:
{"title": "...", "description": "..."}`,
			p.TitleOrDefault(), p.CategoryOrDefault(), truncateRunes(p.Description, 200)),
	}
}

func homepageRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.8,
		MaxTokens:   300,
		Prompt: fmt.Sprintf(`Create homepage hero content for an online store selling: %s

Generate:
- headline: 8-12 words, attention-grabbing
- subheadline: 15-25 words, explains the value proposition
- cta_text: 2-4 words for the call-to-action button
- features_headline: a short headline for the features section

Output ONLY valid JSON with this exact structure:
{"headline": "...", "subheadline": "...", "cta_text": "...", "features_headline": "..."}`, p.Title),
	}
}

func aboutRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.7,
		MaxTokens:   400,
		Prompt: fmt.Sprintf(`Write an About Us page for an online store specializing in %s.

Include a brief company story, mission and values, a quality commitment and a customer focus.
Keep it 150-200 words, professional yet friendly. Output plain text only.`, p.CategoryOrDefault()),
	}
}

func faqRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.6,
		MaxTokens:   600,
		Prompt: fmt.Sprintf(`Create 5 FAQ items for a store selling %s in the %s category.

Cover shipping and delivery, product quality, returns and exchanges, sizing or compatibility, and warranty or support.
Keep answers helpful and concise (2-3 sentences each).

Output ONLY a valid JSON array with this exact structure:
[{"question": "...", "answer": "..."}]`, p.TitleOrDefault(), p.CategoryOrDefault()),
	}
}

func keywordsRequest(p model.ProductRecord) CompletionRequest {
	return CompletionRequest{
		Temperature: 0.5,
		MaxTokens:   300,
		Prompt: fmt.Sprintf(`Generate 10-15 SEO keywords for this product.

Product: %s
Category: %s
Features: %s

Mix main product keywords, long-tail keywords, category terms and commercial-intent keywords.

Output ONLY a valid JSON array of strings.`, p.TitleOrDefault(), p.CategoryOrDefault(), strings.Join(p.TopFeatures(5), ", ")),
	}
}

// truncateRunes truncates s to maxRunes runes (Unicode-safe).
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}
