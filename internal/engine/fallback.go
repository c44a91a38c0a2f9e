package engine

import (
	"fmt"
	"strings"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Fallback values are computed from the product record alone so that a
// failed generation call never leaves a field empty.

func fallbackProductCopy(p model.ProductRecord) (title, description string, benefits []string) {
	title = p.TitleOrDefault()
	benefits = p.TopFeatures(5)
	if len(benefits) == 0 {
		cat := strings.ToLower(p.CategoryOrDefault())
		benefits = []string{
			"Premium " + cat + " quality you can rely on",
			"Fast, tracked shipping",
			"30-day hassle-free returns",
		}
	}
	description = strings.TrimSpace(p.Description)
	if description == "" {
		description = fmt.Sprintf("Discover %s, carefully selected for quality and value.", title)
	}
	return title, description, benefits
}

func fallbackSEO(p model.ProductRecord) (title, description string) {
	name := p.TitleOrDefault()
	return fmt.Sprintf("%s - Best Quality Online Store", name),
		fmt.Sprintf("Shop %s with fast shipping and great prices. Premium quality guaranteed.", name)
}

func fallbackHero(p model.ProductRecord) model.HomepageHero {
	return model.HomepageHero{
		Headline:         fmt.Sprintf("Premium %s Collection", p.CategoryOrDefault()),
		Subheadline:      fmt.Sprintf("Discover high-quality %s with fast shipping worldwide", p.TitleOrDefault()),
		CTAText:          "Shop Now",
		FeaturesHeadline: "Why Choose Us",
	}
}

func fallbackAbout(p model.ProductRecord) string {
	return fmt.Sprintf("We are a team passionate about %s. Our mission is simple: offer carefully selected products "+
		"at fair prices, backed by responsive customer support. Every item we sell is checked for quality, "+
		"and we stand behind each order with an easy return policy. Thank you for shopping with us.",
		strings.ToLower(p.CategoryOrDefault()))
}

func fallbackFAQ() []model.FAQItem {
	return []model.FAQItem{
		{
			Question: "What is your shipping policy?",
			Answer:   "We offer free shipping on orders over $50. Standard delivery takes 3-7 business days.",
		},
		{
			Question: "What is your return policy?",
			Answer:   "We accept returns within 30 days of delivery for a full refund. Items must be in original condition.",
		},
		{
			Question: "Is this product authentic?",
			Answer:   "Yes, all our products are 100% authentic and come with a quality guarantee.",
		},
	}
}

func fallbackKeywords(p model.ProductRecord) []string {
	cat := p.CategoryOrDefault()
	name := p.TitleOrDefault()
	kw := []string{
		strings.ToLower(name),
		"best " + cat,
		"buy " + name,
		cat + " online",
		"premium " + cat,
	}
	for _, f := range p.TopFeatures(5) {
		kw = append(kw, strings.ToLower(f))
	}
	seen := make(map[string]bool, len(kw))
	out := kw[:0]
	for _, k := range kw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out
}
