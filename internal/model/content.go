package model

// Content field names, used for fallback bookkeeping and metrics labels.
const (
	FieldProductCopy = "product_copy"
	FieldSEO         = "seo"
	FieldHomepage    = "homepage_hero"
	FieldAbout       = "about_page"
	FieldFAQ         = "faq_items"
	FieldKeywords    = "keywords"
)

// ContentFields lists every synthesized field group in a stable order.
var ContentFields = []string{FieldProductCopy, FieldSEO, FieldHomepage, FieldAbout, FieldFAQ, FieldKeywords}

// HomepageHero is the hero block of the generated homepage.
type HomepageHero struct {
	Headline         string `json:"headline"`
	Subheadline      string `json:"subheadline"`
	CTAText          string `json:"cta_text"`
	FeaturesHeadline string `json:"features_headline"`
}

// FAQItem is one question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SynthesizedContent is the marketing copy produced for a product.
type SynthesizedContent struct {
	ProductTitle       string       `json:"product_title"`
	ProductDescription string       `json:"product_description"`
	ProductBenefits    []string     `json:"product_benefits"`
	SEOTitle           string       `json:"seo_title"`
	SEODescription     string       `json:"seo_description"`
	HomepageHero       HomepageHero `json:"homepage_hero"`
	AboutPage          string       `json:"about_page"`
	FAQItems           []FAQItem    `json:"faq_items"`
	Keywords           []string     `json:"keywords"`

	// FallbackFields names the field groups that were filled from templates.
	FallbackFields []string `json:"fallback_fields,omitempty"`
}

// UsedFallback reports whether the named field group came from a template.
func (c *SynthesizedContent) UsedFallback(field string) bool {
	for _, f := range c.FallbackFields {
		if f == field {
			return true
		}
	}
	return false
}
