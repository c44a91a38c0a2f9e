// Package storefront turns generation results into a StoreDocument and renders
// its pages. Everything here is pure: no I/O, no clocks except the one passed in.
package storefront

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/yangwenmai/storeforge/internal/model"
)

// ErrMissingInput is returned when the store or product is absent.
var ErrMissingInput = errors.New("storefront: store and product are required")

const featuredDescriptionRunes = 200

// Input is everything the assembler merges.
type Input struct {
	Store   *model.Store
	Product *model.ProductRecord
	Content model.SynthesizedContent
	Images  []model.EnhancedImage
}

// Assemble builds the storefront document. The result depends only on the
// input and now.
func Assemble(in Input, now time.Time) (model.StoreDocument, error) {
	if in.Store == nil || in.Product == nil {
		return model.StoreDocument{}, ErrMissingInput
	}
	st, p, c := in.Store, in.Product, in.Content

	hero := heroImage(p, in.Images)
	enhanced := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		enhanced = append(enhanced, img.EnhancedURL)
	}

	ctaText := c.HomepageHero.CTAText
	if ctaText == "" {
		ctaText = "Shop Now"
	}
	featuresHeadline := c.HomepageHero.FeaturesHeadline
	if featuresHeadline == "" {
		featuresHeadline = "Why Choose Us"
	}

	return model.StoreDocument{
		Product: model.ProductSection{
			Title:               c.ProductTitle,
			Description:         c.ProductDescription,
			Benefits:            nonNil(c.ProductBenefits),
			OriginalTitle:       p.Title,
			OriginalDescription: p.Description,
			Price:               p.Price,
			Features:            nonNil(p.Features),
			Specifications:      copySpecs(p.Specifications),
			Category:            p.CategoryOrDefault(),
			Images: model.ProductImages{
				Original: nonNil(p.Images),
				Enhanced: enhanced,
			},
		},
		Homepage: model.HomepageSection{
			Hero: c.HomepageHero,
			FeaturedProduct: model.FeaturedProduct{
				Title:       c.ProductTitle,
				Description: truncate(c.ProductDescription, featuredDescriptionRunes),
				Image:       hero,
				CTAText:     ctaText,
			},
			FeaturesSection: model.FeaturesSection{
				Headline: featuresHeadline,
				Features: head(c.ProductBenefits, 3),
			},
		},
		Pages: model.Pages{
			About:    model.Page{Title: "About Us", Content: c.AboutPage},
			FAQ:      model.Page{Title: "Frequently Asked Questions", Items: c.FAQItems},
			Contact:  model.Page{Title: "Contact Us", Content: ContactContent(st.StoreName)},
			Shipping: model.Page{Title: "Shipping & Returns", Content: ShippingContent(st.StoreName)},
			Privacy:  model.Page{Title: "Privacy Policy", Content: PrivacyContent(st.StoreName)},
		},
		SEO: model.SEOSection{
			Title:       c.SEOTitle,
			Description: c.SEODescription,
			Keywords:    nonNil(c.Keywords),
			OGImage:     hero,
		},
		Theme:       Theme(st.ThemeStyle, st.BrandColors),
		Category:    p.CategoryOrDefault(),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		StoreName:   st.StoreName,
		SourceURL:   st.SourceURL,
	}, nil
}

// Theme derives the theme block. Brand colors override the style palette key by key.
func Theme(style model.ThemeStyle, brand map[string]string) model.ThemeSection {
	style = model.NormalizeStyle(string(style))
	d := model.DefaultsFor(style)
	for k, v := range brand {
		if v != "" {
			d.Colors[k] = v
		}
	}
	return model.ThemeSection{Style: style, Colors: d.Colors, Fonts: d.Fonts, Layout: d.Layout}
}

// heroImage picks the first enhanced image, then the first original, else nil.
func heroImage(p *model.ProductRecord, images []model.EnhancedImage) *string {
	for _, img := range images {
		if img.EnhancedURL != "" {
			u := img.EnhancedURL
			return &u
		}
	}
	if len(p.Images) > 0 {
		u := p.Images[0]
		return &u
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func copySpecs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
