package model

import (
	nurl "net/url"
	"strings"
)

// ProductRecord holds the normalized fields extracted from a product listing.
// It is produced once per run and only read afterwards.
type ProductRecord struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Price          string            `json:"price,omitempty"`
	Images         []string          `json:"images"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	Platform       string            `json:"platform,omitempty"`
}

// CategoryOrDefault returns the category, or "General" when it is unknown.
func (p *ProductRecord) CategoryOrDefault() string {
	c := strings.TrimSpace(p.Category)
	if c == "" || strings.EqualFold(c, "unknown") {
		return "General"
	}
	return c
}

// TitleOrDefault returns the title, or "Unknown Product" when it is blank.
func (p *ProductRecord) TitleOrDefault() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "Unknown Product"
}

// TopFeatures returns at most n non-empty features.
func (p *ProductRecord) TopFeatures(n int) []string {
	out := make([]string, 0, n)
	for _, f := range p.Features {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}

// DetectPlatform classifies a listing URL by its host.
func DetectPlatform(rawURL string) string {
	u, err := nurl.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "aliexpress."):
		return PlatformAliExpress
	case strings.Contains(host, "amazon."):
		return PlatformAmazon
	case strings.Contains(host, "ebay."):
		return PlatformEbay
	case strings.Contains(host, "bestbuy."):
		return PlatformBestBuy
	default:
		return PlatformUnknown
	}
}

// DefaultCategory is the category assumed for a platform when the page has none.
func DefaultCategory(platform string) string {
	if platform == PlatformBestBuy {
		return "Electronics"
	}
	return "General"
}
