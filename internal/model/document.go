package model

// Page keys of the five auxiliary pages, in publish order.
const (
	PageAbout    = "about"
	PageFAQ      = "faq"
	PageContact  = "contact"
	PageShipping = "shipping"
	PagePrivacy  = "privacy"
)

// PageKeys lists the auxiliary pages every store document carries.
var PageKeys = []string{PageAbout, PageFAQ, PageContact, PageShipping, PagePrivacy}

// StoreDocument is the assembled, denormalized storefront.
type StoreDocument struct {
	Product     ProductSection  `json:"product"`
	Homepage    HomepageSection `json:"homepage"`
	Pages       Pages           `json:"pages"`
	SEO         SEOSection      `json:"seo"`
	Theme       ThemeSection    `json:"theme"`
	Category    string          `json:"category"`
	GeneratedAt string          `json:"generated_at"`
	StoreName   string          `json:"store_name"`
	SourceURL   string          `json:"source_url"`
}

// ProductSection is the rewritten product together with its source data.
type ProductSection struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Benefits            []string          `json:"benefits"`
	OriginalTitle       string            `json:"original_title"`
	OriginalDescription string            `json:"original_description"`
	Price               string            `json:"price,omitempty"`
	Features            []string          `json:"features"`
	Specifications      map[string]string `json:"specifications"`
	Category            string            `json:"category"`
	Images              ProductImages     `json:"images"`
}

// ProductImages pairs the source images with their enhanced counterparts.
type ProductImages struct {
	Original []string `json:"original"`
	Enhanced []string `json:"enhanced"`
}

// HomepageSection is the generated homepage.
type HomepageSection struct {
	Hero            HomepageHero    `json:"hero"`
	FeaturedProduct FeaturedProduct `json:"featured_product"`
	FeaturesSection FeaturesSection `json:"features_section"`
}

// FeaturedProduct is the product teaser shown on the homepage.
type FeaturedProduct struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	CTAText     string  `json:"cta_text"`
}

// FeaturesSection is the homepage benefits strip.
type FeaturesSection struct {
	Headline string   `json:"headline"`
	Features []string `json:"features"`
}

// Page is one auxiliary store page. FAQ pages carry Items instead of Content.
type Page struct {
	Title   string    `json:"title"`
	Content string    `json:"content,omitempty"`
	Items   []FAQItem `json:"items,omitempty"`
}

// Pages holds the five fixed auxiliary pages.
type Pages struct {
	About    Page `json:"about"`
	FAQ      Page `json:"faq"`
	Contact  Page `json:"contact"`
	Shipping Page `json:"shipping"`
	Privacy  Page `json:"privacy"`
}

// Get returns the page stored under key.
func (p Pages) Get(key string) (Page, bool) {
	switch key {
	case PageAbout:
		return p.About, true
	case PageFAQ:
		return p.FAQ, true
	case PageContact:
		return p.Contact, true
	case PageShipping:
		return p.Shipping, true
	case PagePrivacy:
		return p.Privacy, true
	}
	return Page{}, false
}

// SEOSection is the store-wide SEO block.
type SEOSection struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	OGImage     *string  `json:"og_image"`
}

// ThemeSection is the visual configuration derived from the theme style.
type ThemeSection struct {
	Style  ThemeStyle        `json:"style"`
	Colors map[string]string `json:"colors"`
	Fonts  ThemeFonts        `json:"fonts"`
	Layout ThemeLayout       `json:"layout"`
}
