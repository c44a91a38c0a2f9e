package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/yangwenmai/storeforge/internal/model"
)

const (
	// maxRetries is the number of extraction attempts before giving up.
	maxRetries = 3
	// maxBodySize is the maximum HTTP response body size (5MB).
	maxBodySize = 5 * 1024 * 1024

	maxDescriptionLength = 1500
	maxImages            = 10
	maxFeatures          = 10
	maxSpecifications    = 20
)

// ErrProductNotFound means the page was fetched but held no recognizable product.
var ErrProductNotFound = errors.New("no product found on page")

// HTTPExtractor fetches listing pages and extracts a ProductRecord from
// structured data (JSON-LD, Open Graph) with HTML heuristics as a fallback.
type HTTPExtractor struct {
	client    *http.Client
	userAgent string
	backoff   time.Duration
}

// ExtractorOption configures the extractor.
type ExtractorOption func(*HTTPExtractor)

// WithExtractorClient replaces the HTTP client.
func WithExtractorClient(hc *http.Client) ExtractorOption {
	return func(e *HTTPExtractor) { e.client = hc }
}

// WithExtractorBackoff sets the base delay between attempts.
func WithExtractorBackoff(d time.Duration) ExtractorOption {
	return func(e *HTTPExtractor) { e.backoff = d }
}

// NewHTTPExtractor creates a new HTTP-based product extractor.
func NewHTTPExtractor(opts ...ExtractorOption) *HTTPExtractor {
	e := &HTTPExtractor{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		backoff:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the URL and extracts the product with automatic retry.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) (*model.ProductRecord, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.backoff):
			}
		}

		p, err := e.doExtract(ctx, url)
		if err == nil {
			return p, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (e *HTTPExtractor) doExtract(ctx context.Context, url string) (*model.ProductRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	base, _ := nurl.Parse(url)
	return parseProductPage(body, base)
}

// parseProductPage builds a ProductRecord from raw HTML.
func parseProductPage(body []byte, base *nurl.URL) (*model.ProductRecord, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := scanPage(doc)
	ld := page.productLD()
	platform := model.PlatformUnknown
	if base != nil {
		platform = model.DetectPlatform(base.String())
	}

	p := &model.ProductRecord{
		Title:          firstNonEmpty(ld.Name, page.productTitle, page.meta["og:title"], page.h1, page.title),
		Description:    firstNonEmpty(ld.Description, page.meta["og:description"], page.meta["description"]),
		Price:          firstNonEmpty(ld.price(), page.meta["product:price:amount"], page.meta["og:price:amount"]),
		Brand:          ld.brand(),
		Category:       firstNonEmpty(ld.Category, model.DefaultCategory(platform)),
		Platform:       platform,
		Features:       page.features,
		Specifications: page.specs,
	}
	if p.Title == "" {
		return nil, ErrProductNotFound
	}

	if p.Description == "" && base != nil {
		if article, err := readability.FromReader(bytes.NewReader(body), base); err == nil {
			p.Description = normalizeText(article.TextContent)
		}
	}
	p.Description = truncateRunes(normalizeText(p.Description), maxDescriptionLength)

	var images []string
	images = append(images, ld.images()...)
	images = append(images, page.metaImages...)
	images = append(images, page.imgs...)
	p.Images = resolveImages(base, images)

	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]string{}
	}
	return p, nil
}

// pageScan collects everything the extractor looks at in one tree walk.
type pageScan struct {
	title        string
	h1           string
	productTitle string
	meta         map[string]string
	metaImages   []string
	imgs         []string
	features     []string
	specs        map[string]string
	ldBlocks     []string
}

func scanPage(doc *html.Node) *pageScan {
	ps := &pageScan{meta: map[string]string{}}
	var walk func(n *html.Node, inFeatures, inSpecs bool)
	walk = func(n *html.Node, inFeatures, inSpecs bool) {
		if n.Type == html.ElementNode {
			id := attr(n, "id")
			class := strings.ToLower(attr(n, "class"))
			switch n.DataAtom {
			case atom.Title:
				if ps.title == "" {
					ps.title = textOf(n)
				}
			case atom.H1:
				if ps.h1 == "" {
					ps.h1 = textOf(n)
				}
			case atom.Meta:
				key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name")))
				content := strings.TrimSpace(attr(n, "content"))
				if key == "og:image" || key == "og:image:url" {
					ps.metaImages = append(ps.metaImages, content)
				} else if key != "" && content != "" {
					if _, seen := ps.meta[key]; !seen {
						ps.meta[key] = content
					}
				}
			case atom.Script:
				if strings.Contains(attr(n, "type"), "ld+json") && n.FirstChild != nil {
					ps.ldBlocks = append(ps.ldBlocks, n.FirstChild.Data)
				}
				return
			case atom.Style, atom.Noscript:
				return
			case atom.Img:
				if src := firstNonEmpty(attr(n, "src"), attr(n, "data-src"), attr(n, "data-lazy-src")); looksLikeProductImage(src) {
					ps.imgs = append(ps.imgs, src)
				}
			case atom.Li:
				if inFeatures && len(ps.features) < maxFeatures {
					if t := textOf(n); len(t) > 10 && len(t) < 200 {
						ps.features = append(ps.features, t)
					}
				}
			case atom.Tr:
				if inSpecs && len(ps.specs) < maxSpecifications {
					ps.addSpecRow(n)
				}
			}
			if id == "productTitle" && ps.productTitle == "" {
				ps.productTitle = textOf(n)
			}
			lid := strings.ToLower(id)
			if strings.Contains(lid, "feature") || strings.Contains(class, "feature") {
				inFeatures = true
			}
			if strings.Contains(lid, "spec") || strings.Contains(class, "spec") || strings.Contains(lid, "techdetail") {
				inSpecs = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inFeatures, inSpecs)
		}
	}
	walk(doc, false, false)
	return ps
}

func (ps *pageScan) addSpecRow(tr *html.Node) {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Th || c.DataAtom == atom.Td) {
			cells = append(cells, textOf(c))
		}
	}
	if len(cells) >= 2 && cells[0] != "" && cells[1] != "" {
		if ps.specs == nil {
			ps.specs = map[string]string{}
		}
		ps.specs[cells[0]] = cells[1]
	}
}

// ldProduct is the subset of a schema.org Product that the extractor reads.
type ldProduct struct {
	Type        any             `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       json.RawMessage `json:"image"`
	Category    string          `json:"category"`
	Brand       json.RawMessage `json:"brand"`
	Offers      json.RawMessage `json:"offers"`
	Graph       []ldProduct     `json:"@graph"`
}

func (l ldProduct) isProduct() bool {
	switch t := l.Type.(type) {
	case string:
		return t == "Product"
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

// productLD returns the first schema.org Product in the page's JSON-LD blocks.
func (ps *pageScan) productLD() ldProduct {
	for _, block := range ps.ldBlocks {
		var single ldProduct
		if err := json.Unmarshal([]byte(block), &single); err == nil {
			if single.isProduct() {
				return single
			}
			for _, g := range single.Graph {
				if g.isProduct() {
					return g
				}
			}
			continue
		}
		var list []ldProduct
		if err := json.Unmarshal([]byte(block), &list); err == nil {
			for _, l := range list {
				if l.isProduct() {
					return l
				}
			}
		}
	}
	return ldProduct{}
}

func (l ldProduct) images() []string {
	if len(l.Image) == 0 {
		return nil
	}
	var one string
	if json.Unmarshal(l.Image, &one) == nil {
		return []string{one}
	}
	var many []string
	if json.Unmarshal(l.Image, &many) == nil {
		return many
	}
	var obj struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(l.Image, &obj) == nil && obj.URL != "" {
		return []string{obj.URL}
	}
	return nil
}

func (l ldProduct) brand() string {
	if len(l.Brand) == 0 {
		return ""
	}
	var name string
	if json.Unmarshal(l.Brand, &name) == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(l.Brand, &obj)
	return obj.Name
}

type ldOffer struct {
	Price         any    `json:"price"`
	LowPrice      any    `json:"lowPrice"`
	PriceCurrency string `json:"priceCurrency"`
}

func (o ldOffer) String() string {
	v := o.Price
	if v == nil {
		v = o.LowPrice
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (l ldProduct) price() string {
	if len(l.Offers) == 0 {
		return ""
	}
	var one ldOffer
	if json.Unmarshal(l.Offers, &one) == nil {
		return one.String()
	}
	var many []ldOffer
	if json.Unmarshal(l.Offers, &many) == nil && len(many) > 0 {
		return many[0].String()
	}
	return ""
}

func looksLikeProductImage(src string) bool {
	s := strings.ToLower(src)
	if s == "" || strings.HasPrefix(s, "data:") || strings.HasSuffix(s, ".svg") {
		return false
	}
	for _, kw := range []string{"product", "item", "images/i/", "photo", "img"} {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// resolveImages absolutizes, dedupes and caps image URLs in encounter order.
func resolveImages(base *nurl.URL, raw []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := nurl.Parse(r)
		if err != nil {
			continue
		}
		if base != nil {
			u = base.ResolveReference(u)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		s := u.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == maxImages {
			break
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeText(b.String())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}
