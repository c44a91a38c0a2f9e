// Package commerce is a small Shopify Admin REST client covering the objects
// a generated store publishes: one product, content pages and a theme asset.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2024-04"

// ErrNoMainTheme is returned when the shop has no published theme.
var ErrNoMainTheme = errors.New("shop has no main theme")

// APIError is a non-2xx Admin API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: HTTP %d: %s", e.StatusCode, e.Body)
}

// NotFound reports whether the remote object no longer exists.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsNotFound reports whether err is a 404 from the Admin API.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.NotFound()
}

// Client talks to one shop.
type Client struct {
	shopDomain string
	token      string
	baseURL    string
	hc         *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion pins the Admin API version.
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.baseURL = fmt.Sprintf("https://%s/admin/api/%s", c.shopDomain, v)
		}
	}
}

// WithBaseURL overrides the full API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// NewClient creates a client for shopDomain (e.g. "acme.myshopify.com").
func NewClient(shopDomain, accessToken string, opts ...Option) *Client {
	c := &Client{
		shopDomain: shopDomain,
		token:      accessToken,
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", shopDomain, DefaultAPIVersion),
		hc:         &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StoreURL is the public storefront address.
func (c *Client) StoreURL() string {
	return "https://" + c.shopDomain
}

// Image is a product image reference.
type Image struct {
	Src string `json:"src"`
}

// Variant is a sellable variant.
type Variant struct {
	Price               string `json:"price"`
	InventoryQuantity   int    `json:"inventory_quantity,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
}

// Product is the subset of a Shopify product written by the publisher.
type Product struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants,omitempty"`
	Images      []Image   `json:"images,omitempty"`
}

// Page is an online-store content page.
type Page struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	BodyHTML  string `json:"body_html"`
	Published bool   `json:"published"`
}

// Theme is a storefront theme.
type Theme struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Asset is a theme file.
type Asset struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// CreateProduct creates p and returns it with its id.
func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products.json", map[string]Product{"product": p}, &out); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &out.Product, nil
}

// UpdateProduct overwrites product id with p.
func (c *Client) UpdateProduct(ctx context.Context, id int64, p Product) (*Product, error) {
	p.ID = id
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", id), map[string]Product{"product": p}, &out); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return &out.Product, nil
}

// CreatePage creates p and returns it with its id.
func (c *Client) CreatePage(ctx context.Context, p Page) (*Page, error) {
	var out struct {
		Page Page `json:"page"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages.json", map[string]Page{"page": p}, &out); err != nil {
		return nil, fmt.Errorf("create page %q: %w", p.Title, err)
	}
	return &out.Page, nil
}

// UpdatePage overwrites page id with p.
func (c *Client) UpdatePage(ctx context.Context, id int64, p Page) (*Page, error) {
	p.ID = id
	var out struct {
		Page Page `json:"page"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/pages/%d.json", id), map[string]Page{"page": p}, &out); err != nil {
		return nil, fmt.Errorf("update page %d: %w", id, err)
	}
	return &out.Page, nil
}

// ListThemes returns every theme installed on the shop.
func (c *Client) ListThemes(ctx context.Context) ([]Theme, error) {
	var out struct {
		Themes []Theme `json:"themes"`
	}
	if err := c.do(ctx, http.MethodGet, "/themes.json", nil, &out); err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return out.Themes, nil
}

// MainTheme returns the published theme.
func (c *Client) MainTheme(ctx context.Context) (*Theme, error) {
	themes, err := c.ListThemes(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range themes {
		if t.Role == "main" {
			return &t, nil
		}
	}
	return nil, ErrNoMainTheme
}

// UpdateThemeAsset creates or replaces one file in a theme.
func (c *Client) UpdateThemeAsset(ctx context.Context, themeID int64, a Asset) error {
	var out struct {
		Asset Asset `json:"asset"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/themes/%d/assets.json", themeID), map[string]Asset{"asset": a}, &out); err != nil {
		return fmt.Errorf("update asset %s: %w", a.Key, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
