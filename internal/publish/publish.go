// Package publish pushes a completed store to the commerce platform.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yangwenmai/storeforge/internal/commerce"
	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/runlock"
	"github.com/yangwenmai/storeforge/internal/store"
	"github.com/yangwenmai/storeforge/internal/storefront"
)

// ErrNotPublishable is returned when the store is not completed or has no document.
var ErrNotPublishable = errors.New("store is not publishable")

// ErrInProgress is returned when another publish of the same store is running.
var ErrInProgress = errors.New("publish already in progress")

// Default product values used when the document leaves them empty.
const (
	DefaultVendor = "StoreForge"
	DefaultPrice  = "29.99"
	defaultStock  = 100
)

// Platform is the commerce API surface the publisher needs.
type Platform interface {
	CreateProduct(ctx context.Context, p commerce.Product) (*commerce.Product, error)
	UpdateProduct(ctx context.Context, id int64, p commerce.Product) (*commerce.Product, error)
	CreatePage(ctx context.Context, p commerce.Page) (*commerce.Page, error)
	UpdatePage(ctx context.Context, id int64, p commerce.Page) (*commerce.Page, error)
	MainTheme(ctx context.Context) (*commerce.Theme, error)
	UpdateThemeAsset(ctx context.Context, themeID int64, a commerce.Asset) error
	StoreURL() string
}

// Repository is the store subset the publisher reads and writes.
type Repository interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	SavePlatformObject(ctx context.Context, storeID, kind, key, remoteID string) error
	MarkPublished(ctx context.Context, id, storeURL string) error
}

// Recorder receives publish outcomes.
type Recorder interface {
	PublishFinished(outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) PublishFinished(string, time.Duration) {}

// Result describes what a publish created or updated.
type Result struct {
	StoreURL  string            `json:"store_url"`
	ProductID string            `json:"product_id"`
	PageIDs   map[string]string `json:"page_ids"`
	Created   int               `json:"created"`
	Updated   int               `json:"updated"`
}

// Publisher publishes stores.
type Publisher struct {
	repo     Repository
	platform Platform
	vendor   string
	recorder Recorder
	locker   runlock.Locker

	mu     sync.Mutex
	active map[string]struct{}
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithVendor sets the vendor written on products.
func WithVendor(v string) Option {
	return func(p *Publisher) {
		if v != "" {
			p.vendor = v
		}
	}
}

// WithRecorder reports publish outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLocker guards publishes across processes. Keys are "publish:<store id>"
// so a publish never contends with the generation lock.
func WithLocker(l runlock.Locker) Option {
	return func(p *Publisher) {
		if l != nil {
			p.locker = l
		}
	}
}

// New creates a Publisher.
func New(repo Repository, platform Platform, opts ...Option) *Publisher {
	p := &Publisher{
		repo:     repo,
		platform: platform,
		vendor:   DefaultVendor,
		recorder: nopRecorder{},
		locker:   runlock.Noop{},
		active:   map[string]struct{}{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Publish pushes the store's product and pages. Remote ids are saved as soon
// as each object exists, so a retry after a partial failure updates instead
// of duplicating. On failure the store keeps its status.
func (p *Publisher) Publish(ctx context.Context, storeID string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrNotPublishable), errors.Is(err, ErrInProgress):
			outcome = "rejected"
		case err != nil:
			outcome = "error"
		}
		p.recorder.PublishFinished(outcome, time.Since(start))
	}()

	unlock, err := p.lock(ctx, storeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := p.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := st.CanPublish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPublishable, err)
	}
	doc := st.Document

	res = &Result{PageIDs: map[string]string{}}
	productID, created, err := p.pushProduct(ctx, st, doc)
	if err != nil {
		return nil, err
	}
	res.ProductID = productID
	res.count(created)

	for _, key := range model.PageKeys {
		page, _ := doc.Pages.Get(key)
		id, created, err := p.pushPage(ctx, st, key, page)
		if err != nil {
			return nil, err
		}
		res.PageIDs[key] = id
		res.count(created)
	}

	res.StoreURL = p.platform.StoreURL()
	if err := p.repo.MarkPublished(ctx, storeID, res.StoreURL); err != nil {
		return nil, fmt.Errorf("mark published: %w", err)
	}
	slog.Info("store published", "store_id", storeID, "store_url", res.StoreURL,
		"created", res.Created, "updated", res.Updated)
	return res, nil
}

// lock serialises publishes of one store. Without saved remote ids two
// concurrent runs would both create the product.
func (p *Publisher) lock(ctx context.Context, storeID string) (func(), error) {
	p.mu.Lock()
	if _, busy := p.active[storeID]; busy {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInProgress, storeID)
	}
	p.active[storeID] = struct{}{}
	p.mu.Unlock()

	local := func() {
		p.mu.Lock()
		delete(p.active, storeID)
		p.mu.Unlock()
	}

	release, err := p.locker.Acquire(ctx, "publish:"+storeID)
	if err != nil {
		local()
		if errors.Is(err, runlock.ErrHeld) {
			return nil, fmt.Errorf("%w: %s", ErrInProgress, storeID)
		}
		return nil, fmt.Errorf("publish lock: %w", err)
	}
	return func() {
		// The request context may already be cancelled.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("release publish lock", "store_id", storeID, "error", err)
		}
		local()
	}, nil
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Updated++
	}
}

// ProductPayload maps the document onto a platform product.
func ProductPayload(doc *model.StoreDocument, vendor string) commerce.Product {
	price := strings.TrimSpace(doc.Product.Price)
	if price == "" {
		price = DefaultPrice
	}
	images := make([]commerce.Image, 0, len(doc.Product.Images.Enhanced))
	for _, u := range doc.Product.Images.Enhanced {
		images = append(images, commerce.Image{Src: u})
	}
	if len(images) == 0 {
		for _, u := range doc.Product.Images.Original {
			images = append(images, commerce.Image{Src: u})
		}
	}
	return commerce.Product{
		Title:       doc.Product.Title,
		BodyHTML:    storefront.ProductHTML(doc.Product),
		Vendor:      vendor,
		ProductType: doc.Category,
		Tags:        strings.Join(doc.SEO.Keywords, ", "),
		Variants: []commerce.Variant{{
			Price:               price,
			InventoryQuantity:   defaultStock,
			InventoryManagement: "shopify",
		}},
		Images: images,
	}
}

func (p *Publisher) pushProduct(ctx context.Context, st *model.Store, doc *model.StoreDocument) (string, bool, error) {
	payload := ProductPayload(doc, p.vendor)
	if id, ok := remoteID(st.Platform.ProductID); ok {
		out, err := p.platform.UpdateProduct(ctx, id, payload)
		if err == nil {
			return strconv.FormatInt(out.ID, 10), false, nil
		}
		if !commerce.IsNotFound(err) {
			return "", false, err
		}
		slog.Warn("remote product missing, recreating", "store_id", st.ID, "product_id", id)
	}

	out, err := p.platform.CreateProduct(ctx, payload)
	if err != nil {
		return "", false, err
	}
	rid := strconv.FormatInt(out.ID, 10)
	if err := p.repo.SavePlatformObject(ctx, st.ID, store.ObjectProduct, "product", rid); err != nil {
		return "", false, fmt.Errorf("save product id: %w", err)
	}
	return rid, true, nil
}

func (p *Publisher) pushPage(ctx context.Context, st *model.Store, key string, page model.Page) (string, bool, error) {
	payload := commerce.Page{Title: page.Title, BodyHTML: storefront.PageHTML(page), Published: true}
	if id, ok := remoteID(st.Platform.PageIDs[key]); ok {
		out, err := p.platform.UpdatePage(ctx, id, payload)
		if err == nil {
			return strconv.FormatInt(out.ID, 10), false, nil
		}
		if !commerce.IsNotFound(err) {
			return "", false, err
		}
		slog.Warn("remote page missing, recreating", "store_id", st.ID, "page", key, "page_id", id)
	}

	out, err := p.platform.CreatePage(ctx, payload)
	if err != nil {
		return "", false, err
	}
	rid := strconv.FormatInt(out.ID, 10)
	if err := p.repo.SavePlatformObject(ctx, st.ID, store.ObjectPage, key, rid); err != nil {
		return "", false, fmt.Errorf("save page id: %w", err)
	}
	return rid, true, nil
}

func remoteID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
