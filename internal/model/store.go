package model

import (
	"fmt"
	"time"
)

// Store status constants
const (
	StatusDraft      = "draft"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusPublished  = "published"
	StatusError      = "error"
)

// Source platform constants
const (
	PlatformAliExpress = "aliexpress"
	PlatformAmazon     = "amazon"
	PlatformEbay       = "ebay"
	PlatformBestBuy    = "bestbuy"
	PlatformUnknown    = "unknown"
)

// Store is the persistent aggregate for one generated storefront.
type Store struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	StoreName      string            `json:"store_name"`
	SourceURL      string            `json:"source_url"`
	SourcePlatform string            `json:"source_platform"`
	ThemeStyle     ThemeStyle        `json:"theme_style"`
	BrandColors    map[string]string `json:"brand_colors,omitempty"`

	Status             string     `json:"status"`
	GenerationProgress int        `json:"generation_progress"`
	StatusMessage      string     `json:"status_message"`
	ErrorDetail        *string    `json:"error_detail,omitempty"`
	ErrorInfo          *ErrorInfo `json:"error_info,omitempty"`

	Document       *StoreDocument  `json:"document,omitempty"`
	EnhancedImages []EnhancedImage `json:"enhanced_images"`

	SEOTitle       string   `json:"seo_title,omitempty"`
	SEODescription string   `json:"seo_description,omitempty"`
	SEOKeywords    []string `json:"seo_keywords,omitempty"`

	Platform PlatformRefs `json:"platform"`

	ClaimedAt   *string `json:"-"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	PublishedAt *string `json:"published_at,omitempty"`
}

// PlatformRefs records the commerce-platform objects created for a store,
// so that later publishes update them instead of creating duplicates.
type PlatformRefs struct {
	StoreURL  string            `json:"store_url,omitempty"`
	ProductID string            `json:"product_id,omitempty"`
	PageIDs   map[string]string `json:"page_ids,omitempty"`
}

// Progress is the externally visible mid-run signal for a store.
type Progress struct {
	StoreID            string  `json:"store_id"`
	Status             string  `json:"status"`
	GenerationProgress int     `json:"generation_progress"`
	StatusMessage      string  `json:"status_message"`
	ErrorDetail        *string `json:"error_detail,omitempty"`
	UpdatedAt          string  `json:"updated_at"`
}

// StoreFilter holds query parameters for listing stores.
type StoreFilter struct {
	UserID string
	Status []string
}

// GenerationResult is everything the orchestrator persists on a successful run.
type GenerationResult struct {
	Document       StoreDocument
	EnhancedImages []EnhancedImage
	SEOTitle       string
	SEODescription string
	SEOKeywords    []string
}

// NewStore creates a Store queued for generation (or a draft when queue is false).
func NewStore(id, userID, name, sourceURL string, style ThemeStyle, brandColors map[string]string, queue bool) Store {
	now := time.Now().UTC().Format(time.RFC3339)
	status := StatusDraft
	message := "Store created"
	if queue {
		status = StatusGenerating
		message = "Queued for generation"
	}
	return Store{
		ID:             id,
		UserID:         userID,
		StoreName:      name,
		SourceURL:      sourceURL,
		SourcePlatform: DetectPlatform(sourceURL),
		ThemeStyle:     NormalizeStyle(string(style)),
		BrandColors:    brandColors,
		Status:         status,
		StatusMessage:  message,
		EnhancedImages: []EnhancedImage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Progress returns the progress view of the store.
func (s *Store) Progress() Progress {
	return Progress{
		StoreID:            s.ID,
		Status:             s.Status,
		GenerationProgress: s.GenerationProgress,
		StatusMessage:      s.StatusMessage,
		ErrorDetail:        s.ErrorDetail,
		UpdatedAt:          s.UpdatedAt,
	}
}

// IsTerminal reports whether the orchestrator no longer mutates the store.
func (s *Store) IsTerminal() bool {
	switch s.Status {
	case StatusCompleted, StatusError, StatusPublished:
		return true
	}
	return false
}

// CanQueueGeneration reports whether a new generation run may start.
// A store that is already generating must not get a second concurrent run.
func (s *Store) CanQueueGeneration() error {
	if s.Status == StatusGenerating {
		return fmt.Errorf("store %s is already generating", s.ID)
	}
	return nil
}

// CanPublish validates the publish precondition.
func (s *Store) CanPublish() error {
	if s.Status != StatusCompleted && s.Status != StatusPublished {
		return fmt.Errorf("store %s has status %q, want %q", s.ID, s.Status, StatusCompleted)
	}
	if s.Document == nil {
		return fmt.Errorf("store %s has no generated content", s.ID)
	}
	return nil
}
