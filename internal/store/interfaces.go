package store

import (
	"context"
	"errors"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Sentinel errors returned by the store.
var (
	ErrNotFound = errors.New("store not found")
	ErrConflict = errors.New("store state conflict")
)

// Platform object kinds tracked per store.
const (
	ObjectProduct = "product"
	ObjectPage    = "page"
)

// StoreReader provides read access to stores.
type StoreReader interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	GetProgress(ctx context.Context, id string) (*model.Progress, error)
	ListStores(ctx context.Context, f model.StoreFilter) ([]model.Store, error)
}

// StoreWriter provides write access to stores.
type StoreWriter interface {
	CreateStore(ctx context.Context, s model.Store) error
	QueueGeneration(ctx context.Context, id string) error
	DeleteStore(ctx context.Context, id string) error
}

// GenerationWriter is the write path of the generation orchestrator.
type GenerationWriter interface {
	UpdateProgress(ctx context.Context, id string, progress int, message string) error
	MarkError(ctx context.Context, id, message string, info model.ErrorInfo) error
	SaveGenerated(ctx context.Context, id string, result model.GenerationResult) error
}

// GenerationClaimer provides atomic claim operations for background processing.
type GenerationClaimer interface {
	ClaimNextGeneration(ctx context.Context) (*model.Store, error)
	ResetStaleGeneration(ctx context.Context) (int64, error)
}

// PublishWriter records the commerce-platform side of a store.
type PublishWriter interface {
	SavePlatformObject(ctx context.Context, storeID, kind, key, remoteID string) error
	MarkPublished(ctx context.Context, id, storeURL string) error
}

// StoreRepository combines all store operations used by the API layer.
type StoreRepository interface {
	StoreReader
	StoreWriter
}
