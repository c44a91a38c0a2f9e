package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ StoreReader       = (*Store)(nil)
	_ StoreWriter       = (*Store)(nil)
	_ GenerationWriter  = (*Store)(nil)
	_ GenerationClaimer = (*Store)(nil)
	_ PublishWriter     = (*Store)(nil)
)

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: stores table
		s.migrateV2, // v1 → v2: platform objects, store_url
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) migrateV1() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS stores (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		store_name          TEXT NOT NULL,
		source_url          TEXT NOT NULL,
		source_platform     TEXT NOT NULL,
		theme_style         TEXT NOT NULL,
		brand_colors        TEXT,
		status              TEXT NOT NULL,
		generation_progress INTEGER NOT NULL DEFAULT 0,
		status_message      TEXT NOT NULL DEFAULT '',
		error_detail        TEXT,
		error_info          TEXT,
		document            TEXT,
		enhanced_images     TEXT NOT NULL DEFAULT '[]',
		seo_title           TEXT NOT NULL DEFAULT '',
		seo_description     TEXT NOT NULL DEFAULT '',
		seo_keywords        TEXT NOT NULL DEFAULT '[]',
		claimed_at          TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		published_at        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_stores_user ON stores(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_stores_status ON stores(status, updated_at);
	`)
	return err
}

func (s *Store) migrateV2() error {
	if _, err := s.db.Exec(`ALTER TABLE stores ADD COLUMN store_url TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add store_url: %w", err)
	}
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS platform_objects (
		store_id   TEXT NOT NULL REFERENCES stores(id),
		kind       TEXT NOT NULL,
		key        TEXT NOT NULL,
		remote_id  TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (store_id, kind, key)
	);
	`)
	return err
}

const storeColumns = `id, user_id, store_name, source_url, source_platform, theme_style, brand_colors,
	status, generation_progress, status_message, error_detail, error_info,
	document, enhanced_images, seo_title, seo_description, seo_keywords,
	store_url, claimed_at, created_at, updated_at, published_at`

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

// CreateStore inserts a new store.
func (s *Store) CreateStore(ctx context.Context, st model.Store) error {
	var brand *string
	if len(st.BrandColors) > 0 {
		b, err := json.Marshal(st.BrandColors)
		if err != nil {
			return fmt.Errorf("encode brand colors: %w", err)
		}
		v := string(b)
		brand = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stores (id, user_id, store_name, source_url, source_platform, theme_style, brand_colors,
			status, generation_progress, status_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.UserID, st.StoreName, st.SourceURL, st.SourcePlatform, string(st.ThemeStyle), brand,
		st.Status, st.GenerationProgress, st.StatusMessage, st.CreatedAt, st.UpdatedAt,
	)
	return err
}

// GetStore returns a store together with its platform references.
func (s *Store) GetStore(ctx context.Context, id string) (*model.Store, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ?`, id)
	st, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadPlatformRefs(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetProgress returns the progress view of a store without decoding its document.
func (s *Store) GetProgress(ctx context.Context, id string) (*model.Progress, error) {
	var p model.Progress
	var detail sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, generation_progress, status_message, error_detail, updated_at FROM stores WHERE id = ?`, id,
	).Scan(&p.StoreID, &p.Status, &p.GenerationProgress, &p.StatusMessage, &detail, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if detail.Valid {
		p.ErrorDetail = &detail.String
	}
	return &p, nil
}

// ListStores returns stores matching the filter, newest first.
func (s *Store) ListStores(ctx context.Context, f model.StoreFilter) ([]model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores`
	var conditions []string
	var args []interface{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, f.UserID)
	}
	if len(f.Status) > 0 {
		placeholders := make([]string, len(f.Status))
		for i, st := range f.Status {
			placeholders[i] = "?"
			args = append(args, st)
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []model.Store{}
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *st)
	}
	return stores, rows.Err()
}

// QueueGeneration resets a store for a fresh generation run. It fails with
// ErrConflict while another run is in flight.
func (s *Store) QueueGeneration(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stores SET status = ?, generation_progress = 0, status_message = ?,
			error_detail = NULL, error_info = NULL, claimed_at = NULL, updated_at = ?
		WHERE id = ? AND status != ?`,
		model.StatusGenerating, "Queued for generation", now(), id, model.StatusGenerating,
	)
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, res, id)
}

// ClaimNextGeneration atomically picks the oldest unclaimed generating store.
// Returns nil if none is waiting.
func (s *Store) ClaimNextGeneration(ctx context.Context) (*model.Store, error) {
	ts := now()
	row := s.db.QueryRowContext(ctx, `
		UPDATE stores SET claimed_at = ?, updated_at = ?
		WHERE id = (SELECT id FROM stores WHERE status = ? AND claimed_at IS NULL ORDER BY updated_at ASC, id ASC LIMIT 1)
		RETURNING `+storeColumns,
		ts, ts, model.StatusGenerating,
	)
	st, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

// ResetStaleGeneration releases claims left behind by a previous process so the
// runs start over (for server restart).
func (s *Store) ResetStaleGeneration(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stores SET claimed_at = NULL, generation_progress = 0, status_message = ?, updated_at = ?
		WHERE status = ? AND claimed_at IS NOT NULL`,
		"Queued for generation", now(), model.StatusGenerating,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateProgress records a checkpoint. Progress never decreases and only
// generating stores are touched.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stores SET generation_progress = MAX(generation_progress, ?), status_message = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		progress, message, now(), id, model.StatusGenerating,
	)
	return err
}

// MarkError moves a generating store to the error state. The progress value
// is left where the failed run stopped.
func (s *Store) MarkError(ctx context.Context, id, message string, info model.ErrorInfo) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stores SET status = ?, status_message = ?, error_detail = ?, error_info = ?, claimed_at = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		model.StatusError, "Generation failed", message, info.ToJSON(), now(), id, model.StatusGenerating,
	)
	return err
}

// SaveGenerated persists a successful run and completes the store.
func (s *Store) SaveGenerated(ctx context.Context, id string, r model.GenerationResult) error {
	doc, err := json.Marshal(r.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	images := r.EnhancedImages
	if images == nil {
		images = []model.EnhancedImage{}
	}
	imgs, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	keywords := r.SEOKeywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE stores SET status = ?, generation_progress = 100, status_message = ?,
			document = ?, enhanced_images = ?, seo_title = ?, seo_description = ?, seo_keywords = ?,
			error_detail = NULL, error_info = NULL, claimed_at = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		model.StatusCompleted, "Store generated successfully",
		string(doc), string(imgs), r.SEOTitle, r.SEODescription, string(kw),
		now(), id, model.StatusGenerating,
	)
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, res, id)
}

// SavePlatformObject records the remote id of an object created on the commerce platform.
func (s *Store) SavePlatformObject(ctx context.Context, storeID, kind, key, remoteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_objects (store_id, kind, key, remote_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(store_id, kind, key) DO UPDATE SET
			remote_id = excluded.remote_id,
			updated_at = excluded.updated_at`,
		storeID, kind, key, remoteID, now(),
	)
	return err
}

// MarkPublished records a successful publish.
func (s *Store) MarkPublished(ctx context.Context, id, storeURL string) error {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE stores SET status = ?, store_url = ?, status_message = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		model.StatusPublished, storeURL, "Store published", ts, ts,
		id, model.StatusCompleted, model.StatusPublished,
	)
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, res, id)
}

// DeleteStore removes a store and its platform references.
func (s *Store) DeleteStore(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM platform_objects WHERE store_id = ?`, id); err != nil {
		return fmt.Errorf("delete platform objects: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// checkAffected turns a zero-row conditional update into ErrNotFound or ErrConflict.
func (s *Store) checkAffected(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM stores WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (s *Store) loadPlatformRefs(ctx context.Context, st *model.Store) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, key, remote_id FROM platform_objects WHERE store_id = ? ORDER BY kind, key`, st.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind, key, remoteID string
		if err := rows.Scan(&kind, &key, &remoteID); err != nil {
			return err
		}
		switch kind {
		case ObjectProduct:
			st.Platform.ProductID = remoteID
		case ObjectPage:
			if st.Platform.PageIDs == nil {
				st.Platform.PageIDs = make(map[string]string)
			}
			st.Platform.PageIDs[key] = remoteID
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row scanner) (*model.Store, error) {
	var (
		st                       model.Store
		style                    string
		brand, detail, info, doc sql.NullString
		images, keywords         string
		claimedAt, publishedAt   sql.NullString
	)
	err := row.Scan(&st.ID, &st.UserID, &st.StoreName, &st.SourceURL, &st.SourcePlatform, &style, &brand,
		&st.Status, &st.GenerationProgress, &st.StatusMessage, &detail, &info,
		&doc, &images, &st.SEOTitle, &st.SEODescription, &keywords,
		&st.Platform.StoreURL, &claimedAt, &st.CreatedAt, &st.UpdatedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	st.ThemeStyle = model.ThemeStyle(style)

	if brand.Valid && brand.String != "" {
		if err := json.Unmarshal([]byte(brand.String), &st.BrandColors); err != nil {
			return nil, fmt.Errorf("decode brand colors: %w", err)
		}
	}
	if detail.Valid {
		st.ErrorDetail = &detail.String
	}
	if info.Valid && info.String != "" {
		var ei model.ErrorInfo
		if err := json.Unmarshal([]byte(info.String), &ei); err != nil {
			return nil, fmt.Errorf("decode error info: %w", err)
		}
		st.ErrorInfo = &ei
	}
	if doc.Valid && doc.String != "" {
		var d model.StoreDocument
		if err := json.Unmarshal([]byte(doc.String), &d); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		st.Document = &d
	}
	if err := json.Unmarshal([]byte(images), &st.EnhancedImages); err != nil {
		return nil, fmt.Errorf("decode enhanced images: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &st.SEOKeywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if claimedAt.Valid {
		st.ClaimedAt = &claimedAt.String
	}
	if publishedAt.Valid {
		st.PublishedAt = &publishedAt.String
	}
	return &st, nil
}
