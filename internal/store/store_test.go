package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yangwenmai/storeforge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func makeStore(id string, queue bool) model.Store {
	return model.NewStore(id, "user-1", "Store "+id, "https://www.amazon.com/dp/"+id, model.StyleModern,
		map[string]string{"primary": "#112233"}, queue)
}

func mustCreate(t *testing.T, s *Store, st model.Store) {
	t.Helper()
	if err := s.CreateStore(context.Background(), st); err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
}

func sampleResult() model.GenerationResult {
	return model.GenerationResult{
		Document: model.StoreDocument{
			StoreName: "Acme",
			Product:   model.ProductSection{Title: "Widget"},
			Pages:     model.Pages{About: model.Page{Title: "About Us", Content: "hi"}},
		},
		EnhancedImages: []model.EnhancedImage{{OriginalURL: "a", EnhancedURL: "b", EnhancementKind: model.EnhancementFull}},
		SEOTitle:       "Widget - Acme",
		SEODescription: "desc",
		SEOKeywords:    []string{"widget"},
	}
}

func TestCreateAndGetStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))

	got, err := s.GetStore(ctx, "s1")
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if got.Status != model.StatusGenerating {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusGenerating)
	}
	if got.SourcePlatform != model.PlatformAmazon {
		t.Errorf("SourcePlatform = %q", got.SourcePlatform)
	}
	if got.BrandColors["primary"] != "#112233" {
		t.Errorf("BrandColors = %v", got.BrandColors)
	}
	if got.Document != nil {
		t.Error("Document should be nil before generation")
	}
	if len(got.EnhancedImages) != 0 {
		t.Errorf("EnhancedImages len = %d, want 0", len(got.EnhancedImages))
	}
}

func TestGetStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetStore(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_, err = s.GetProgress(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProgress err = %v, want ErrNotFound", err)
	}
}

func TestListStores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("a", true))
	mustCreate(t, s, makeStore("b", false))
	other := makeStore("c", false)
	other.UserID = "user-2"
	mustCreate(t, s, other)

	all, err := s.ListStores(ctx, model.StoreFilter{})
	if err != nil {
		t.Fatalf("ListStores: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}

	mine, _ := s.ListStores(ctx, model.StoreFilter{UserID: "user-1"})
	if len(mine) != 2 {
		t.Errorf("user filter len = %d, want 2", len(mine))
	}

	drafts, _ := s.ListStores(ctx, model.StoreFilter{Status: []string{model.StatusDraft}})
	if len(drafts) != 2 {
		t.Errorf("status filter len = %d, want 2", len(drafts))
	}
}

func TestQueueGeneration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("draft", false))
	mustCreate(t, s, makeStore("busy", true))

	if err := s.QueueGeneration(ctx, "draft"); err != nil {
		t.Fatalf("QueueGeneration: %v", err)
	}
	got, _ := s.GetStore(ctx, "draft")
	if got.Status != model.StatusGenerating || got.GenerationProgress != 0 {
		t.Errorf("got status=%q progress=%d", got.Status, got.GenerationProgress)
	}

	if err := s.QueueGeneration(ctx, "busy"); !errors.Is(err, ErrConflict) {
		t.Errorf("busy err = %v, want ErrConflict", err)
	}
	if err := s.QueueGeneration(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

func TestClaimNextGeneration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))
	mustCreate(t, s, makeStore("draft", false))

	claimed, err := s.ClaimNextGeneration(ctx)
	if err != nil {
		t.Fatalf("ClaimNextGeneration: %v", err)
	}
	if claimed == nil || claimed.ID != "s1" {
		t.Fatalf("claimed = %+v, want s1", claimed)
	}
	if claimed.ClaimedAt == nil {
		t.Error("ClaimedAt should be set")
	}

	again, err := s.ClaimNextGeneration(ctx)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if again != nil {
		t.Errorf("second claim = %s, want nil", again.ID)
	}
}

func TestResetStaleGeneration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))
	if _, err := s.ClaimNextGeneration(ctx); err != nil {
		t.Fatal(err)
	}
	_ = s.UpdateProgress(ctx, "s1", 50, "Enhancing product images...")

	n, err := s.ResetStaleGeneration(ctx)
	if err != nil {
		t.Fatalf("ResetStaleGeneration: %v", err)
	}
	if n != 1 {
		t.Errorf("reset = %d, want 1", n)
	}
	got, _ := s.GetStore(ctx, "s1")
	if got.ClaimedAt != nil || got.GenerationProgress != 0 {
		t.Errorf("claimed=%v progress=%d", got.ClaimedAt, got.GenerationProgress)
	}
	claimed, _ := s.ClaimNextGeneration(ctx)
	if claimed == nil {
		t.Error("store should be claimable again")
	}
}

func TestUpdateProgress_Monotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))

	_ = s.UpdateProgress(ctx, "s1", 50, "Enhancing product images...")
	_ = s.UpdateProgress(ctx, "s1", 25, "late write")

	p, err := s.GetProgress(ctx, "s1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.GenerationProgress != 50 {
		t.Errorf("progress = %d, want 50", p.GenerationProgress)
	}
	if p.StatusMessage != "late write" {
		t.Errorf("message = %q", p.StatusMessage)
	}
}

func TestUpdateProgress_IgnoresNonGenerating(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("d", false))

	_ = s.UpdateProgress(ctx, "d", 75, "Building store structure...")
	p, _ := s.GetProgress(ctx, "d")
	if p.GenerationProgress != 0 {
		t.Errorf("progress = %d, want 0", p.GenerationProgress)
	}
}

func TestMarkError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))
	_ = s.UpdateProgress(ctx, "s1", 10, "Scraping product data...")

	info := model.NewErrorInfo("extract", "product not found")
	if err := s.MarkError(ctx, "s1", "product not found", info); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	got, _ := s.GetStore(ctx, "s1")
	if got.Status != model.StatusError {
		t.Errorf("Status = %q, want error", got.Status)
	}
	if got.GenerationProgress != 10 {
		t.Errorf("progress = %d, want 10", got.GenerationProgress)
	}
	if got.ErrorDetail == nil || *got.ErrorDetail != "product not found" {
		t.Errorf("ErrorDetail = %v", got.ErrorDetail)
	}
	if got.ErrorInfo == nil || got.ErrorInfo.FailedStep != "extract" {
		t.Errorf("ErrorInfo = %+v", got.ErrorInfo)
	}
	if got.Document != nil {
		t.Error("Document should stay empty on error")
	}

	// Requeueing clears the error.
	if err := s.QueueGeneration(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetStore(ctx, "s1")
	if got.ErrorDetail != nil || got.ErrorInfo != nil {
		t.Error("error fields should be cleared on requeue")
	}
}

func TestSaveGenerated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))

	if err := s.SaveGenerated(ctx, "s1", sampleResult()); err != nil {
		t.Fatalf("SaveGenerated: %v", err)
	}
	got, _ := s.GetStore(ctx, "s1")
	if got.Status != model.StatusCompleted || got.GenerationProgress != 100 {
		t.Errorf("status=%q progress=%d", got.Status, got.GenerationProgress)
	}
	if got.Document == nil || got.Document.Product.Title != "Widget" {
		t.Fatalf("Document = %+v", got.Document)
	}
	if got.Document.Pages.About.Content != "hi" {
		t.Errorf("about content = %q", got.Document.Pages.About.Content)
	}
	if len(got.EnhancedImages) != 1 || got.EnhancedImages[0].EnhancementKind != model.EnhancementFull {
		t.Errorf("EnhancedImages = %+v", got.EnhancedImages)
	}
	if got.SEOTitle != "Widget - Acme" || len(got.SEOKeywords) != 1 {
		t.Errorf("seo = %q %v", got.SEOTitle, got.SEOKeywords)
	}

	// A second save on a non-generating store is a conflict.
	if err := s.SaveGenerated(ctx, "s1", sampleResult()); !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestPlatformObjectsAndPublish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", true))

	if err := s.MarkPublished(ctx, "s1", "https://x.myshopify.com"); !errors.Is(err, ErrConflict) {
		t.Errorf("publish while generating err = %v, want ErrConflict", err)
	}

	if err := s.SaveGenerated(ctx, "s1", sampleResult()); err != nil {
		t.Fatal(err)
	}
	_ = s.SavePlatformObject(ctx, "s1", ObjectProduct, "main", "111")
	_ = s.SavePlatformObject(ctx, "s1", ObjectPage, model.PageAbout, "201")
	_ = s.SavePlatformObject(ctx, "s1", ObjectPage, model.PageAbout, "202")

	if err := s.MarkPublished(ctx, "s1", "https://x.myshopify.com"); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	got, _ := s.GetStore(ctx, "s1")
	if got.Status != model.StatusPublished || got.PublishedAt == nil {
		t.Errorf("status=%q published_at=%v", got.Status, got.PublishedAt)
	}
	if got.Platform.StoreURL != "https://x.myshopify.com" {
		t.Errorf("StoreURL = %q", got.Platform.StoreURL)
	}
	if got.Platform.ProductID != "111" {
		t.Errorf("ProductID = %q", got.Platform.ProductID)
	}
	if got.Platform.PageIDs[model.PageAbout] != "202" {
		t.Errorf("PageIDs = %v", got.Platform.PageIDs)
	}

	// Republishing a published store is allowed.
	if err := s.MarkPublished(ctx, "s1", "https://x.myshopify.com"); err != nil {
		t.Errorf("republish: %v", err)
	}
}

func TestDeleteStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, makeStore("s1", false))
	_ = s.SavePlatformObject(ctx, "s1", ObjectProduct, "main", "1")

	if err := s.DeleteStore(ctx, "s1"); err != nil {
		t.Fatalf("DeleteStore: %v", err)
	}
	if _, err := s.GetStore(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v", err)
	}
	if err := s.DeleteStore(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := New(db); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(db); err != nil {
		t.Fatalf("second New: %v", err)
	}
}
