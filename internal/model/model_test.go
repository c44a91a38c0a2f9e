package model

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewStore(t *testing.T) {
	s := NewStore("id-1", "user-1", "Acme", "https://www.amazon.com/dp/B0001", "Luxury", nil, true)

	if s.ID != "id-1" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Status != StatusGenerating || s.GenerationProgress != 0 {
		t.Errorf("status = %q progress = %d, want generating/0", s.Status, s.GenerationProgress)
	}
	if s.ThemeStyle != StyleLuxury {
		t.Errorf("ThemeStyle = %q, want luxury", s.ThemeStyle)
	}
	if s.SourcePlatform != PlatformAmazon {
		t.Errorf("SourcePlatform = %q, want amazon", s.SourcePlatform)
	}
	if s.CreatedAt == "" || s.CreatedAt != s.UpdatedAt {
		t.Errorf("timestamps = %q / %q", s.CreatedAt, s.UpdatedAt)
	}
	if s.Document != nil {
		t.Error("Document should be nil")
	}
	if s.EnhancedImages == nil {
		t.Error("EnhancedImages should be an empty slice")
	}

	draft := NewStore("id-2", "user-1", "Acme", "https://shop.example.com/p/1", "", nil, false)
	if draft.Status != StatusDraft {
		t.Errorf("draft status = %q", draft.Status)
	}
	if draft.ThemeStyle != StyleModern {
		t.Errorf("draft style = %q, want modern", draft.ThemeStyle)
	}
	if draft.SourcePlatform != PlatformUnknown {
		t.Errorf("draft platform = %q", draft.SourcePlatform)
	}
}

func TestCanPublish(t *testing.T) {
	doc := &StoreDocument{}
	tests := []struct {
		name    string
		status  string
		doc     *StoreDocument
		wantErr bool
	}{
		{"completed with document", StatusCompleted, doc, false},
		{"published republish", StatusPublished, doc, false},
		{"generating rejected", StatusGenerating, doc, true},
		{"draft rejected", StatusDraft, nil, true},
		{"error rejected", StatusError, doc, true},
		{"completed without document", StatusCompleted, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{ID: "s", Status: tt.status, Document: tt.doc}
			if err := s.CanPublish(); (err != nil) != tt.wantErr {
				t.Errorf("CanPublish() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanQueueGeneration(t *testing.T) {
	for _, st := range []string{StatusDraft, StatusCompleted, StatusError, StatusPublished} {
		s := &Store{Status: st}
		if err := s.CanQueueGeneration(); err != nil {
			t.Errorf("%s: CanQueueGeneration() = %v", st, err)
		}
	}
	s := &Store{Status: StatusGenerating}
	if err := s.CanQueueGeneration(); err == nil {
		t.Error("generating store should not be queued again")
	}
}

func TestIsTerminal(t *testing.T) {
	tests := map[string]bool{
		StatusCompleted:  true,
		StatusError:      true,
		StatusPublished:  true,
		StatusGenerating: false,
		StatusDraft:      false,
	}
	for status, want := range tests {
		if got := (&Store{Status: status}).IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := map[string]string{
		"https://www.aliexpress.com/item/1005.html": PlatformAliExpress,
		"https://www.amazon.co.uk/dp/B01":           PlatformAmazon,
		"https://www.ebay.com/itm/123":              PlatformEbay,
		"https://www.bestbuy.com/site/abc":          PlatformBestBuy,
		"https://shop.example.com/widget":           PlatformUnknown,
		"::not a url":                               PlatformUnknown,
	}
	for url, want := range tests {
		if got := DetectPlatform(url); got != want {
			t.Errorf("DetectPlatform(%q) = %q, want %q", url, got, want)
		}
	}
	if got := DefaultCategory(PlatformBestBuy); got != "Electronics" {
		t.Errorf("DefaultCategory(bestbuy) = %q", got)
	}
	if got := DefaultCategory(PlatformAmazon); got != "General" {
		t.Errorf("DefaultCategory(amazon) = %q", got)
	}
}

func TestProductRecordHelpers(t *testing.T) {
	p := &ProductRecord{Features: []string{" a ", "", "b", "c"}, Category: "unknown"}
	if got := p.TopFeatures(2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("TopFeatures(2) = %v", got)
	}
	if got := p.CategoryOrDefault(); got != "General" {
		t.Errorf("CategoryOrDefault() = %q, want General", got)
	}
	p.Category = "Kitchen"
	if got := p.CategoryOrDefault(); got != "Kitchen" {
		t.Errorf("CategoryOrDefault() = %q, want Kitchen", got)
	}

	titles := map[string]string{
		"":         "Unknown Product",
		"  ":       "Unknown Product",
		" Bottle ": "Bottle",
	}
	for title, want := range titles {
		p.Title = title
		if got := p.TitleOrDefault(); got != want {
			t.Errorf("TitleOrDefault(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestDefaultsFor(t *testing.T) {
	modern := DefaultsFor(StyleModern)
	if modern.Colors["primary"] != "#3b82f6" || modern.Layout.ProductLayout != "grid" {
		t.Errorf("modern = %+v", modern)
	}
	if lux := DefaultsFor(StyleLuxury); lux.Fonts.Primary != "Playfair Display, serif" {
		t.Errorf("luxury font = %q", lux.Fonts.Primary)
	}
	if unknown := DefaultsFor("neon"); !reflect.DeepEqual(unknown.Colors, modern.Colors) {
		t.Errorf("unknown style colors = %v, want modern", unknown.Colors)
	}

	// Callers may mutate the returned map without affecting later lookups.
	modern.Colors["primary"] = "#000"
	if got := DefaultsFor(StyleModern).Colors["primary"]; got != "#3b82f6" {
		t.Errorf("defaults mutated: primary = %q", got)
	}
}

func TestNormalizeStyle(t *testing.T) {
	tests := map[string]ThemeStyle{
		" MINIMAL ":    StyleMinimal,
		"professional": StyleProfessional,
		"retro":        StyleModern,
	}
	for in, want := range tests {
		if got := NormalizeStyle(in); got != want {
			t.Errorf("NormalizeStyle(%q) = %q, want %q", in, got, want)
		}
	}
	if !IsValidStyle("luxury") || IsValidStyle("retro") {
		t.Error("IsValidStyle mismatch")
	}
}

func TestPagesGet(t *testing.T) {
	p := Pages{About: Page{Title: "About Us"}, FAQ: Page{Title: "FAQ"}}
	for _, key := range PageKeys {
		if _, ok := p.Get(key); !ok {
			t.Errorf("Get(%q) not found", key)
		}
	}
	if about, _ := p.Get(PageAbout); about.Title != "About Us" {
		t.Errorf("about title = %q", about.Title)
	}
	if _, ok := p.Get("blog"); ok {
		t.Error("Get(blog) should not exist")
	}
}

func TestErrorInfoToJSON(t *testing.T) {
	info := ErrorInfo{
		FailedStep: "extract",
		Message:    "timeout",
		Retryable:  true,
		FailedAt:   "2026-01-01T00:00:00Z",
	}
	j := info.ToJSON()
	if !strings.Contains(j, `"failed_step":"extract"`) {
		t.Fatalf("ToJSON() = %q", j)
	}

	fresh := NewErrorInfo("assemble", "boom")
	if fresh.FailedAt == "" || !fresh.Retryable {
		t.Errorf("NewErrorInfo = %+v", fresh)
	}
}

func TestSynthesizedContentUsedFallback(t *testing.T) {
	c := SynthesizedContent{FallbackFields: []string{FieldSEO}}
	if !c.UsedFallback(FieldSEO) || c.UsedFallback(FieldFAQ) {
		t.Errorf("UsedFallback mismatch for %v", c.FallbackFields)
	}
}
