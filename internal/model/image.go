package model

// Enhancement kinds
const (
	EnhancementFull     = "full_enhancement"
	EnhancementFallback = "fallback_original"
)

// EnhancedImage is the outcome of the enhancement chain for one source image.
// EnhancedURL equal to OriginalURL means the image was returned unmodified.
type EnhancedImage struct {
	OriginalURL     string     `json:"original_url"`
	EnhancedURL     string     `json:"enhanced_url"`
	Style           ThemeStyle `json:"style"`
	ProcessingTime  float64    `json:"processing_time"`
	EnhancementKind string     `json:"enhancement_type"`
	PassesCompleted int        `json:"passes_completed"`
}

// Degraded reports whether the image is the unmodified original.
func (e EnhancedImage) Degraded() bool {
	return e.EnhancedURL == e.OriginalURL
}
