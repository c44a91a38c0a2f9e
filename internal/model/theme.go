package model

import "strings"

// ThemeStyle is the visual style vocabulary shared by theming and image prompts.
type ThemeStyle string

// Theme styles
const (
	StyleModern       ThemeStyle = "modern"
	StyleLuxury       ThemeStyle = "luxury"
	StyleMinimal      ThemeStyle = "minimal"
	StyleProfessional ThemeStyle = "professional"
)

// ThemeStyles lists every supported style.
var ThemeStyles = []ThemeStyle{StyleModern, StyleLuxury, StyleMinimal, StyleProfessional}

// NormalizeStyle maps free text onto the style vocabulary; unknown values become modern.
func NormalizeStyle(s string) ThemeStyle {
	switch ThemeStyle(strings.ToLower(strings.TrimSpace(s))) {
	case StyleLuxury:
		return StyleLuxury
	case StyleMinimal:
		return StyleMinimal
	case StyleProfessional:
		return StyleProfessional
	default:
		return StyleModern
	}
}

// IsValidStyle reports whether s is part of the style vocabulary.
func IsValidStyle(s string) bool {
	for _, st := range ThemeStyles {
		if string(st) == s {
			return true
		}
	}
	return false
}

// ThemeFonts is the font pairing of a theme.
type ThemeFonts struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// ThemeLayout is the layout preset of a theme.
type ThemeLayout struct {
	HeaderStyle   string `json:"header_style"`
	ProductLayout string `json:"product_layout"`
	Spacing       string `json:"spacing"`
}

// ThemeDefaults is the full default configuration of one style.
type ThemeDefaults struct {
	Colors map[string]string
	Fonts  ThemeFonts
	Layout ThemeLayout
}

// DefaultsFor returns the default theme configuration for a style.
// A fresh color map is returned on every call.
func DefaultsFor(style ThemeStyle) ThemeDefaults {
	switch NormalizeStyle(string(style)) {
	case StyleLuxury:
		return ThemeDefaults{
			Colors: palette("#1f2937", "#d97706", "#92400e", "#f9fafb", "#111827"),
			Fonts:  ThemeFonts{Primary: "Playfair Display, serif", Secondary: "Source Sans Pro, sans-serif"},
			Layout: ThemeLayout{HeaderStyle: "elegant", ProductLayout: "showcase", Spacing: "spacious"},
		}
	case StyleMinimal:
		return ThemeDefaults{
			Colors: palette("#000000", "#6b7280", "#9ca3af", "#ffffff", "#374151"),
			Fonts:  ThemeFonts{Primary: "Helvetica Neue, sans-serif", Secondary: "Arial, sans-serif"},
			Layout: ThemeLayout{HeaderStyle: "simple", ProductLayout: "minimal", Spacing: "tight"},
		}
	case StyleProfessional:
		return ThemeDefaults{
			Colors: palette("#1e3a8a", "#475569", "#0ea5e9", "#ffffff", "#0f172a"),
			Fonts:  ThemeFonts{Primary: "Roboto, sans-serif", Secondary: "Open Sans, sans-serif"},
			Layout: ThemeLayout{HeaderStyle: "corporate", ProductLayout: "grid", Spacing: "comfortable"},
		}
	default:
		return ThemeDefaults{
			Colors: palette("#3b82f6", "#64748b", "#f59e0b", "#ffffff", "#1f2937"),
			Fonts:  ThemeFonts{Primary: "Inter, sans-serif", Secondary: "System UI, sans-serif"},
			Layout: ThemeLayout{HeaderStyle: "clean", ProductLayout: "grid", Spacing: "comfortable"},
		}
	}
}

func palette(primary, secondary, accent, background, text string) map[string]string {
	return map[string]string{
		"primary":    primary,
		"secondary":  secondary,
		"accent":     accent,
		"background": background,
		"text":       text,
	}
}
