package imaging

import (
	"fmt"
	"strings"

	"github.com/yangwenmai/storeforge/internal/model"
)

// Pass identifies one stage of the per-image chain.
type Pass string

// Passes in chain order.
const (
	PassQuality          Pass = "quality"
	PassRemoveBackground Pass = "remove_background"
	PassStyle            Pass = "style"
)

const imageSize = 1024

// StylePrompt maps a theme style onto a photography prompt.
func StylePrompt(style model.ThemeStyle) string {
	switch model.NormalizeStyle(string(style)) {
	case model.StyleLuxury:
		return "luxury product photography, premium quality, elegant styling, sophisticated lighting, high-end commercial"
	case model.StyleMinimal:
		return "minimalist product photo, simple clean background, soft lighting, zen aesthetic"
	case model.StyleProfessional:
		return "professional commercial photography, studio lighting, corporate style, business quality"
	default:
		return "modern minimalist product photography, clean lines, contemporary style, professional lighting"
	}
}

// passRequest builds the job for one pass over image bytes.
func passRequest(pass Pass, style model.ThemeStyle, img []byte, sourceURL string) JobRequest {
	req := JobRequest{
		Width:     imageSize,
		Height:    imageSize,
		InitImage: img,
		SourceURL: sourceURL,
	}
	switch pass {
	case PassQuality:
		req.Prompt = "high quality product photo, professional lighting, clean background, commercial photography style"
		req.NegativePrompt = "blurry, low quality, pixelated, distorted, watermark, text"
		req.GuidanceScale = 7
		req.PresetStyle = "PHOTOGRAPHY"
		req.InitStrength = 0.3
	case PassRemoveBackground:
		req.Prompt = "product on transparent background, isolated object, clean cutout, white background"
		req.NegativePrompt = "busy background, cluttered, multiple objects, text, watermark"
		req.GuidanceScale = 8
		req.PresetStyle = "NONE"
		req.InitStrength = 0.5
	case PassStyle:
		req.Prompt = StylePrompt(style) + ", high resolution, sharp details, commercial quality"
		req.NegativePrompt = "blurry, low quality, amateur, poor lighting, distorted"
		req.GuidanceScale = 6
		req.PresetStyle = "PHOTOGRAPHY"
		req.InitStrength = 0.2
	}
	return req
}

// Default brand colors for background generation.
const (
	defaultPrimary   = "#ffffff"
	defaultSecondary = "#f8f9fa"
)

func brandPair(colors map[string]string) (primary, secondary string) {
	primary, secondary = colors["primary"], colors["secondary"]
	if primary == "" {
		primary = defaultPrimary
	}
	if secondary == "" {
		secondary = defaultSecondary
	}
	return primary, secondary
}

func backgroundRequest(colors map[string]string, style model.ThemeStyle) JobRequest {
	p, s := brandPair(colors)
	var desc string
	switch model.NormalizeStyle(string(style)) {
	case model.StyleLuxury:
		desc = fmt.Sprintf("luxury background, elegant texture, premium feel, %s and %s color scheme", p, s)
	case model.StyleMinimal:
		desc = fmt.Sprintf("minimal clean background, simple gradient, %s to %s", p, s)
	case model.StyleProfessional:
		desc = fmt.Sprintf("professional business background, corporate style, %s and %s", p, s)
	default:
		desc = fmt.Sprintf("modern abstract background, geometric shapes, gradient from %s to %s", p, s)
	}
	return JobRequest{
		Prompt:         desc + ", high quality, clean, professional",
		NegativePrompt: "busy, cluttered, text, logos, watermarks, people, objects",
		Width:          imageSize,
		Height:         imageSize,
		GuidanceScale:  7,
		PresetStyle:    "NONE",
	}
}

// PlaceholderBackground is the deterministic background used when generation fails.
func PlaceholderBackground(colors map[string]string) string {
	p, s := brandPair(colors)
	return fmt.Sprintf("https://via.placeholder.com/1024x1024/%s/%s",
		strings.TrimPrefix(p, "#"), strings.TrimPrefix(s, "#"))
}
