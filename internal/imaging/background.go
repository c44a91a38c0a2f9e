package imaging

import (
	"context"
	"log/slog"

	"github.com/yangwenmai/storeforge/internal/model"
)

// GenerateBrandedBackground renders a text-only background in the brand
// colors. Any failure yields PlaceholderBackground.
func (e *Enhancer) GenerateBrandedBackground(ctx context.Context, colors map[string]string, style model.ThemeStyle) string {
	id, err := e.jobs.SubmitJob(ctx, backgroundRequest(colors, style))
	if err != nil {
		slog.Warn("background submit failed", "style", style, "error", err)
		return PlaceholderBackground(colors)
	}
	url, err := e.poller.Wait(ctx, e.jobs, id)
	if err != nil {
		slog.Warn("background generation failed", "style", style, "job", id, "error", err)
		return PlaceholderBackground(colors)
	}
	return url
}
