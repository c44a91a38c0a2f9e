package publish

import (
	"context"
	"fmt"

	"github.com/yangwenmai/storeforge/internal/commerce"
	"github.com/yangwenmai/storeforge/internal/storefront"
)

// ApplyTheme writes the document's theme as a stylesheet into the shop's
// main theme. Same gate as Publish.
func (p *Publisher) ApplyTheme(ctx context.Context, storeID string) (int64, error) {
	st, err := p.repo.GetStore(ctx, storeID)
	if err != nil {
		return 0, err
	}
	if err := st.CanPublish(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPublishable, err)
	}

	theme, err := p.platform.MainTheme(ctx)
	if err != nil {
		return 0, err
	}
	asset := commerce.Asset{Key: storefront.ThemeAssetKey, Value: storefront.ThemeCSS(st.Document.Theme)}
	if err := p.platform.UpdateThemeAsset(ctx, theme.ID, asset); err != nil {
		return 0, err
	}
	return theme.ID, nil
}
