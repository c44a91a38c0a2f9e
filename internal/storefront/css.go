package storefront

import (
	"bytes"
	"regexp"
	"text/template"

	"github.com/yangwenmai/storeforge/internal/model"
)

// ThemeAssetKey is where the generated stylesheet lives in the platform theme.
const ThemeAssetKey = "assets/storeforge.css"

var cssTmpl = template.Must(template.New("css").Parse(`:root {
  --sf-primary: {{.Primary}};
  --sf-secondary: {{.Secondary}};
  --sf-accent: {{.Accent}};
  --sf-background: {{.Background}};
  --sf-text: {{.Text}};
  --sf-font-primary: {{.FontPrimary}};
  --sf-font-secondary: {{.FontSecondary}};
  --sf-spacing: {{.Spacing}};
}
body { background: var(--sf-background); color: var(--sf-text); font-family: var(--sf-font-secondary); }
h1, h2, h3 { font-family: var(--sf-font-primary); color: var(--sf-primary); }
.button, button[type="submit"] { background: var(--sf-accent); color: var(--sf-background); }
.faq-item h3 { color: var(--sf-secondary); }
`))

var spacing = map[string]string{"tight": "0.75rem", "comfortable": "1.25rem", "spacious": "2rem"}

var cssValue = regexp.MustCompile(`^[#a-zA-Z0-9 ,.\-()%]*$`)

// ThemeCSS renders CSS custom properties for a theme block. Values that could
// break out of a declaration are replaced by the style defaults.
func ThemeCSS(t model.ThemeSection) string {
	def := model.DefaultsFor(t.Style)
	pick := func(v, fallback string) string {
		if v == "" || !cssValue.MatchString(v) {
			return fallback
		}
		return v
	}
	color := func(k string) string { return pick(t.Colors[k], def.Colors[k]) }

	sp, ok := spacing[t.Layout.Spacing]
	if !ok {
		sp = spacing["comfortable"]
	}

	var buf bytes.Buffer
	_ = cssTmpl.Execute(&buf, map[string]string{
		"Primary":       color("primary"),
		"Secondary":     color("secondary"),
		"Accent":        color("accent"),
		"Background":    color("background"),
		"Text":          color("text"),
		"FontPrimary":   pick(t.Fonts.Primary, def.Fonts.Primary),
		"FontSecondary": pick(t.Fonts.Secondary, def.Fonts.Secondary),
		"Spacing":       sp,
	})
	return buf.String()
}
