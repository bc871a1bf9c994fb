package themeforge

// radiusTokens maps radius names to CSS lengths.
var radiusTokens = map[Radius]string{
	RadiusNone: "0px",
	RadiusSm:   "4px",
	RadiusMd:   "8px",
	RadiusLg:   "16px",
	RadiusFull: "9999px",
}

const sansStack = `ui-sans-serif, system-ui, -apple-system, "Segoe UI", sans-serif`

// fontStacks maps family names to CSS font stacks.
var fontStacks = map[FontFamily]string{
	FontSans:     sansStack,
	FontSerif:    `ui-serif, Georgia, Cambria, "Times New Roman", serif`,
	FontMono:     `ui-monospace, SFMono-Regular, Menlo, Consolas, monospace`,
	FontInter:    `"Inter", ` + sansStack,
	FontPlayfair: `"Playfair Display", Georgia, serif`,
	FontRoboto:   `"Roboto", ` + sansStack,
	FontLato:     `"Lato", ` + sansStack,
}

// RadiusValue returns the CSS length for r. Unknown names resolve to the md token.
func RadiusValue(r Radius) string {
	if v, ok := radiusTokens[r]; ok {
		return v
	}
	return radiusTokens[RadiusMd]
}

// FontStack returns the CSS font stack for f, falling back to the sans stack
// for names outside the known set.
func FontStack(f FontFamily) string {
	if v, ok := fontStacks[f]; ok {
		return v
	}
	return sansStack
}

// IsMonospace reports whether f renders with a fixed-width face.
func IsMonospace(f FontFamily) bool {
	return f == FontMono
}

// IsSerif reports whether f renders with a serif face.
func IsSerif(f FontFamily) bool {
	return f == FontSerif || f == FontPlayfair
}
