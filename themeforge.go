// Package themeforge provides the design document at the heart of the
// configurator: the set of tokens (colors, typography, spacing, layout mode
// and copy) that every preview, export and persistence backend consumes.
package themeforge

import "strings"

// StorageKey is the fixed slot the current document is persisted under.
const StorageKey = "design-document"

// FontFamily names one of the selectable typefaces.
type FontFamily string

const (
	FontSans     FontFamily = "sans"
	FontSerif    FontFamily = "serif"
	FontMono     FontFamily = "mono"
	FontInter    FontFamily = "Inter"
	FontPlayfair FontFamily = "Playfair Display"
	FontRoboto   FontFamily = "Roboto"
	FontLato     FontFamily = "Lato"
)

// FontFamilies lists the selectable typefaces in display order.
var FontFamilies = []FontFamily{FontSans, FontSerif, FontMono, FontInter, FontPlayfair, FontRoboto, FontLato}

// Radius names a border radius token.
type Radius string

const (
	RadiusNone Radius = "none"
	RadiusSm   Radius = "sm"
	RadiusMd   Radius = "md"
	RadiusLg   Radius = "lg"
	RadiusFull Radius = "full"
)

// Radii lists the border radius tokens from sharpest to roundest.
var Radii = []Radius{RadiusNone, RadiusSm, RadiusMd, RadiusLg, RadiusFull}

// LayoutMode selects which preview template consumes the document.
type LayoutMode string

const (
	LayoutLanding   LayoutMode = "landing"
	LayoutDashboard LayoutMode = "dashboard"
	LayoutEcommerce LayoutMode = "ecommerce"
	LayoutBlog      LayoutMode = "blog"
	LayoutPortfolio LayoutMode = "portfolio"
)

// LayoutModes lists every layout in display order.
var LayoutModes = []LayoutMode{LayoutLanding, LayoutDashboard, LayoutEcommerce, LayoutBlog, LayoutPortfolio}

// IsValid reports whether m is one of the known layouts.
func (m LayoutMode) IsValid() bool {
	for _, known := range LayoutModes {
		if m == known {
			return true
		}
	}
	return false
}

// Document is the design document. It is a value type: edits produce a new
// Document instead of mutating an existing one, and two documents are equal
// exactly when all their fields are equal.
//
// Field values are deliberately not validated. Colors are any string and
// numeric fields may fall outside the ranges the editor controls offer;
// renderers use them literally.
type Document struct {
	PrimaryColor   string     `json:"primaryColor" yaml:"primaryColor"`
	SecondaryColor string     `json:"secondaryColor" yaml:"secondaryColor"`
	FontFamily     FontFamily `json:"fontFamily" yaml:"fontFamily"`
	BorderRadius   Radius     `json:"borderRadius" yaml:"borderRadius"`
	LayoutMode     LayoutMode `json:"layoutMode" yaml:"layoutMode"`
	BaseFontSize   int        `json:"baseFontSize" yaml:"baseFontSize"`
	HeadingText    string     `json:"headingText" yaml:"headingText"`
	SubheadingText string     `json:"subheadingText" yaml:"subheadingText"`
	BodyText       string     `json:"bodyText" yaml:"bodyText"`
	GridColumns    int        `json:"gridColumns" yaml:"gridColumns"`
	GridGap        int        `json:"gridGap" yaml:"gridGap"`
	DarkMode       bool       `json:"darkMode" yaml:"darkMode"`
}

// Default returns the document a fresh session starts from.
func Default() Document {
	return Document{
		PrimaryColor:   "#3B82F6",
		SecondaryColor: "#10B981",
		FontFamily:     FontInter,
		BorderRadius:   RadiusMd,
		LayoutMode:     LayoutLanding,
		BaseFontSize:   16,
		HeadingText:    "Build **faster** with *style*",
		SubheadingText: "Design tokens that adapt to every layout you can imagine.",
		BodyText:       "Adjust colors, typography and spacing on the left and watch every page update. Use **bold** and *italic* markers to highlight copy.",
		GridColumns:    3,
		GridGap:        24,
		DarkMode:       false,
	}
}

// Equal reports deep value equality.
func (d Document) Equal(other Document) bool {
	return d == other
}

// DisplayColor upper-cases a color for display. The stored value is untouched.
func DisplayColor(c string) string {
	return strings.ToUpper(c)
}
