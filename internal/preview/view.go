// Package preview binds a design document to one of the five layout
// templates. Build is pure data binding; the templates only arrange what the
// View already carries.
package preview

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/richtext"
)

// CSSVar is one custom property set on the preview root.
type CSSVar struct {
	Name  string
	Value string
}

// Item is one repeated card in a layout grid.
type Item struct {
	Index   int
	Title   string
	Caption string
	Value   string
}

// View is everything a layout template reads.
type View struct {
	Mode     themeforge.LayoutMode
	Document themeforge.Document

	Vars      []CSSVar
	Radius    string
	FontStack string
	Monospace bool

	Heading    []richtext.Segment
	Subheading []richtext.Segment
	Body       []richtext.Segment

	Items []Item
}

// Build binds doc to the layout mode. An unknown mode binds as landing.
func Build(doc themeforge.Document, mode themeforge.LayoutMode) View {
	if !mode.IsValid() {
		mode = themeforge.LayoutLanding
	}

	radius := themeforge.RadiusValue(doc.BorderRadius)
	stack := themeforge.FontStack(doc.FontFamily)

	return View{
		Mode:     mode,
		Document: doc,
		Vars: []CSSVar{
			{"--primary", doc.PrimaryColor},
			{"--secondary", doc.SecondaryColor},
			{"--radius", radius},
			{"--font", stack},
			{"--base-size", strconv.Itoa(doc.BaseFontSize) + "px"},
			{"--grid-gap", strconv.Itoa(doc.GridGap) + "px"},
			{"--grid-columns", strconv.Itoa(doc.GridColumns)},
		},
		Radius:     radius,
		FontStack:  stack,
		Monospace:  themeforge.IsMonospace(doc.FontFamily),
		Heading:    richtext.Parse(doc.HeadingText),
		Subheading: richtext.Parse(doc.SubheadingText),
		Body:       richtext.Parse(doc.BodyText),
		Items:      items(mode, doc.GridColumns),
	}
}

// ItemCount returns how many grid items the layout shows for the given
// column count: at least three for feature, stat and post grids, two rows
// for product and project grids.
func ItemCount(mode themeforge.LayoutMode, gridColumns int) int {
	switch mode {
	case themeforge.LayoutEcommerce, themeforge.LayoutPortfolio:
		return max(0, gridColumns*2)
	default:
		return max(3, gridColumns)
	}
}

var (
	featureNames = []string{"Lightning fast", "Fully responsive", "Accessible", "Themeable"}
	statNames    = []string{"Revenue", "Active users", "Conversion", "Retention"}
	statValues   = []string{"$48.2k", "2,340", "3.8%", "91%"}
)

func items(mode themeforge.LayoutMode, gridColumns int) []Item {
	n := ItemCount(mode, gridColumns)
	out := make([]Item, n)
	for i := range out {
		out[i] = item(mode, i)
	}
	return out
}

func item(mode themeforge.LayoutMode, i int) Item {
	it := Item{Index: i + 1}
	switch mode {
	case themeforge.LayoutDashboard:
		it.Title = statNames[i%len(statNames)]
		it.Value = statValues[i%len(statValues)]
		it.Caption = fmt.Sprintf("+%d.%d%% this week", i+1, (i*7)%10)
	case themeforge.LayoutEcommerce:
		it.Title = fmt.Sprintf("Product %d", i+1)
		it.Value = fmt.Sprintf("$%d.00", 19+i*10)
		it.Caption = "Free shipping"
	case themeforge.LayoutBlog:
		it.Title = fmt.Sprintf("Post title %d", i+1)
		it.Caption = fmt.Sprintf("%d min read", 3+i)
	case themeforge.LayoutPortfolio:
		it.Title = fmt.Sprintf("Project %d", i+1)
		it.Caption = "Brand identity"
	default:
		it.Title = featureNames[i%len(featureNames)]
		it.Caption = "Everything you need, nothing you don't."
	}
	return it
}

// Style returns the custom properties as an inline style attribute value.
// Document values are written literally, minus characters that could end
// the declaration.
func (v View) Style() template.CSS {
	var b strings.Builder
	for i, cv := range v.Vars {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(cv.Name)
		b.WriteString(": ")
		b.WriteString(cssValue(cv.Value))
		b.WriteByte(';')
	}
	return template.CSS(b.String())
}

// Var returns the value of the named custom property.
func (v View) Var(name string) string {
	for _, cv := range v.Vars {
		if cv.Name == name {
			return cv.Value
		}
	}
	return ""
}

// cssValue drops characters that would let a value escape its declaration.
func cssValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
