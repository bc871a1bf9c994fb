package export

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/preview"
	"github.com/livetemplate/themeforge/internal/richtext"
)

// A4 in millimetres.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 20.0
	pxToMM     = 0.2645833
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// fill resolves a document color. Values that are not hex colors draw gray.
func fill(c string) color.RGBA {
	if !hexColor.MatchString(c) {
		return canvas.Hex("#9CA3AF")
	}
	return canvas.Hex(c)
}

type sheetFonts struct {
	regular *canvas.FontFamily
	mono    *canvas.FontFamily
}

func loadSheetFonts() (*sheetFonts, error) {
	regular := canvas.NewFontFamily("themeforge-sans")
	if err := regular.LoadFont(goregular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	if err := regular.LoadFont(gobold.TTF, 0, canvas.FontBold); err != nil {
		return nil, err
	}
	mono := canvas.NewFontFamily("themeforge-mono")
	if err := mono.LoadFont(gomono.TTF, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	return &sheetFonts{regular: regular, mono: mono}, nil
}

// StyleSheetPDF draws a one-page style sheet: swatches, radius, type and grid.
func (e *Exporter) StyleSheetPDF(doc themeforge.Document) ([]byte, error) {
	fonts, err := loadSheetFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, pageWidth, pageHeight, nil)
	writer.SetInfo(e.opts.Title, "Design style sheet", "design tokens, theme", "", "themeforge")

	c := canvas.New(pageWidth, pageHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	s := &sheet{ctx: ctx, fonts: fonts, y: margin}
	s.drawSheet(e.opts.Title, doc)

	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// sheet tracks the vertical cursor while drawing.
type sheet struct {
	ctx   *canvas.Context
	fonts *sheetFonts
	y     float64
}

func (s *sheet) text(x float64, size float64, style canvas.FontStyle, col string, str string) {
	face := s.fonts.regular.Face(size, canvas.Hex(col), style, canvas.FontNormal)
	s.ctx.DrawText(x, s.y, canvas.NewTextLine(face, str, canvas.Left))
}

func (s *sheet) mono(x float64, size float64, str string) {
	face := s.fonts.mono.Face(size, canvas.Hex("#374151"), canvas.FontRegular, canvas.FontNormal)
	s.ctx.DrawText(x, s.y, canvas.NewTextLine(face, str, canvas.Left))
}

func (s *sheet) heading(str string) {
	s.y += 12
	s.text(margin, 14, canvas.FontBold, "#111827", str)
	s.y += 6
}

func (s *sheet) drawSheet(title string, doc themeforge.Document) {
	s.y += 6
	s.text(margin, 24, canvas.FontBold, "#111827", title)
	s.y += 8
	s.text(margin, 10, canvas.FontRegular, "#6B7280", "Layout: "+string(doc.LayoutMode)+"   Dark mode: "+strconv.FormatBool(doc.DarkMode))

	s.heading("Colors")
	s.swatch(margin, "Primary", doc.PrimaryColor)
	s.swatch(margin+60, "Secondary", doc.SecondaryColor)
	s.y += 32

	s.heading("Border radius")
	radius := themeforge.RadiusValue(doc.BorderRadius)
	r := radiusMM(radius, 30, 18)
	s.ctx.SetFillColor(fill(doc.PrimaryColor))
	s.ctx.DrawPath(margin, s.y, canvas.RoundedRectangle(30, 18, r))
	s.y += 24
	s.mono(margin, 9, string(doc.BorderRadius)+" = "+radius)

	s.heading("Typography")
	s.mono(margin, 9, string(doc.FontFamily)+" / "+themeforge.FontStack(doc.FontFamily))
	s.y += 6
	s.mono(margin, 9, "base size "+strconv.Itoa(doc.BaseFontSize)+"px")
	s.y += 10
	s.richLine(richtext.Parse(doc.HeadingText), 18, doc)
	s.y += 8
	s.richLine(richtext.Parse(doc.SubheadingText), 12, doc)
	s.y += 7
	for _, line := range wrap(richtext.PlainText(doc.BodyText), 90) {
		s.text(margin, 10, canvas.FontRegular, "#374151", line)
		s.y += 5
	}

	s.heading("Grid")
	s.mono(margin, 9, strconv.Itoa(doc.GridColumns)+" columns, "+strconv.Itoa(doc.GridGap)+"px gap")
	s.y += 4
	s.grid(doc)
}

func (s *sheet) swatch(x float64, label, value string) {
	s.ctx.SetFillColor(fill(value))
	s.ctx.DrawPath(x, s.y, canvas.Rectangle(50, 20))
	saved := s.y
	s.y += 26
	s.text(x, 10, canvas.FontBold, "#111827", label)
	s.y += 5
	s.mono(x, 9, themeforge.DisplayColor(value))
	s.y = saved
}

// richLine draws segments on one line: bold in the primary color, italic in
// the secondary color.
func (s *sheet) richLine(segments []richtext.Segment, size float64, doc themeforge.Document) {
	x := margin
	for _, seg := range segments {
		col, style := "#111827", canvas.FontRegular
		switch seg.Style {
		case richtext.Bold:
			col, style = doc.PrimaryColor, canvas.FontBold
		case richtext.Italic:
			col = doc.SecondaryColor
		}
		face := s.fonts.regular.Face(size, fill(col), style, canvas.FontNormal)
		line := canvas.NewTextLine(face, seg.Text, canvas.Left)
		s.ctx.DrawText(x, s.y, line)
		x += face.TextWidth(seg.Text)
	}
}

func (s *sheet) grid(doc themeforge.Document) {
	cols := max(1, doc.GridColumns)
	count := preview.ItemCount(doc.LayoutMode, doc.GridColumns)
	gap := math.Max(0, float64(doc.GridGap)*pxToMM)
	width := pageWidth - 2*margin
	cell := (width - gap*float64(cols-1)) / float64(cols)
	if cell <= 0 {
		return
	}
	height := math.Min(cell*0.6, 20)
	r := radiusMM(themeforge.RadiusValue(doc.BorderRadius), cell, height)

	s.ctx.SetFillColor(fill(doc.SecondaryColor))
	for i := 0; i < count; i++ {
		col, row := i%cols, i/cols
		x := margin + float64(col)*(cell+gap)
		y := s.y + float64(row)*(height+gap)
		if y+height > pageHeight-margin {
			break
		}
		s.ctx.DrawPath(x, y, canvas.RoundedRectangle(cell, height, r))
	}
}

// radiusMM converts a CSS radius to millimetres, capped to half the shorter side.
func radiusMM(value string, w, h float64) float64 {
	px, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil {
		return 0
	}
	return math.Min(px*pxToMM, math.Min(w, h)/2)
}

// wrap splits text into lines of at most width runes, breaking on spaces.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
