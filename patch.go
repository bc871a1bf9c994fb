package themeforge

import (
	"encoding/json"
	"fmt"
)

// Patch is a partial document: nil fields are left untouched when applied.
// It is the single shape every inbound edit takes, whether it comes from the
// editor, the HTTP API or an assistant.
type Patch struct {
	PrimaryColor   *string     `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
	SecondaryColor *string     `json:"secondaryColor,omitempty" yaml:"secondaryColor,omitempty"`
	FontFamily     *FontFamily `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	BorderRadius   *Radius     `json:"borderRadius,omitempty" yaml:"borderRadius,omitempty"`
	LayoutMode     *LayoutMode `json:"layoutMode,omitempty" yaml:"layoutMode,omitempty"`
	BaseFontSize   *int        `json:"baseFontSize,omitempty" yaml:"baseFontSize,omitempty"`
	HeadingText    *string     `json:"headingText,omitempty" yaml:"headingText,omitempty"`
	SubheadingText *string     `json:"subheadingText,omitempty" yaml:"subheadingText,omitempty"`
	BodyText       *string     `json:"bodyText,omitempty" yaml:"bodyText,omitempty"`
	GridColumns    *int        `json:"gridColumns,omitempty" yaml:"gridColumns,omitempty"`
	GridGap        *int        `json:"gridGap,omitempty" yaml:"gridGap,omitempty"`
	DarkMode       *bool       `json:"darkMode,omitempty" yaml:"darkMode,omitempty"`
}

// Apply returns d with every non-nil field of p overridden.
func (p Patch) Apply(d Document) Document {
	if p.PrimaryColor != nil {
		d.PrimaryColor = *p.PrimaryColor
	}
	if p.SecondaryColor != nil {
		d.SecondaryColor = *p.SecondaryColor
	}
	if p.FontFamily != nil {
		d.FontFamily = *p.FontFamily
	}
	if p.BorderRadius != nil {
		d.BorderRadius = *p.BorderRadius
	}
	if p.LayoutMode != nil {
		d.LayoutMode = *p.LayoutMode
	}
	if p.BaseFontSize != nil {
		d.BaseFontSize = *p.BaseFontSize
	}
	if p.HeadingText != nil {
		d.HeadingText = *p.HeadingText
	}
	if p.SubheadingText != nil {
		d.SubheadingText = *p.SubheadingText
	}
	if p.BodyText != nil {
		d.BodyText = *p.BodyText
	}
	if p.GridColumns != nil {
		d.GridColumns = *p.GridColumns
	}
	if p.GridGap != nil {
		d.GridGap = *p.GridGap
	}
	if p.DarkMode != nil {
		d.DarkMode = *p.DarkMode
	}
	return d
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// TextFields returns pointers to the free-text fields that are set, so
// callers can post-process copy without knowing the field list.
func (p *Patch) TextFields() []*string {
	var fields []*string
	for _, f := range []*string{p.HeadingText, p.SubheadingText, p.BodyText} {
		if f != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// ParsePatch decodes a JSON object of document keys. Unknown keys are ignored;
// a known key with a value of the wrong type is an error.
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("invalid patch: %w", err)
	}
	return p, nil
}

// PatchFromMap converts a decoded JSON object (as received over the
// websocket or from an assistant) into a Patch.
func PatchFromMap(m map[string]interface{}) (Patch, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Patch{}, fmt.Errorf("invalid patch: %w", err)
	}
	return ParsePatch(data)
}

// Diff returns the patch that turns from into to. Applying Diff(a, b) to a
// yields b.
func Diff(from, to Document) Patch {
	var p Patch
	if from.PrimaryColor != to.PrimaryColor {
		p.PrimaryColor = &to.PrimaryColor
	}
	if from.SecondaryColor != to.SecondaryColor {
		p.SecondaryColor = &to.SecondaryColor
	}
	if from.FontFamily != to.FontFamily {
		p.FontFamily = &to.FontFamily
	}
	if from.BorderRadius != to.BorderRadius {
		p.BorderRadius = &to.BorderRadius
	}
	if from.LayoutMode != to.LayoutMode {
		p.LayoutMode = &to.LayoutMode
	}
	if from.BaseFontSize != to.BaseFontSize {
		p.BaseFontSize = &to.BaseFontSize
	}
	if from.HeadingText != to.HeadingText {
		p.HeadingText = &to.HeadingText
	}
	if from.SubheadingText != to.SubheadingText {
		p.SubheadingText = &to.SubheadingText
	}
	if from.BodyText != to.BodyText {
		p.BodyText = &to.BodyText
	}
	if from.GridColumns != to.GridColumns {
		p.GridColumns = &to.GridColumns
	}
	if from.GridGap != to.GridGap {
		p.GridGap = &to.GridGap
	}
	if from.DarkMode != to.DarkMode {
		p.DarkMode = &to.DarkMode
	}
	return p
}
