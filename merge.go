package themeforge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotAnObject is returned by MergeJSON when the payload is valid JSON but
// not an object, e.g. a payload written by a foreign tool into the same slot.
var ErrNotAnObject = errors.New("payload is not a JSON object")

// MergeJSON decodes a persisted payload over the current defaults.
//
// The merge is versionless: every key present in both the payload and the
// schema takes the persisted value, keys missing from the payload keep their
// default, and unknown keys are ignored. A known key whose value has the wrong
// JSON type keeps its default; the rest of the payload still applies.
//
// An error is returned only when the payload as a whole is unusable, which
// callers treat as "nothing stored".
func MergeJSON(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Document{}, ErrNotAnObject
		}
		return Document{}, fmt.Errorf("failed to parse document: %w", err)
	}
	if raw == nil {
		// literal null
		return Document{}, ErrNotAnObject
	}

	doc := Default()
	for key, setter := range fieldSetters(&doc) {
		value, ok := raw[key]
		if !ok {
			continue
		}
		_ = setter(value) // wrong type: keep the default
	}
	return doc, nil
}

// fieldSetters binds each JSON key of the schema to the field it decodes into.
func fieldSetters(d *Document) map[string]func(json.RawMessage) error {
	return map[string]func(json.RawMessage) error{
		"primaryColor":   decodeInto(&d.PrimaryColor),
		"secondaryColor": decodeInto(&d.SecondaryColor),
		"fontFamily":     decodeInto(&d.FontFamily),
		"borderRadius":   decodeInto(&d.BorderRadius),
		"layoutMode":     decodeInto(&d.LayoutMode),
		"baseFontSize":   decodeInto(&d.BaseFontSize),
		"headingText":    decodeInto(&d.HeadingText),
		"subheadingText": decodeInto(&d.SubheadingText),
		"bodyText":       decodeInto(&d.BodyText),
		"gridColumns":    decodeInto(&d.GridColumns),
		"gridGap":        decodeInto(&d.GridGap),
		"darkMode":       decodeInto(&d.DarkMode),
	}
}

func decodeInto[T any](dst *T) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		if string(raw) == "null" {
			return nil
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
