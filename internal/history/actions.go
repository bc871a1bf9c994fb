package history

import (
	"encoding/json"
	"fmt"

	"github.com/livetemplate/themeforge"
)

// HandleAction dispatches a named intent coming from a client.
//
//	set    data is a whole document; missing keys take their defaults
//	patch  data is a subset of document keys
//	undo   data is ignored
//	redo   data is ignored
//	reset  data is ignored; the defaults become the present document
//
// The boolean result reports whether the document or the stacks changed.
func (e *Engine) HandleAction(action string, data map[string]interface{}) (bool, error) {
	switch action {
	case "set":
		return e.handleSet(data)
	case "patch":
		return e.handlePatch(data)
	case "undo":
		return e.Undo(), nil
	case "redo":
		return e.Redo(), nil
	case "reset":
		return e.Reset(themeforge.Default()), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (e *Engine) handleSet(data map[string]interface{}) (bool, error) {
	if data == nil {
		return false, fmt.Errorf("set: missing document")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("set: %w", err)
	}
	doc, err := themeforge.MergeJSON(raw)
	if err != nil {
		return false, fmt.Errorf("set: %w", err)
	}
	return e.Set(Replace(doc)), nil
}

func (e *Engine) handlePatch(data map[string]interface{}) (bool, error) {
	patch, err := themeforge.PatchFromMap(data)
	if err != nil {
		return false, err
	}
	return e.Apply(patch), nil
}
