package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
)

func (a *Assistant) registerGetDocument(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_document",
		Description: "Return the current design document and whether undo and redo are available.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	a.addTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		return a.respond(false), nil
	})
}

// patchProperties describes every document key an assistant may set.
func patchProperties() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	integer := func(desc string) map[string]any {
		return map[string]any{"type": "integer", "description": desc}
	}
	enum := func(desc string, values ...string) map[string]any {
		return map[string]any{"type": "string", "description": desc, "enum": values}
	}

	fonts := make([]string, 0, len(themeforge.FontFamilies))
	for _, f := range themeforge.FontFamilies {
		fonts = append(fonts, string(f))
	}
	radii := make([]string, 0, len(themeforge.Radii))
	for _, r := range themeforge.Radii {
		radii = append(radii, string(r))
	}
	modes := make([]string, 0, len(themeforge.LayoutModes))
	for _, m := range themeforge.LayoutModes {
		modes = append(modes, string(m))
	}

	return map[string]any{
		"primaryColor":   str("Primary color, for example #3B82F6"),
		"secondaryColor": str("Secondary color"),
		"fontFamily":     enum("Font family", fonts...),
		"borderRadius":   enum("Corner radius token", radii...),
		"layoutMode":     enum("Page layout", modes...),
		"baseFontSize":   integer("Base font size in px, usually 12 to 24"),
		"headingText":    str("Heading copy. Supports **bold** and *italic*"),
		"subheadingText": str("Subheading copy"),
		"bodyText":       str("Body copy"),
		"gridColumns":    integer("Grid columns, usually 1 to 4"),
		"gridGap":        integer("Grid gap in px, usually 8 to 64"),
		"darkMode":       map[string]any{"type": "boolean", "description": "Dark mode"},
	}
}

func (a *Assistant) registerApplyPatch(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "apply_patch",
		Description: "Change some fields of the design document. Fields that are not given keep their value. The change is recorded in undo history.",
		InputSchema: inputSchema(patchProperties(), nil),
	}
	a.addTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		if len(args) == 0 {
			return nil, ErrEmptyPatch
		}
		patch, err := themeforge.ParsePatch(args)
		if err != nil {
			return nil, err
		}
		if patch.IsEmpty() {
			return nil, ErrEmptyPatch
		}
		a.sanitize(&patch)
		changed := a.engine.Apply(patch)
		if a.debug {
			log.Printf("[MCP] apply_patch changed=%v", changed)
		}
		return a.respond(changed), nil
	})
}

func (a *Assistant) registerUndo(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "undo",
		Description: "Undo the last change to the design document. Does nothing when there is nothing to undo.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	a.addTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		return a.respond(a.engine.Undo()), nil
	})
}

func (a *Assistant) registerRedo(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "redo",
		Description: "Redo the last undone change. Does nothing when there is nothing to redo.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	a.addTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		return a.respond(a.engine.Redo()), nil
	})
}

type presetSummary struct {
	Name        string           `json:"name"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Document    themeforge.Patch `json:"document"`
}

func (a *Assistant) registerListPresets(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_presets",
		Description: "List the named design presets and the fields each one sets.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	a.addTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		list := a.library.List()
		out := make([]presetSummary, 0, len(list))
		for _, p := range list {
			out = append(out, presetSummary{
				Name:        p.Name,
				Title:       p.Title,
				Description: p.Description,
				Document:    p.Patch,
			})
		}
		return map[string]any{"presets": out}, nil
	})
}

type applyPresetReq struct {
	Name string `json:"name"`
}

func (a *Assistant) registerApplyPreset(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "apply_preset",
		Description: "Apply a named preset on top of the current design document.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Preset name from list_presets"},
		}, []string{"name"}),
	}
	a.addTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r applyPresetReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		if r.Name == "" {
			return nil, fmt.Errorf("name is required")
		}
		p, ok := a.library.Get(r.Name)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", r.Name)
		}
		return a.respond(a.engine.Set(history.Updater(p.Apply))), nil
	})
}
