// Package assistant exposes the design document to AI assistants over the
// Model Context Protocol. Every mutation goes through the history engine, so
// assistant edits are undoable like any other edit.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
	"github.com/livetemplate/themeforge/internal/presets"
)

// Engine is the part of the history engine the assistant drives.
type Engine interface {
	Current() history.Change
	Apply(patch themeforge.Patch) bool
	Set(update history.Updater) bool
	Undo() bool
	Redo() bool
}

// Library lists presets.
type Library interface {
	List() []presets.Preset
	Get(name string) (presets.Preset, bool)
}

// ErrEmptyPatch is returned when a patch sets no document fields.
var ErrEmptyPatch = errors.New("patch sets no document fields")

// Options configures an Assistant.
type Options struct {
	SanitizeText bool // Strip HTML from free-text fields before applying
	Debug        bool
}

// Assistant serves the MCP tools.
type Assistant struct {
	engine  Engine
	library Library
	policy  *bluemonday.Policy
	debug   bool
}

// New creates an assistant. library may be nil, which disables the preset tools.
func New(engine Engine, library Library, opts Options) *Assistant {
	a := &Assistant{
		engine:  engine,
		library: library,
		debug:   opts.Debug,
	}
	if opts.SanitizeText {
		a.policy = bluemonday.StrictPolicy()
	}
	return a
}

// NewServer creates an MCP server with every tool registered.
func (a *Assistant) NewServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "themeforge", Version: version}, nil)
	a.Register(srv)
	return srv
}

// Register adds the tools to srv.
func (a *Assistant) Register(srv *mcp.Server) {
	a.registerGetDocument(srv)
	a.registerApplyPatch(srv)
	a.registerUndo(srv)
	a.registerRedo(srv)
	if a.library != nil {
		a.registerListPresets(srv)
		a.registerApplyPreset(srv)
	}
}

// Handler serves the tools over streamable HTTP.
func (a *Assistant) Handler(version string) http.Handler {
	srv := a.NewServer(version)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

// ServeStdio serves the tools over stdin/stdout until ctx is done or the
// client disconnects.
func (a *Assistant) ServeStdio(ctx context.Context, version string) error {
	return a.NewServer(version).Run(ctx, &mcp.StdioTransport{})
}

// sanitize strips markup from free-text fields. Emphasis markers are plain
// text and survive.
func (a *Assistant) sanitize(p *themeforge.Patch) {
	if a.policy == nil {
		return
	}
	for _, f := range p.TextFields() {
		*f = html.UnescapeString(a.policy.Sanitize(*f))
	}
}

// documentResponse is the result of every tool that returns the document.
type documentResponse struct {
	Document themeforge.Document `json:"document"`
	Changed  bool                `json:"changed"`
	CanUndo  bool                `json:"canUndo"`
	CanRedo  bool                `json:"canRedo"`
}

func (a *Assistant) respond(changed bool) documentResponse {
	c := a.engine.Current()
	return documentResponse{
		Document: c.Document,
		Changed:  changed,
		CanUndo:  c.CanUndo,
		CanRedo:  c.CanRedo,
	}
}

type endpoint func(ctx context.Context, args json.RawMessage) (any, error)

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers fn as tool. Endpoint errors become tool errors rather
// than protocol errors, so the assistant sees the message.
func (a *Assistant) addTool(srv *mcp.Server, tool *mcp.Tool, fn endpoint) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		resp, err := fn(ctx, args)
		if err != nil {
			if a.debug {
				log.Printf("[MCP] %s failed: %v", tool.Name, err)
			}
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
