// Package keymap turns keyboard events into history commands.
//
// Bindings are written as "+"-separated chords such as "mod+shift+z" or
// "ctrl+y". The "mod" modifier matches either Control or Meta, so one binding
// covers both Windows/Linux and macOS conventions.
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/livetemplate/themeforge/internal/config"
)

// Command is an editor command a binding triggers.
type Command string

const (
	Undo Command = "undo"
	Redo Command = "redo"
)

var (
	bindingLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "Key", Pattern: `[A-Za-z0-9]+|[-=,./;'\[\]` + "`" + `]`},
		{Name: "Plus", Pattern: `\+`},
	})

	bindingParser = participle.MustBuild[bindingAST](
		participle.Lexer(bindingLexer),
		participle.Elide("Whitespace"),
	)
)

type bindingAST struct {
	Parts []string `parser:"@Key ( '+' @Key )*"`
}

// BindingError reports a binding that could not be parsed.
type BindingError struct {
	Binding string
	Message string
	Err     error
}

func (e *BindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid key binding %q: %s: %v", e.Binding, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid key binding %q: %s", e.Binding, e.Message)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Chord is one parsed key combination.
type Chord struct {
	Mod   bool // Control or Meta
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
	Key   string // lower case
}

// String returns the canonical spelling of the chord.
func (c Chord) String() string {
	var parts []string
	if c.Mod {
		parts = append(parts, "mod")
	}
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Meta {
		parts = append(parts, "meta")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// KeyEvent is a key press as reported by the browser.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrlKey"`
	Meta  bool   `json:"metaKey"`
	Shift bool   `json:"shiftKey"`
	Alt   bool   `json:"altKey"`
}

// Matches reports whether ev triggers the chord. Shift and Alt must match
// exactly so "mod+z" does not fire for "mod+shift+z".
func (c Chord) Matches(ev KeyEvent) bool {
	if strings.ToLower(ev.Key) != c.Key {
		return false
	}
	if ev.Shift != c.Shift || ev.Alt != c.Alt {
		return false
	}
	if c.Mod {
		return (ev.Ctrl || ev.Meta) && !(c.Ctrl && !ev.Ctrl) && !(c.Meta && !ev.Meta)
	}
	return ev.Ctrl == c.Ctrl && ev.Meta == c.Meta
}

// ParseBinding parses a chord such as "mod+shift+z".
func ParseBinding(s string) (Chord, error) {
	ast, err := bindingParser.ParseString("", s)
	if err != nil {
		return Chord{}, &BindingError{Binding: s, Message: "syntax error", Err: err}
	}

	var c Chord
	last := len(ast.Parts) - 1
	for i, part := range ast.Parts {
		name := strings.ToLower(part)
		if i == last {
			if isModifier(name) {
				return Chord{}, &BindingError{Binding: s, Message: "binding must end with a key, not a modifier"}
			}
			c.Key = name
			break
		}

		flag := c.modifier(name)
		if flag == nil {
			return Chord{}, &BindingError{Binding: s, Message: fmt.Sprintf("unknown modifier %q", part)}
		}
		if *flag {
			return Chord{}, &BindingError{Binding: s, Message: fmt.Sprintf("duplicate modifier %q", part)}
		}
		*flag = true
	}
	return c, nil
}

func isModifier(name string) bool {
	var c Chord
	return c.modifier(name) != nil
}

func (c *Chord) modifier(name string) *bool {
	switch name {
	case "mod":
		return &c.Mod
	case "ctrl", "control":
		return &c.Ctrl
	case "meta", "cmd", "command":
		return &c.Meta
	case "shift":
		return &c.Shift
	case "alt", "option":
		return &c.Alt
	}
	return nil
}

// Keymap maps chords to commands.
type Keymap struct {
	bindings map[Command][]Chord
}

// New parses the configured bindings. All errors are reported together.
func New(cfg config.KeymapConfig) (*Keymap, error) {
	km := &Keymap{bindings: make(map[Command][]Chord)}
	var errs []error
	for cmd, specs := range map[Command][]string{Undo: cfg.Undo, Redo: cfg.Redo} {
		for _, spec := range specs {
			chord, err := ParseBinding(spec)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			km.bindings[cmd] = append(km.bindings[cmd], chord)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return km, nil
}

// Default returns the standard bindings: mod+z undoes, mod+shift+z and mod+y redo.
func Default() *Keymap {
	km, err := New(config.DefaultConfig().Keymap)
	if err != nil {
		panic(err)
	}
	return km
}

// Resolve returns the command bound to ev.
func (k *Keymap) Resolve(ev KeyEvent) (Command, bool) {
	for _, cmd := range []Command{Undo, Redo} {
		for _, chord := range k.bindings[cmd] {
			if chord.Matches(ev) {
				return cmd, true
			}
		}
	}
	return "", false
}

// Describe returns the canonical bindings per command, sorted.
func (k *Keymap) Describe() map[Command][]string {
	out := make(map[Command][]string, len(k.bindings))
	for cmd, chords := range k.bindings {
		names := make([]string, len(chords))
		for i, c := range chords {
			names[i] = c.String()
		}
		sort.Strings(names)
		out[cmd] = names
	}
	return out
}
