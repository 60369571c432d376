package controller

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/menta2k/trombinoscope/pkg/cropper"
)

// Kind is the category of a controller command. Each kind is sent to the
// state machine as its own event type.
type Kind int

const (
	Move Kind = iota
	Zoom
	Rotate
	Navigate
	Save
	Quit
)

// String returns the lower-case name of k.
func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Zoom:
		return "zoom"
	case Rotate:
		return "rotate"
	case Navigate:
		return "navigate"
	case Save:
		return "save"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is what a key press asks the controller to do.
type Command struct {
	Kind Kind

	// Direction is the rectangle mutation for Move and Zoom.
	Direction cropper.Direction

	// Delta is -1 or +1 for Rotate (left, right) and Navigate (previous, next).
	Delta int
}

// String describes the command, e.g. "move left" or "next".
func (c Command) String() string {
	switch c.Kind {
	case Move, Zoom:
		return c.Kind.String() + " " + c.Direction.String()
	case Rotate:
		if c.Delta < 0 {
			return "rotate left"
		}
		return "rotate right"
	case Navigate:
		if c.Delta < 0 {
			return "previous"
		}
		return "next"
	default:
		return c.Kind.String()
	}
}

var (
	cmdUp       = Command{Kind: Move, Direction: cropper.Up}
	cmdDown     = Command{Kind: Move, Direction: cropper.Down}
	cmdLeft     = Command{Kind: Move, Direction: cropper.Left}
	cmdRight    = Command{Kind: Move, Direction: cropper.Right}
	cmdZoomIn   = Command{Kind: Zoom, Direction: cropper.ZoomIn}
	cmdZoomOut  = Command{Kind: Zoom, Direction: cropper.ZoomOut}
	cmdRotLeft  = Command{Kind: Rotate, Delta: -1}
	cmdRotRight = Command{Kind: Rotate, Delta: 1}
	cmdPrev     = Command{Kind: Navigate, Delta: -1}
	cmdNext     = Command{Kind: Navigate, Delta: 1}
	cmdSave     = Command{Kind: Save}
	cmdQuit     = Command{Kind: Quit}
)

// Keymap binds key codes to commands.
type Keymap map[key.Code]Command

// DefaultKeymap returns the bindings used by the crop window.
func DefaultKeymap() Keymap {
	return Keymap{
		key.CodeUpArrow:    cmdUp,
		key.CodeDownArrow:  cmdDown,
		key.CodeLeftArrow:  cmdLeft,
		key.CodeRightArrow: cmdRight,

		key.CodeG:                 cmdZoomIn,
		key.CodeKeypadPlusSign:    cmdZoomIn,
		key.CodeEqualSign:         cmdZoomIn,
		key.CodeP:                 cmdZoomOut,
		key.CodeKeypadHyphenMinus: cmdZoomOut,
		key.CodeHyphenMinus:       cmdZoomOut,

		key.CodeLeftSquareBracket:  cmdRotLeft,
		key.CodeL:                  cmdRotLeft,
		key.CodeRightSquareBracket: cmdRotRight,
		key.CodeR:                  cmdRotRight,

		key.CodeSpacebar:        cmdNext,
		key.CodeN:               cmdNext,
		key.CodeDeleteBackspace: cmdPrev,
		key.CodeB:               cmdPrev,

		key.CodeS:      cmdSave,
		key.CodeEscape: cmdQuit,
		key.CodeQ:      cmdQuit,
	}
}

// Lookup returns the command bound to a key event. Events with an unknown
// code fall back to their rune so that layouts reporting only runes still
// work.
func (m Keymap) Lookup(e key.Event) (Command, bool) {
	if cmd, ok := m[e.Code]; ok {
		return cmd, true
	}
	if code, ok := runeCodes[unicode.ToLower(e.Rune)]; ok {
		cmd, ok := m[code]
		return cmd, ok
	}
	return Command{}, false
}

var runeCodes = map[rune]key.Code{
	'g': key.CodeG,
	'p': key.CodeP,
	'l': key.CodeL,
	'r': key.CodeR,
	'n': key.CodeN,
	'b': key.CodeB,
	's': key.CodeS,
	'q': key.CodeQ,
	'[': key.CodeLeftSquareBracket,
	']': key.CodeRightSquareBracket,
	'+': key.CodeKeypadPlusSign,
	'=': key.CodeEqualSign,
	'-': key.CodeHyphenMinus,
	' ': key.CodeSpacebar,
}

// Describe lists the bindings of m grouped by command, for help output.
func (m Keymap) Describe() []string {
	order := []Command{cmdUp, cmdDown, cmdLeft, cmdRight, cmdZoomIn, cmdZoomOut,
		cmdRotLeft, cmdRotRight, cmdNext, cmdPrev, cmdSave, cmdQuit}

	var lines []string
	for _, cmd := range order {
		var keys []string
		for code, bound := range m {
			if bound == cmd {
				keys = append(keys, strings.TrimPrefix(code.String(), "Code"))
			}
		}
		if len(keys) == 0 {
			continue
		}
		slices.Sort(keys)
		lines = append(lines, fmt.Sprintf("%-13s %s", cmd, strings.Join(keys, ", ")))
	}
	return lines
}
