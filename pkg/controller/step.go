package controller

import (
	"golang.org/x/mobile/event/key"
)

// DefaultBaseStep is the number of pixels a move or zoom covers without
// modifiers.
const DefaultBaseStep = 2

// Multipliers scale the base step for each held modifier. Multipliers of
// several held modifiers compose by product. Values below 1 count as 1.
type Multipliers struct {
	Shift   int `json:"shift" yaml:"shift"`
	Control int `json:"control" yaml:"control"`
	Alt     int `json:"alt" yaml:"alt"`
	Meta    int `json:"meta" yaml:"meta"`
}

// DefaultMultipliers returns Shift x5, Control x3, Alt x7 and Meta x1.
func DefaultMultipliers() Multipliers {
	return Multipliers{Shift: 5, Control: 3, Alt: 7, Meta: 1}
}

// StepSize returns base multiplied by the multiplier of every modifier held
// in mods.
func StepSize(base int, mods key.Modifiers, m Multipliers) int {
	step := base
	for _, f := range []struct {
		mod key.Modifiers
		n   int
	}{
		{key.ModShift, m.Shift},
		{key.ModControl, m.Control},
		{key.ModAlt, m.Alt},
		{key.ModMeta, m.Meta},
	} {
		if mods&f.mod != 0 && f.n > 1 {
			step *= f.n
		}
	}
	return step
}
