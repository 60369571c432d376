package types

import (
	"path/filepath"
	"strings"
)

// MissingFamily is the family name used when a file name carries no `@`
// separator between the given and family names.
const MissingFamily = "Separate given and family name with `@`"

// NameSeparator splits the given name from the family name in file stems.
const NameSeparator = "@"

// Identity names the person on a photo
type Identity struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// IdentityFromPath derives an identity from a file name such as
// "Alice @ Dupont.jpg". Text after a second separator is ignored.
func IdentityFromPath(path string) Identity {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, NameSeparator)
	id := Identity{Given: strings.TrimSpace(parts[0]), Family: MissingFamily}
	if len(parts) > 1 {
		id.Family = strings.TrimSpace(parts[1])
	}
	return id
}

// Rotation is a number of clockwise quarter turns in [0, 3]
type Rotation int

// NewRotation reduces k modulo 4, mapping negative values into range so
// that -1 becomes 3.
func NewRotation(k int) Rotation {
	r := k % 4
	if r < 0 {
		r += 4
	}
	return Rotation(r)
}

// Left returns the rotation one quarter turn counter-clockwise.
func (r Rotation) Left() Rotation { return NewRotation(int(r) - 1) }

// Right returns the rotation one quarter turn clockwise.
func (r Rotation) Right() Rotation { return NewRotation(int(r) + 1) }

// Degrees returns the clockwise angle of the rotation
func (r Rotation) Degrees() int { return int(NewRotation(int(r))) * 90 }

// RotationFromOrientation maps an EXIF Orientation tag value to the
// rotation that displays the image upright. Mirrored orientations map to
// their unmirrored rotation.
func RotationFromOrientation(orientation int) Rotation {
	switch orientation {
	case 3, 4:
		return 2
	case 6, 5:
		return 1
	case 8, 7:
		return 3
	default:
		return 0
	}
}
