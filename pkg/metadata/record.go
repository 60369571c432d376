// Package metadata stores crop records inside JPEG files.
//
// A record lives in a private APP14 segment whose payload starts with the
// "trombinoscope" label. APP14 segments without the label belong to other
// software (Adobe writes its color transform there) and are never read or
// replaced.
package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Label prefixes every payload written by this package.
const Label = "trombinoscope"

const formatVersion byte = 1

var (
	// ErrContainer reports bytes that are not a well formed JPEG stream.
	ErrContainer = errors.New("malformed JPEG container")

	// ErrDecode reports a labelled segment whose payload cannot be decoded.
	ErrDecode = errors.New("malformed crop record")
)

// Record is the durable crop state of one photo
type Record struct {
	Given    string `json:"given"`
	Family   string `json:"family"`
	X        int32  `json:"x"`
	Y        int32  `json:"y"`
	W        int32  `json:"w"`
	Rotation int8   `json:"rotation"`
}

type fixedFields struct {
	X        int32
	Y        int32
	W        int32
	Rotation int8
}

// EncodePayload serializes a record as the label, a version byte, two
// uint16 length-prefixed strings and the big endian coordinates.
func EncodePayload(rec Record) ([]byte, error) {
	if rec.Rotation < 0 || rec.Rotation > 3 {
		return nil, fmt.Errorf("rotation %d out of range [0, 3]", rec.Rotation)
	}

	var buf bytes.Buffer
	buf.WriteString(Label)
	buf.WriteByte(formatVersion)
	if err := writeString(&buf, rec.Given); err != nil {
		return nil, fmt.Errorf("given name: %w", err)
	}
	if err := writeString(&buf, rec.Family); err != nil {
		return nil, fmt.Errorf("family name: %w", err)
	}
	fixed := fixedFields{X: rec.X, Y: rec.Y, W: rec.W, Rotation: rec.Rotation}
	if err := binary.Write(&buf, binary.BigEndian, fixed); err != nil {
		return nil, err
	}

	if buf.Len() > maxPayload {
		return nil, fmt.Errorf("record payload of %d bytes exceeds the %d byte segment limit", buf.Len(), maxPayload)
	}
	return buf.Bytes(), nil
}

// DecodePayload parses a payload produced by EncodePayload. The whole
// payload must be consumed.
func DecodePayload(p []byte) (Record, error) {
	if !bytes.HasPrefix(p, []byte(Label)) {
		return Record{}, fmt.Errorf("%w: missing %q label", ErrDecode, Label)
	}
	r := bytes.NewReader(p[len(Label):])

	version, err := r.ReadByte()
	if err != nil {
		return Record{}, fmt.Errorf("%w: missing version", ErrDecode)
	}
	if version != formatVersion {
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrDecode, version)
	}

	given, err := readString(r)
	if err != nil {
		return Record{}, fmt.Errorf("%w: given name: %v", ErrDecode, err)
	}
	family, err := readString(r)
	if err != nil {
		return Record{}, fmt.Errorf("%w: family name: %v", ErrDecode, err)
	}

	var fixed fixedFields
	if err := binary.Read(r, binary.BigEndian, &fixed); err != nil {
		return Record{}, fmt.Errorf("%w: coordinates: %v", ErrDecode, err)
	}
	if r.Len() != 0 {
		return Record{}, fmt.Errorf("%w: %d trailing bytes", ErrDecode, r.Len())
	}
	if fixed.Rotation < 0 || fixed.Rotation > 3 {
		return Record{}, fmt.Errorf("%w: rotation %d out of range", ErrDecode, fixed.Rotation)
	}

	return Record{
		Given:    given,
		Family:   family,
		X:        fixed.X,
		Y:        fixed.Y,
		W:        fixed.W,
		Rotation: fixed.Rotation,
	}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%d bytes exceeds %d", len(s), math.MaxUint16)
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	s := make([]byte, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return "", err
	}
	return string(s), nil
}
