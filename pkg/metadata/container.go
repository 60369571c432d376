package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

// JPEG markers used by the container walker.
const (
	MarkerAPP14 byte = 0xEE

	markerSOI  byte = 0xD8
	markerEOI  byte = 0xD9
	markerSOS  byte = 0xDA
	markerTEM  byte = 0x01
	markerRST0 byte = 0xD0
	markerRST7 byte = 0xD7
)

// maxPayload is the largest payload a length-prefixed segment can carry.
const maxPayload = 0xFFFF - 2

// Segment is one marker segment of a JPEG stream. Its bytes include any
// fill bytes before the marker and, for SOS, the entropy-coded scan data.
type Segment struct {
	Marker byte

	raw   []byte
	start int
	end   int
}

// Payload returns the segment content after the length field.
func (s Segment) Payload() []byte { return s.raw[s.start:s.end] }

// Bytes returns the segment exactly as it appears in the stream.
func (s Segment) Bytes() []byte { return s.raw }

func (s Segment) isRecord() bool {
	return s.Marker == MarkerAPP14 && bytes.HasPrefix(s.Payload(), []byte(Label))
}

func newRecordSegment(payload []byte) Segment {
	raw := make([]byte, 4+len(payload))
	raw[0] = 0xFF
	raw[1] = MarkerAPP14
	binary.BigEndian.PutUint16(raw[2:4], uint16(len(payload)+2))
	copy(raw[4:], payload)
	return Segment{Marker: MarkerAPP14, raw: raw, start: 4, end: len(raw)}
}

// Container is a parsed JPEG stream. The last segment is always EOI; bytes
// following EOI are kept as a trailer.
type Container struct {
	segments []Segment
	trailer  []byte
}

// IsJPEG reports whether data starts with the SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == markerSOI
}

// Parse splits a JPEG stream into segments. Segment bytes alias data.
func Parse(data []byte) (*Container, error) {
	if !IsJPEG(data) {
		return nil, fmt.Errorf("%w: missing SOI marker", ErrContainer)
	}

	c := &Container{segments: []Segment{{Marker: markerSOI, raw: data[:2], start: 2, end: 2}}}
	i := 2
	for {
		start := i
		if i >= len(data) {
			return nil, fmt.Errorf("%w: missing EOI marker", ErrContainer)
		}
		if data[i] != 0xFF {
			return nil, fmt.Errorf("%w: expected marker at offset %d, found 0x%02X", ErrContainer, i, data[i])
		}
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return nil, fmt.Errorf("%w: missing EOI marker", ErrContainer)
		}
		marker := data[i]
		i++

		if marker == markerEOI {
			c.segments = append(c.segments, Segment{Marker: marker, raw: data[start:i], start: i - start, end: i - start})
			c.trailer = data[i:]
			return c, nil
		}
		if standalone(marker) {
			c.segments = append(c.segments, Segment{Marker: marker, raw: data[start:i], start: i - start, end: i - start})
			continue
		}

		if i+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated length of segment 0x%02X at offset %d", ErrContainer, marker, start)
		}
		length := int(binary.BigEndian.Uint16(data[i : i+2]))
		if length < 2 || i+length > len(data) {
			return nil, fmt.Errorf("%w: segment 0x%02X at offset %d has invalid length %d", ErrContainer, marker, start, length)
		}
		payloadEnd := i + length
		end := payloadEnd
		if marker == markerSOS {
			end = scanEntropyData(data, payloadEnd)
		}

		c.segments = append(c.segments, Segment{
			Marker: marker,
			raw:    data[start:end],
			start:  i + 2 - start,
			end:    payloadEnd - start,
		})
		i = end
	}
}

func standalone(marker byte) bool {
	return marker == markerSOI || marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7)
}

// scanEntropyData returns the offset of the first marker after the scan
// data starting at i. Stuffed 0xFF00 bytes and restart markers belong to
// the scan.
func scanEntropyData(data []byte, i int) int {
	for i < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		if i+1 >= len(data) {
			return len(data)
		}
		next := data[i+1]
		if next == 0x00 || (next >= markerRST0 && next <= markerRST7) {
			i += 2
			continue
		}
		return i
	}
	return i
}

// Segments returns the parsed segments in stream order, EOI last.
func (c *Container) Segments() []Segment {
	return c.segments
}

// Trailer returns the bytes following EOI.
func (c *Container) Trailer() []byte {
	return c.trailer
}

// Bytes reassembles the stream.
func (c *Container) Bytes() []byte {
	n := len(c.trailer)
	for _, s := range c.segments {
		n += len(s.raw)
	}
	out := make([]byte, 0, n)
	for _, s := range c.segments {
		out = append(out, s.raw...)
	}
	return append(out, c.trailer...)
}

// RecordIndex returns the index of the labelled APP14 segment, or -1.
func (c *Container) RecordIndex() int {
	return slices.IndexFunc(c.segments, Segment.isRecord)
}

// Record decodes the labelled segment. It returns nil when there is none.
func (c *Container) Record() (*Record, error) {
	i := c.RecordIndex()
	if i < 0 {
		return nil, nil
	}
	rec, err := DecodePayload(c.segments[i].Payload())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetRecord replaces the labelled segment in place, or inserts a new one
// immediately before EOI.
func (c *Container) SetRecord(rec Record) error {
	payload, err := EncodePayload(rec)
	if err != nil {
		return err
	}
	seg := newRecordSegment(payload)

	if i := c.RecordIndex(); i >= 0 {
		c.segments[i] = seg
		return nil
	}
	c.segments = slices.Insert(c.segments, len(c.segments)-1, seg)
	return nil
}

// Decode returns the crop record embedded in a JPEG stream, or nil when the
// stream has none.
func Decode(data []byte) (*Record, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return c.Record()
}

// WriteRecord returns a copy of the JPEG stream carrying rec. Every other
// byte of the stream is preserved. Writing the same record twice yields the
// same bytes.
func WriteRecord(data []byte, rec Record) ([]byte, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := c.SetRecord(rec); err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}
