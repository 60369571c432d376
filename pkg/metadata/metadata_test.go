package metadata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// createTestJPEG encodes a small gradient image
func createTestJPEG(t testing.TB, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// withSegment inserts a raw marker segment right after SOI
func withSegment(data []byte, marker byte, payload []byte) []byte {
	seg := []byte{0xFF, marker, byte((len(payload) + 2) >> 8), byte(len(payload) + 2)}
	seg = append(seg, payload...)

	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

func adobePayload() []byte {
	return []byte{'A', 'd', 'o', 'b', 'e', 0x00, 0x64, 0x00, 0x00, 0x00, 0x00, 0x01}
}

// foreignSegments returns the bytes of every segment that is not ours
func foreignSegments(t *testing.T, data []byte) [][]byte {
	t.Helper()

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var out [][]byte
	for _, s := range c.Segments() {
		if !s.isRecord() {
			out = append(out, s.Bytes())
		}
	}
	return out
}

func TestParseRoundTrip(t *testing.T) {
	data := createTestJPEG(t, 64, 48)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	segs := c.Segments()
	if segs[0].Marker != markerSOI {
		t.Errorf("Expected first segment to be SOI, got 0x%02X", segs[0].Marker)
	}
	if segs[len(segs)-1].Marker != markerEOI {
		t.Errorf("Expected last segment to be EOI, got 0x%02X", segs[len(segs)-1].Marker)
	}
	if !bytes.Equal(c.Bytes(), data) {
		t.Error("Expected reassembled bytes to match the input")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	records := []Record{
		{},
		{Given: "Alice", Family: "Dupont", X: 500, Y: 400, W: 200, Rotation: 0},
		{Given: "Zoé", Family: "Lefèvre", X: 1, Y: 2, W: 3, Rotation: 1},
		{Given: "", Family: "", X: 0, Y: 0, W: 0, Rotation: 2},
		{Given: "a", Family: "b", X: -7, Y: 2147483647, W: -2147483648, Rotation: 3},
	}

	for _, rec := range records {
		payload, err := EncodePayload(rec)
		if err != nil {
			t.Fatalf("EncodePayload(%+v) failed: %v", rec, err)
		}
		got, err := DecodePayload(payload)
		if err != nil {
			t.Fatalf("DecodePayload failed for %+v: %v", rec, err)
		}
		if got != rec {
			t.Errorf("round trip = %+v, want %+v", got, rec)
		}
	}
}

func TestEncodePayloadRejectsRotation(t *testing.T) {
	if _, err := EncodePayload(Record{Rotation: 4}); err == nil {
		t.Error("Expected error for rotation 4")
	}
	if _, err := EncodePayload(Record{Rotation: -1}); err == nil {
		t.Error("Expected error for rotation -1")
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	valid, err := EncodePayload(Record{Given: "Alice", Family: "Dupont", X: 1, Y: 2, W: 3})
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	badRotation := append([]byte{}, valid...)
	badRotation[len(badRotation)-1] = 9

	badVersion := append([]byte{}, valid...)
	badVersion[len(Label)] = 42

	tests := map[string][]byte{
		"no label":      []byte("something else"),
		"label only":    []byte(Label),
		"truncated":     valid[:len(valid)-3],
		"trailing":      append(append([]byte{}, valid...), 0x00),
		"bad rotation":  badRotation,
		"bad version":   badVersion,
		"short strings": append([]byte(Label), formatVersion, 0x00, 0x10, 'a'),
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePayload(payload)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestDecodeWithoutRecord(t *testing.T) {
	rec, err := Decode(createTestJPEG(t, 32, 32))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected no record, got %+v", rec)
	}
}

func TestWriteRecordRoundTrip(t *testing.T) {
	data := createTestJPEG(t, 64, 48)

	for rot := int8(0); rot < 4; rot++ {
		want := Record{Given: "Alice", Family: "Dupont", X: 32, Y: 24, W: 20, Rotation: rot}

		out, err := WriteRecord(data, want)
		if err != nil {
			t.Fatalf("WriteRecord failed: %v", err)
		}

		got, err := Decode(out)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got == nil || *got != want {
			t.Errorf("Decode = %+v, want %+v", got, want)
		}

		before := foreignSegments(t, data)
		after := foreignSegments(t, out)
		if len(before) != len(after) {
			t.Fatalf("Expected %d foreign segments, got %d", len(before), len(after))
		}
		for i := range before {
			if !bytes.Equal(before[i], after[i]) {
				t.Errorf("Segment %d changed by WriteRecord", i)
			}
		}
	}
}

func TestWriteRecordInsertsBeforeEOI(t *testing.T) {
	data := createTestJPEG(t, 16, 16)

	out, err := WriteRecord(data, Record{Given: "x"})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}

	c, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	segs := c.Segments()
	if !segs[len(segs)-2].isRecord() {
		t.Error("Expected the record segment immediately before EOI")
	}
	if segs[len(segs)-1].Marker != markerEOI {
		t.Error("Expected EOI to stay last")
	}
}

func TestWriteRecordIdempotent(t *testing.T) {
	data := createTestJPEG(t, 64, 48)
	rec := Record{Given: "Alice", Family: "Dupont", X: 30, Y: 20, W: 10, Rotation: 2}

	once, err := WriteRecord(data, rec)
	if err != nil {
		t.Fatalf("first WriteRecord failed: %v", err)
	}
	twice, err := WriteRecord(once, rec)
	if err != nil {
		t.Fatalf("second WriteRecord failed: %v", err)
	}

	if !bytes.Equal(once, twice) {
		t.Error("Expected writing the same record twice to be byte-identical")
	}
}

func TestWriteRecordReplacesInPlace(t *testing.T) {
	data := createTestJPEG(t, 64, 48)

	first, err := WriteRecord(data, Record{Given: "A", Family: "B", X: 1, Y: 1, W: 1})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	c1, _ := Parse(first)

	second, err := WriteRecord(first, Record{Given: "A much longer name", Family: "B", X: 9, Y: 9, W: 9})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	c2, _ := Parse(second)

	if c1.RecordIndex() != c2.RecordIndex() {
		t.Errorf("Expected record at index %d, got %d", c1.RecordIndex(), c2.RecordIndex())
	}
	if len(c1.Segments()) != len(c2.Segments()) {
		t.Errorf("Expected replacement, segment count went from %d to %d", len(c1.Segments()), len(c2.Segments()))
	}

	got, err := Decode(second)
	if err != nil || got == nil || got.Given != "A much longer name" {
		t.Errorf("Decode = %+v, %v", got, err)
	}
}

func TestForeignAPP14Preserved(t *testing.T) {
	data := withSegment(createTestJPEG(t, 32, 32), MarkerAPP14, adobePayload())

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("Expected Adobe segment to be ignored, got %+v", rec)
	}

	out, err := WriteRecord(data, Record{Given: "Alice"})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	c, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	segs := c.Segments()
	if segs[1].Marker != MarkerAPP14 || !bytes.Equal(segs[1].Payload(), adobePayload()) {
		t.Error("Expected the Adobe APP14 segment to be untouched")
	}
	if c.RecordIndex() != len(segs)-2 {
		t.Errorf("Expected our record before EOI, found at %d", c.RecordIndex())
	}
}

func TestCorruptRecordIsHardError(t *testing.T) {
	payload := append([]byte(Label), formatVersion, 0xFF)
	data := withSegment(createTestJPEG(t, 32, 32), MarkerAPP14, payload)

	_, err := Decode(data)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestContainerErrors(t *testing.T) {
	data := createTestJPEG(t, 32, 32)

	tests := map[string][]byte{
		"empty":       nil,
		"png":         []byte("\x89PNG\r\n\x1a\n"),
		"no eoi":      data[:len(data)-2],
		"bad length":  append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0xFF, 0xFF}, 0x00),
		"stray bytes": []byte{0xFF, 0xD8, 0x12, 0x34},
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(input); !errors.Is(err, ErrContainer) {
				t.Errorf("Expected ErrContainer, got %v", err)
			}
			if _, err := WriteRecord(input, Record{}); !errors.Is(err, ErrContainer) {
				t.Errorf("Expected WriteRecord to fail with ErrContainer, got %v", err)
			}
		})
	}
}

func TestTrailerAndFillPreserved(t *testing.T) {
	data := createTestJPEG(t, 16, 16)
	// fill bytes before the first marker after SOI and data after EOI
	padded := append([]byte{0xFF, 0xD8, 0xFF, 0xFF}, data[2:]...)
	padded = append(padded, []byte("TRAILER")...)

	out, err := WriteRecord(padded, Record{Given: "Alice"})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if !bytes.HasSuffix(out, []byte{0xFF, 0xD9, 'T', 'R', 'A', 'I', 'L', 'E', 'R'}) {
		t.Error("Expected EOI followed by the trailer at the end of the stream")
	}
	if !bytes.HasPrefix(out, padded[:8]) {
		t.Error("Expected the fill bytes to be preserved")
	}
}

func TestWrittenFileStillDecodes(t *testing.T) {
	data := createTestJPEG(t, 64, 48)

	out, err := WriteRecord(data, Record{Given: "Alice", Family: "Dupont", X: 32, Y: 24, W: 20})
	if err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("jpeg.Decode failed after WriteRecord: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Expected 64x48, got %v", img.Bounds())
	}
}

func BenchmarkWriteRecord(b *testing.B) {
	data := createTestJPEG(b, 640, 480)
	rec := Record{Given: "Alice", Family: "Dupont", X: 320, Y: 240, W: 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := WriteRecord(data, rec); err != nil {
			b.Fatal(err)
		}
	}
}
