package utils

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Alice @ Dupont.jpg", true},
		{"photo.JPEG", true},
		{"scan.webp", true},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsJPEGFile(t *testing.T) {
	if !IsJPEGFile("a.JPG") || !IsJPEGFile("b.jpeg") {
		t.Error("Expected .JPG and .jpeg to be JPEG files")
	}
	if IsJPEGFile("c.png") {
		t.Error("Expected .png not to be a JPEG file")
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		in, dir, prefix, suffix, format string
		want                            string
	}{
		{"/photos/Alice @ Dupont.jpg", "out", "", "", "", filepath.Join("out", "Alice @ Dupont.jpg")},
		{"/photos/Alice @ Dupont.jpg", "out", "", "_overlay", "png", filepath.Join("out", "Alice @ Dupont_overlay.png")},
		{"noext", "out", "crop_", "", "", filepath.Join("out", "crop_noext.jpg")},
		{"a.jpg", "out", "x:", "", "webp", filepath.Join("out", "x_a.webp")},
	}

	for _, tt := range tests {
		got := GenerateOutputFilename(tt.in, tt.dir, tt.prefix, tt.suffix, tt.format)
		if got != tt.want {
			t.Errorf("GenerateOutputFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "notes.txt", ".b.jpg.123.tmp", ".hidden.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.jpg")}
	if !slices.Equal(got, want) {
		t.Errorf("ListImageFiles = %v, want %v", got, want)
	}

	if _, err := ListImageFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if DirExists(dir) {
		t.Fatal("Expected directory not to exist yet")
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !DirExists(dir) {
		t.Error("Expected directory to exist")
	}
	if FileExists(dir) {
		t.Error("Expected FileExists to be false for a directory")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a/b:c. "); got != "a_b_c" {
		t.Errorf("SanitizeFilename = %q, want %q", got, "a_b_c")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		5 << 20: "5.0 MB",
	}
	for in, want := range tests {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}
