package types

import "testing"

func TestIdentityFromPath(t *testing.T) {
	tests := []struct {
		path   string
		given  string
		family string
	}{
		{"Alice @ Dupont.jpg", "Alice", "Dupont"},
		{"IMG_0042.JPG", "IMG_0042", MissingFamily},
		{"/photos/6B/John @ Smith.jpeg", "John", "Smith"},
		{"Jean-Pierre@Le Gall.jpg", "Jean-Pierre", "Le Gall"},
		{"a @ b @ c.jpg", "a", "b"},
		{"@ Nobody.jpg", "", "Nobody"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id := IdentityFromPath(tt.path)
			if id.Given != tt.given {
				t.Errorf("Given = %q, want %q", id.Given, tt.given)
			}
			if id.Family != tt.family {
				t.Errorf("Family = %q, want %q", id.Family, tt.family)
			}
		})
	}
}

func TestNewRotation(t *testing.T) {
	tests := []struct {
		in   int
		want Rotation
	}{
		{0, 0}, {1, 1}, {3, 3}, {4, 0}, {5, 1}, {-1, 3}, {-2, 2}, {-5, 3},
	}

	for _, tt := range tests {
		if got := NewRotation(tt.in); got != tt.want {
			t.Errorf("NewRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRotationWraps(t *testing.T) {
	r := Rotation(0)
	var left []Rotation
	for i := 0; i < 5; i++ {
		r = r.Left()
		left = append(left, r)
	}
	wantLeft := []Rotation{3, 2, 1, 0, 3}
	for i := range wantLeft {
		if left[i] != wantLeft[i] {
			t.Fatalf("left from 0 visited %v, want %v", left, wantLeft)
		}
	}

	r = Rotation(3)
	var right []Rotation
	for i := 0; i < 5; i++ {
		r = r.Right()
		right = append(right, r)
	}
	wantRight := []Rotation{0, 1, 2, 3, 0}
	for i := range wantRight {
		if right[i] != wantRight[i] {
			t.Fatalf("right from 3 visited %v, want %v", right, wantRight)
		}
	}
}

func TestRotationFromOrientation(t *testing.T) {
	tests := map[int]Rotation{0: 0, 1: 0, 2: 0, 3: 2, 6: 1, 8: 3}
	for in, want := range tests {
		if got := RotationFromOrientation(in); got != want {
			t.Errorf("RotationFromOrientation(%d) = %d, want %d", in, got, want)
		}
	}
}
