package logging

import (
	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Path adds the file being worked on.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Index adds the position of a photo in the batch.
func Index(i int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("index", i)
	}
}

// Count adds a number of items.
func Count(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("count", n)
	}
}

// Rotation adds a rotation in quarter turns.
func Rotation(r int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("rotation", r)
	}
}

// Crop adds the crop rectangle center and width.
func Crop(x, y, w int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("x", x).Int("y", y).Int("w", w)
	}
}

// Action adds the controller action being handled.
func Action(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action", name)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
