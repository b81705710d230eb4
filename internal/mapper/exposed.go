// ABOUTME: Equality, ordering, copying and hashing over the unmasked JSON form
// ABOUTME: Two values are equal when their exposed serializations are identical

package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Exposed returns the full JSON form of v with nothing masked. Map keys are
// sorted, so the form is canonical for a given value.
func Exposed(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return raw, nil
}

// Equal reports whether a and b have the same dynamic type and the same
// exposed form. Values that cannot be serialized are never equal.
func Equal(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	ra, err := Exposed(a)
	if err != nil {
		return false
	}
	rb, err := Exposed(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

// Compare orders a and b by their exposed forms.
func Compare(a, b any) (int, error) {
	ra, err := Exposed(a)
	if err != nil {
		return 0, err
	}
	rb, err := Exposed(b)
	if err != nil {
		return 0, err
	}
	return bytes.Compare(ra, rb), nil
}

// Copy returns a deep copy of src made by a round trip through its exposed
// form. Unexported and json:"-" fields are not copied.
func Copy[T any](src T) (T, error) {
	var dst T
	raw, err := Exposed(src)
	if err != nil {
		return dst, err
	}
	if err := Unmarshal(raw, &dst); err != nil {
		return dst, err
	}
	return dst, nil
}

// Hash returns the xxhash of the exposed form of v.
func Hash(v any) (uint64, error) {
	raw, err := Exposed(v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(raw), nil
}
