// Package serializertest runs round-trip checks once per archive format.
//
//	func TestOrderRoundTrip(t *testing.T) {
//		serializertest.RoundTrip(t, Order{ID: 7, Items: []string{"a", "b"}})
//	}
package serializertest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nano-interactive/go-amqp-archive/serializer"
)

// ForEachFormat runs fn as a subtest named after every format pair.
func ForEachFormat[T any](t *testing.T, fn func(t *testing.T, format serializer.Format[T])) {
	t.Helper()

	for _, format := range serializer.Formats[T]() {
		t.Run(format.Name, func(t *testing.T) {
			fn(t, format)
		})
	}
}

// RoundTrip writes value with each format's writer, reads it back with the
// same format's reader and fails the test when the result differs. Empty and
// nil slices and maps are treated as equal.
func RoundTrip[T any](t *testing.T, value T, opts ...cmp.Option) {
	t.Helper()

	opts = append([]cmp.Option{cmpopts.EquateEmpty()}, opts...)

	ForEachFormat(t, func(t *testing.T, format serializer.Format[T]) {
		t.Helper()

		data, err := format.Writer.Marshal(value)
		if err != nil {
			t.Fatalf("%s: marshal: %v", format.Name, err)
		}

		got, err := format.Reader.Unmarshal(data)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v\narchive:\n%s", format.Name, err, data)
		}

		if diff := cmp.Diff(value, got, opts...); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", format.Name, diff)
		}
	})
}
