package serializer

import (
	"fmt"
	"mime"
	"strings"
)

const (
	FormatXML  = "xml"
	FormatText = "text"
)

// Format pairs a Reader and a Writer that target the same wire
// representation, so data written by Writer can be read back by Reader.
// A Format is itself a Serializer.
type Format[T any] struct {
	Reader Reader[T]
	Writer Writer[T]
	Name   string
}

func NewFormat[T any](name string, reader Reader[T], writer Writer[T]) (Format[T], error) {
	if name == "" {
		return Format[T]{}, fmt.Errorf("%w: empty name", ErrBadFormat)
	}

	if reader == nil || writer == nil {
		return Format[T]{}, fmt.Errorf("%w: %q needs both a reader and a writer", ErrBadFormat, name)
	}

	if !sameMediaType(reader.GetContentType(), writer.GetContentType()) {
		return Format[T]{}, fmt.Errorf(
			"%w: %q reads %s, writes %s",
			ErrFormatMismatch,
			name,
			reader.GetContentType(),
			writer.GetContentType(),
		)
	}

	return Format[T]{Name: name, Reader: reader, Writer: writer}, nil
}

func mustFormat[T any](name string, reader Reader[T], writer Writer[T]) Format[T] {
	f, err := NewFormat(name, reader, writer)
	if err != nil {
		panic(err)
	}

	return f
}

// Formats returns every archive format pair, XML first.
func Formats[T any]() []Format[T] {
	return []Format[T]{
		mustFormat[T](FormatXML, XMLReader[T]{}, XMLWriter[T]{Indent: "\t"}),
		mustFormat[T](FormatText, TextReader[T]{}, TextWriter[T]{}),
	}
}

func ParseFormat[T any](name string) (Format[T], error) {
	canonical, ok := map[string]string{
		"x":    FormatXML,
		"xml":  FormatXML,
		"t":    FormatText,
		"txt":  FormatText,
		"text": FormatText,
	}[strings.ToLower(strings.TrimSpace(name))]

	if ok {
		for _, f := range Formats[T]() {
			if f.Name == canonical {
				return f, nil
			}
		}
	}

	return Format[T]{}, fmt.Errorf("%w: %q", ErrBadFormat, name)
}

// ByContentType finds the format whose writer produces contentType.
// MIME parameters such as charset are ignored.
func ByContentType[T any](contentType string) (Format[T], bool) {
	for _, f := range Formats[T]() {
		if sameMediaType(f.GetContentType(), contentType) {
			return f, true
		}
	}

	return Format[T]{}, false
}

// ReaderFor picks the reader for a message's content type: JSON or one of
// Formats. Empty and unknown content types get fallback.
func ReaderFor[T any](contentType string, fallback Reader[T]) Reader[T] {
	if sameMediaType(contentType, ContentTypeJSON) {
		return JSON[T]{}
	}

	if f, ok := ByContentType[T](contentType); ok {
		return f.Reader
	}

	return fallback
}

func (f Format[T]) Marshal(v T) ([]byte, error) {
	return f.Writer.Marshal(v)
}

func (f Format[T]) Unmarshal(data []byte) (T, error) {
	return f.Reader.Unmarshal(data)
}

func (f Format[T]) GetContentType() string {
	return f.Writer.GetContentType()
}

func (f Format[T]) String() string {
	return f.Name
}

// Suffix returns the file extension for this format (including the dot).
func (f Format[T]) Suffix() string {
	switch f.Name {
	case FormatXML:
		return ".xml"
	case FormatText:
		return ".txt"
	default:
		return ""
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}

	return mt
}

func sameMediaType(a, b string) bool {
	return a != "" && mediaType(a) == mediaType(b)
}
