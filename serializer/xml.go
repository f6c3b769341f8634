package serializer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
)

const ContentTypeXML = "application/xml"

type (
	// XMLWriter writes values as
	//
	//	<archive signature="serialization::archive" version="1"><item>...</item></archive>
	//
	// Item types follow encoding/xml rules and must not pin their own
	// XMLName, the element is always named item. encoding/xml cannot read
	// fixed-size arrays back, so types holding one are rejected with
	// ErrUnsupportedType; use a slice instead.
	XMLWriter[T any] struct {
		Indent string
	}

	XMLReader[T any] struct{}

	xmlArchive[T any] struct {
		XMLName   xml.Name `xml:"archive"`
		Signature string   `xml:"signature,attr"`
		Version   uint     `xml:"version,attr"`
		Item      T        `xml:"item"`
	}
)

var xmlUnmarshalerType = reflect.TypeOf((*xml.Unmarshaler)(nil)).Elem()

// xmlArray returns the first fixed-size array type reachable from t through
// the fields encoding/xml decodes, or nil.
func xmlArray(t reflect.Type, seen map[reflect.Type]bool) reflect.Type {
	if seen[t] {
		return nil
	}
	seen[t] = true

	ptr := reflect.PointerTo(t)
	if ptr.Implements(xmlUnmarshalerType) || ptr.Implements(textUnmarshalerType) {
		return nil
	}

	switch t.Kind() {
	case reflect.Array:
		return t
	case reflect.Pointer, reflect.Slice:
		return xmlArray(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if (!f.IsExported() && !f.Anonymous) || f.Tag.Get("xml") == "-" {
				continue
			}

			if a := xmlArray(f.Type, seen); a != nil {
				return a
			}
		}
	}

	return nil
}

func checkXMLType[T any]() error {
	if a := xmlArray(reflect.TypeFor[T](), map[reflect.Type]bool{}); a != nil {
		return fmt.Errorf("%w: %s cannot be read back from XML", ErrUnsupportedType, a)
	}

	return nil
}

func (w XMLWriter[T]) Encode(out io.Writer, v T) error {
	if err := checkXMLType[T](); err != nil {
		return err
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(out)
	if w.Indent != "" {
		enc.Indent("", w.Indent)
	}

	err := enc.Encode(xmlArchive[T]{
		Signature: ArchiveSignature,
		Version:   ArchiveVersion,
		Item:      v,
	})
	if err != nil {
		return err
	}

	if err = enc.Close(); err != nil {
		return err
	}

	_, err = io.WriteString(out, "\n")
	return err
}

func (w XMLWriter[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer

	if err := w.Encode(&buf, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (w XMLWriter[T]) GetContentType() string {
	return ContentTypeXML
}

func (r XMLReader[T]) Decode(in io.Reader) (T, error) {
	var archive xmlArchive[T]

	if err := checkXMLType[T](); err != nil {
		return archive.Item, err
	}

	if err := xml.NewDecoder(in).Decode(&archive); err != nil {
		var zero T
		return zero, err
	}

	if err := checkHeader(archive.Signature, archive.Version); err != nil {
		var zero T
		return zero, err
	}

	return archive.Item, nil
}

func (r XMLReader[T]) Unmarshal(data []byte) (T, error) {
	return r.Decode(bytes.NewReader(data))
}

func (r XMLReader[T]) GetContentType() string {
	return ContentTypeXML
}
