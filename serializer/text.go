package serializer

import (
	"bufio"
	"bytes"
	"encoding"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
)

const ContentTypeText = "text/plain"

// maxDepth bounds nesting so self-referencing pointers fail instead of
// recursing forever.
const maxDepth = 512

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// TextWriter writes values as a plain-text archive of whitespace separated
// tokens. Strings are written as "<byte length> <bytes>", so the archive
// header reads "22 serialization::archive 1".
type TextWriter[T any] struct{}

func (w TextWriter[T]) Encode(out io.Writer, v T) error {
	buf := bufio.NewWriter(out)
	enc := &textEncoder{w: buf}

	enc.str(ArchiveSignature)
	enc.token(strconv.FormatUint(uint64(ArchiveVersion), 10))

	if err := enc.value(reflect.ValueOf(&v).Elem()); err != nil {
		return err
	}

	if err := buf.WriteByte('\n'); err != nil {
		return err
	}

	return buf.Flush()
}

func (w TextWriter[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer

	if err := w.Encode(&buf, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (w TextWriter[T]) GetContentType() string {
	return ContentTypeText
}

type textEncoder struct {
	w      *bufio.Writer
	tokens int
	depth  int
}

// Write errors are sticky on bufio.Writer and surface on Flush.
func (e *textEncoder) token(s string) {
	if e.tokens > 0 {
		_ = e.w.WriteByte(' ')
	}

	_, _ = e.w.WriteString(s)
	e.tokens++
}

func (e *textEncoder) str(s string) {
	e.token(strconv.Itoa(len(s)))

	if len(s) > 0 {
		_ = e.w.WriteByte(' ')
		_, _ = e.w.WriteString(s)
	}
}

func isText(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}

	ptr := reflect.PointerTo(t)

	return (t.Implements(textMarshalerType) || ptr.Implements(textMarshalerType)) &&
		ptr.Implements(textUnmarshalerType)
}

// archivedFields lists the index paths of the fields a struct archives, in
// declaration order. An embedded struct with an unexported type name is
// archived through its own fields, as encoding/json does.
func archivedFields(t reflect.Type) ([][]int, error) {
	fields := make([][]int, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("archive") == "-" {
			continue
		}

		if f.Anonymous && !f.IsExported() {
			switch {
			case f.Type.Kind() == reflect.Struct:
				inner, err := archivedFields(f.Type)
				if err != nil {
					return nil, err
				}

				for _, path := range inner {
					fields = append(fields, append([]int{i}, path...))
				}
			case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
				// A nil embedded pointer to an unexported type cannot be allocated on decode.
				return nil, fmt.Errorf("%w: embedded pointer to unexported %s in %s", ErrUnsupportedType, f.Type.Elem(), t)
			}

			continue
		}

		if !f.IsExported() {
			continue
		}

		fields = append(fields, []int{i})
	}

	return fields, nil
}

// readsNothing reports whether values of t are archived as zero tokens.
func readsNothing(t reflect.Type) bool {
	if isText(t) {
		return false
	}

	switch t.Kind() {
	case reflect.Array:
		return t.Len() == 0 || readsNothing(t.Elem())
	case reflect.Struct:
		fields, err := archivedFields(t)
		if err != nil {
			return false
		}

		for _, path := range fields {
			if !readsNothing(t.FieldByIndex(path).Type) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func (e *textEncoder) value(v reflect.Value) error {
	e.depth++
	defer func() { e.depth-- }()

	if e.depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedType, maxDepth)
	}

	t := v.Type()

	if isText(t) {
		ptr := reflect.New(t)
		ptr.Elem().Set(v)

		text, err := ptr.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}

		e.str(string(text))
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		if v.Bool() {
			e.token("1")
		} else {
			e.token("0")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.token(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.token(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.token(strconv.FormatFloat(v.Float(), 'g', -1, t.Bits()))
	case reflect.String:
		e.str(v.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			e.str(string(v.Bytes()))
			return nil
		}

		e.token(strconv.Itoa(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		return e.mapValue(v)
	case reflect.Pointer:
		if v.IsNil() {
			e.token("0")
			return nil
		}

		e.token("1")
		return e.value(v.Elem())
	case reflect.Struct:
		fields, err := archivedFields(t)
		if err != nil {
			return err
		}

		for _, path := range fields {
			if err = e.value(v.FieldByIndex(path)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return nil
}

// mapValue writes entries ordered by their encoded key so equal maps
// produce equal archives.
func (e *textEncoder) mapValue(v reflect.Value) error {
	type entry struct {
		key, value string
	}

	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()

	for iter.Next() {
		key, err := e.fragment(iter.Key())
		if err != nil {
			return err
		}

		value, err := e.fragment(iter.Value())
		if err != nil {
			return err
		}

		entries = append(entries, entry{key: key, value: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	e.token(strconv.Itoa(len(entries)))
	for _, en := range entries {
		e.token(en.key)
		e.token(en.value)
	}

	return nil
}

func (e *textEncoder) fragment(v reflect.Value) (string, error) {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)
	sub := &textEncoder{w: w, depth: e.depth}

	if err := sub.value(v); err != nil {
		return "", err
	}

	if err := w.Flush(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
