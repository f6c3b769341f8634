package serializer

import (
	"bufio"
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// preallocation cap for slices and maps, the declared count comes from the
// archive and is not trusted
const maxPrealloc = 1024

type TextReader[T any] struct{}

func (r TextReader[T]) Decode(in io.Reader) (T, error) {
	var value T

	dec := &textDecoder{r: bufio.NewReader(in)}

	if err := dec.header(); err != nil {
		return value, err
	}

	if err := dec.value(reflect.ValueOf(&value).Elem()); err != nil {
		var zero T
		return zero, err
	}

	if err := dec.end(); err != nil {
		var zero T
		return zero, err
	}

	return value, nil
}

func (r TextReader[T]) Unmarshal(data []byte) (T, error) {
	return r.Decode(bytes.NewReader(data))
}

func (r TextReader[T]) GetContentType() string {
	return ContentTypeText
}

type textDecoder struct {
	r     *bufio.Reader
	depth int
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

func (d *textDecoder) skipSpace() error {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}

		if !isSpace(b) {
			return d.r.UnreadByte()
		}
	}
}

func (d *textDecoder) token() (string, error) {
	if err := d.skipSpace(); err != nil {
		return "", unexpectedEOF(err)
	}

	var sb strings.Builder

	for {
		b, err := d.r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", err
		}

		if isSpace(b) {
			if err = d.r.UnreadByte(); err != nil {
				return "", err
			}
			break
		}

		sb.WriteByte(b)
	}

	return sb.String(), nil
}

func (d *textDecoder) length() (int, error) {
	tok, err := d.token()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseUint(tok, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrMalformedArchive, tok)
	}

	return int(n), nil
}

func (d *textDecoder) str() (string, error) {
	n, err := d.length()
	if err != nil || n == 0 {
		return "", err
	}

	sep, err := d.r.ReadByte()
	if err != nil {
		return "", unexpectedEOF(err)
	}

	if sep != ' ' {
		return "", fmt.Errorf("%w: expected separator after length, got %q", ErrMalformedArchive, sep)
	}

	var buf strings.Builder

	copied, err := io.CopyN(&buf, d.r, int64(n))
	if copied < int64(n) {
		return "", unexpectedEOF(err)
	}

	return buf.String(), nil
}

func (d *textDecoder) header() error {
	signature, err := d.str()
	if err != nil {
		return err
	}

	tok, err := d.token()
	if err != nil {
		return err
	}

	version, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", ErrMalformedArchive, tok)
	}

	return checkHeader(signature, uint(version))
}

func (d *textDecoder) end() error {
	err := d.skipSpace()
	if errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return err
	}

	return ErrTrailingData
}

func (d *textDecoder) value(v reflect.Value) error {
	d.depth++
	defer func() { d.depth-- }()

	if d.depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedType, maxDepth)
	}

	t := v.Type()

	if isText(t) {
		s, err := d.str()
		if err != nil {
			return err
		}

		ptr := reflect.New(t)
		if err = ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return err
		}

		v.Set(ptr.Elem())
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		tok, err := d.token()
		if err != nil {
			return err
		}

		switch tok {
		case "0":
			v.SetBool(false)
		case "1":
			v.SetBool(true)
		default:
			return fmt.Errorf("%w: invalid bool %q", ErrMalformedArchive, tok)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		tok, err := d.token()
		if err != nil {
			return err
		}

		n, err := strconv.ParseInt(tok, 10, t.Bits())
		if err != nil {
			return fmt.Errorf("%w: invalid %s %q", ErrMalformedArchive, t, tok)
		}

		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		tok, err := d.token()
		if err != nil {
			return err
		}

		n, err := strconv.ParseUint(tok, 10, t.Bits())
		if err != nil {
			return fmt.Errorf("%w: invalid %s %q", ErrMalformedArchive, t, tok)
		}

		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		tok, err := d.token()
		if err != nil {
			return err
		}

		f, err := strconv.ParseFloat(tok, t.Bits())
		if err != nil {
			return fmt.Errorf("%w: invalid %s %q", ErrMalformedArchive, t, tok)
		}

		v.SetFloat(f)
	case reflect.String:
		s, err := d.str()
		if err != nil {
			return err
		}

		v.SetString(s)
	case reflect.Slice:
		return d.sliceValue(v)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := d.value(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		return d.mapValue(v)
	case reflect.Pointer:
		tok, err := d.token()
		if err != nil {
			return err
		}

		switch tok {
		case "0":
			v.SetZero()
		case "1":
			ptr := reflect.New(t.Elem())
			if err = d.value(ptr.Elem()); err != nil {
				return err
			}

			v.Set(ptr)
		default:
			return fmt.Errorf("%w: invalid pointer tag %q", ErrMalformedArchive, tok)
		}
	case reflect.Struct:
		fields, err := archivedFields(t)
		if err != nil {
			return err
		}

		for _, path := range fields {
			if err = d.value(v.FieldByIndex(path)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return nil
}

func (d *textDecoder) sliceValue(v reflect.Value) error {
	t := v.Type()

	if t.Elem().Kind() == reflect.Uint8 {
		s, err := d.str()
		if err != nil {
			return err
		}

		if s == "" {
			v.SetZero()
			return nil
		}

		b := reflect.New(t).Elem()
		b.SetBytes([]byte(s))
		v.Set(b)

		return nil
	}

	n, err := d.length()
	if err != nil {
		return err
	}

	if n == 0 {
		v.SetZero()
		return nil
	}

	// Elements without tokens consume no input, so the count alone decides
	// how much gets allocated.
	if readsNothing(t.Elem()) {
		if t.Elem().Size() > 0 && n > maxPrealloc {
			return fmt.Errorf("%w: %d elements of %s carry no data", ErrMalformedArchive, n, t.Elem())
		}

		v.Set(reflect.MakeSlice(t, n, n))
		return nil
	}

	s := reflect.MakeSlice(t, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		elem := reflect.New(t.Elem()).Elem()
		if err = d.value(elem); err != nil {
			return err
		}

		s = reflect.Append(s, elem)
	}

	v.Set(s)
	return nil
}

func (d *textDecoder) mapValue(v reflect.Value) error {
	t := v.Type()

	n, err := d.length()
	if err != nil {
		return err
	}

	if n == 0 {
		v.SetZero()
		return nil
	}

	// Every entry decodes to the same zero key and value.
	if readsNothing(t.Key()) && readsNothing(t.Elem()) {
		m := reflect.MakeMapWithSize(t, 1)
		m.SetMapIndex(reflect.New(t.Key()).Elem(), reflect.New(t.Elem()).Elem())
		v.Set(m)

		return nil
	}

	m := reflect.MakeMapWithSize(t, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		key := reflect.New(t.Key()).Elem()
		if err = d.value(key); err != nil {
			return err
		}

		elem := reflect.New(t.Elem()).Elem()
		if err = d.value(elem); err != nil {
			return err
		}

		m.SetMapIndex(key, elem)
	}

	v.Set(m)
	return nil
}
