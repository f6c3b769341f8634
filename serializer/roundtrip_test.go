package serializer_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nano-interactive/go-amqp-archive/serializer"
	"github.com/nano-interactive/go-amqp-archive/serializer/serializertest"
)

type (
	Address struct {
		Street string
		Number int
	}

	audit struct {
		CreatedBy string
		Revision  int
	}

	Document struct {
		audit
		Title string
	}

	Person struct {
		Born     time.Time
		Manager  *Address
		Name     string
		Notes    string
		Emails   []string
		Homes    []Address
		Height   float64
		Age      uint8
		Employed bool
	}
)

func TestFormatsRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("String", func(t *testing.T) {
		serializertest.RoundTrip(t, "plain string with  spaces")
	})

	t.Run("EmptyString", func(t *testing.T) {
		serializertest.RoundTrip(t, "")
	})

	t.Run("Int", func(t *testing.T) {
		serializertest.RoundTrip(t, int64(-9223372036854775808))
	})

	t.Run("Float", func(t *testing.T) {
		serializertest.RoundTrip(t, 3.141592653589793)
	})

	t.Run("Struct", func(t *testing.T) {
		serializertest.RoundTrip(t, Person{
			Born:     time.Date(1990, 2, 3, 4, 5, 6, 7, time.UTC),
			Manager:  &Address{Street: "Main", Number: 1},
			Name:     "Ada Lovelace",
			Notes:    "line one\nline two & <three>",
			Emails:   []string{"ada@example.com", "a@b.c"},
			Homes:    []Address{{Street: "First", Number: 10}, {Street: "Second street", Number: -2}},
			Height:   1.65,
			Age:      36,
			Employed: true,
		})
	})

	t.Run("ZeroStruct", func(t *testing.T) {
		serializertest.RoundTrip(t, Person{})
	})

	t.Run("UnexportedEmbeddedStruct", func(t *testing.T) {
		serializertest.RoundTrip(t, Document{
			audit: audit{CreatedBy: "ada", Revision: 7},
			Title: "minutes",
		}, cmp.AllowUnexported(Document{}))
	})

	t.Run("Slice", func(t *testing.T) {
		serializertest.RoundTrip(t, []Address{{Street: "x"}, {Number: 3}})
	})
}

func TestFormatsCrossRead(t *testing.T) {
	t.Parallel()

	value := Address{Street: "Main", Number: 7}
	formats := serializer.Formats[Address]()

	for _, writer := range formats {
		for _, reader := range formats {
			if writer.Name == reader.Name {
				continue
			}

			t.Run(writer.Name+"_to_"+reader.Name, func(t *testing.T) {
				t.Parallel()
				assert := require.New(t)

				data, err := writer.Marshal(value)
				assert.NoError(err)

				_, err = reader.Unmarshal(data)
				assert.Error(err)
			})
		}
	}
}

func TestForEachFormat(t *testing.T) {
	t.Parallel()

	var seen []string

	serializertest.ForEachFormat(t, func(t *testing.T, format serializer.Format[Address]) {
		seen = append(seen, format.Name)
		require.Equal(t, format.Reader.GetContentType(), format.Writer.GetContentType())
	})

	require.Equal(t, []string{serializer.FormatXML, serializer.FormatText}, seen)
}
