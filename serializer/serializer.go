package serializer

type (
	// Reader decodes a single archive into a value of T.
	Reader[T any] interface {
		Unmarshal([]byte) (T, error)
		GetContentType() string
	}

	// Writer encodes a value of T into a single archive.
	Writer[T any] interface {
		Marshal(T) ([]byte, error)
		GetContentType() string
	}

	Serializer[T any] interface {
		Reader[T]
		Writer[T]
	}
)
