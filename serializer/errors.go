package serializer

import "errors"

var (
	ErrBadFormat          = errors.New("bad format")
	ErrFormatMismatch     = errors.New("reader and writer target different wire formats")
	ErrInvalidSignature   = errors.New("invalid archive signature")
	ErrUnsupportedVersion = errors.New("unsupported archive version")
	ErrUnsupportedType    = errors.New("type cannot be archived")
	ErrTrailingData       = errors.New("trailing data after archive")
	ErrMalformedArchive   = errors.New("malformed text archive")
)
