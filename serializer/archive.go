package serializer

import "fmt"

const (
	// ArchiveSignature opens every XML and text archive.
	ArchiveSignature = "serialization::archive"
	// ArchiveVersion is the newest archive version this package writes and reads.
	ArchiveVersion uint = 1
)

func checkHeader(signature string, version uint) error {
	if signature != ArchiveSignature {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, signature)
	}

	if version > ArchiveVersion {
		return fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, ArchiveVersion)
	}

	return nil
}
