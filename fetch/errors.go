package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fetch package.
var (
	// ErrBadManifest is returned when a manifest body does not match the
	// expected schema.
	ErrBadManifest = errors.New("fetch: malformed manifest")

	// ErrNoImageURL is returned for an asset without a 1x image URL.
	ErrNoImageURL = errors.New("fetch: asset has no image url")

	// ErrUnknownKind is returned for a manifest kind other than KindEmotes
	// or KindBadges.
	ErrUnknownKind = errors.New("fetch: unknown manifest kind")
)

// StatusError is returned when the upstream answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d from %s", e.StatusCode, e.URL)
}
