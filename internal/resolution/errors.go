package resolution

import (
	"errors"
	"fmt"
)

var (
	// ErrFamilyNotConfigured is returned for requests of a family and variant that is not
	// part of the most recently submitted batch.
	ErrFamilyNotConfigured = errors.New("font family not configured")
	// ErrResourceConflict is returned when a key was first encountered with another locator.
	// The conflict is permanent: the originally recorded locator is kept.
	ErrResourceConflict = errors.New("resource conflict")
	// ErrDecodeOrFetchFailed is returned for resources whose fetch or decode failed. Failures
	// are cached and never retried.
	ErrDecodeOrFetchFailed = errors.New("resource could not be fetched or decoded")
	// ErrConsumerUnavailable is returned when a resolved artifact could not be applied to the
	// requested consumer. Cache state is not affected.
	ErrConsumerUnavailable = errors.New("consumer unavailable")
)

func familyNotConfigured(family, variant string) error {
	return fmt.Errorf("%w: font family %q with variant %q is not defined, it must be part of the submitted font faces",
		ErrFamilyNotConfigured, family, variant)
}

func resourceConflict(key ResourceKey, recorded, requested string) error {
	return fmt.Errorf("%w: %s was first requested from %q and cannot be requested from %q",
		ErrResourceConflict, key, recorded, requested)
}

func decodeOrFetchFailed(family, variant string, locator string, cause error) error {
	return fmt.Errorf("%w: unable to use font family %q with variant %q served by %q: %w",
		ErrDecodeOrFetchFailed, family, variant, locator, cause)
}
