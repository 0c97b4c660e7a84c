package fileid

import (
	"github.com/google/uuid"
)

// New returns a fresh random 128-bit file identifier in its canonical
// string form. This is the only identifier ever exposed to callers.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether the string parses as a file identifier.
func IsValid(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
