package vectorindex

import (
	"errors"
	"fmt"
)

// DimensionError reports an embedding whose length does not match the index
// dimension. The insert that produced it is not retried.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: got %d, expected %d", e.Got, e.Want)
}

// ErrDuplicateID is returned by Insert when the id is already present.
// The reference behavior allowed silent duplicates with undefined lookup
// precedence; uniqueness is enforced here instead.
var ErrDuplicateID = errors.New("vector id already exists")

// ErrNotFound is returned by Delete when no entry has the given id.
var ErrNotFound = errors.New("vector id not found")
