package similarity

import "errors"

// ErrDimensionMismatch is returned when two vectors of different lengths
// are compared. Embeddings from different models are never comparable.
var ErrDimensionMismatch = errors.New("vector dimensions do not match")
