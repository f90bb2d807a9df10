package backfill

import "errors"

// ErrInvalidMethod is returned when a backfill is requested with a
// method that cannot produce embeddings, such as keyword.
var ErrInvalidMethod = errors.New("backfill requires an embedding method")
