// Package local implements ai.Embedder with an in-process hashed-token
// sentence encoder. It needs no network access or configuration and
// produces 384-dimension unit vectors, making it the always-available
// fallback when remote embedding is unconfigured or failing.
package local
