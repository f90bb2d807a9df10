package search

import "fmt"

// Method selects which embedding backend serves a search.
type Method string

const (
	// MethodAuto picks remote when configured, then local, then keyword.
	MethodAuto Method = "auto"

	// MethodRemote forces the remote embedding backend.
	MethodRemote Method = "remote"

	// MethodLocal forces the in-process embedding backend.
	MethodLocal Method = "local"

	// MethodKeyword skips embeddings entirely and searches lexically.
	MethodKeyword Method = "keyword"
)

// ParseMethod validates a method name from user input.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodAuto, MethodRemote, MethodLocal, MethodKeyword:
		return Method(s), nil
	case "":
		return MethodAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}
