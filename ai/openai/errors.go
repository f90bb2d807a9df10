package openai

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/poiesic/recall/ai"
)

// normalizeAPIError maps transport errors onto the ai error taxonomy so
// callers can react per class: bad credential, throttling, or a
// server-side failure. Anything unclassifiable wraps ErrEmbeddingFailed.
func normalizeAPIError(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ai.ErrInvalidCredential, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", ai.ErrUpstream, err)
	default:
		return fmt.Errorf("%w: %v", ai.ErrEmbeddingFailed, err)
	}
}
