package studio

import (
	"context"
	"errors"
	"strings"

	"github.com/genstudio/genstudio/internal/genai"
	"github.com/genstudio/genstudio/pkg/models"
)

// classify maps a gateway failure to an error kind and the message
// shown to the user. Quota and credential failures get friendly
// guidance; everything else surfaces verbatim.
func classify(err error) (models.ErrorKind, string) {
	switch {
	case errors.Is(err, genai.ErrPollTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.ErrKindTimeout, err.Error()
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(msg, "429"):
		return models.ErrKindRateLimited, "Too many requests. Please wait a moment and try again."
	case strings.Contains(msg, "API_KEY"),
		strings.Contains(msg, "API key"),
		strings.Contains(msg, "status 401"),
		strings.Contains(msg, "status 403"):
		return models.ErrKindAuth, "The API key is invalid or missing. Please check your configuration."
	}
	return models.ErrKindService, msg
}
