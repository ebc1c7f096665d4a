// Package studio implements the orchestration core: the run
// orchestrator driving one generation at a time, the chat session
// manager owning the live transcript, and failure classification.
package studio

import (
	"context"
	"errors"

	"github.com/genstudio/genstudio/internal/genai"
	"github.com/genstudio/genstudio/pkg/models"
)

// ErrBusy is returned when a run or send is already in flight. Callers
// must not queue; a rejected trigger is simply dropped.
var ErrBusy = errors.New("a request is already in flight")

// Gateway is the service boundary the orchestration core depends on.
// *genai.Client is the production implementation; tests substitute
// stubs.
type Gateway interface {
	GenerateText(ctx context.Context, prompt string, params models.ModelParams) (string, error)
	GenerateImages(ctx context.Context, prompt string) ([]string, error)
	GenerateVideo(ctx context.Context, prompt string, onProgress genai.ProgressFunc) ([]byte, error)
	NewSession() *genai.Session
	StreamMessage(ctx context.Context, s *genai.Session, message string, onChunk genai.StreamFunc) (string, error)
}
