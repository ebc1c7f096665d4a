// Package models defines the shared data types for the GenStudio server:
// interaction modes, sampling parameters, run state, chat transcripts,
// history entries, and the tagged output variant the view layer renders.
package models

import (
	"fmt"
	"time"
)

// ── Modes ────────────────────────────────────────────────────

// Mode selects which gateway operation a run invokes.
type Mode string

const (
	ModeFreeform Mode = "freeform"
	ModeChat     Mode = "chat"
	ModeImage    Mode = "image"
	ModeVideo    Mode = "video"
)

// ParseMode validates a mode string from the wire.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFreeform, ModeChat, ModeImage, ModeVideo:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ── Sampling parameters ──────────────────────────────────────

// ModelParams are the sampling parameters for text-style generation.
// They apply only to the freeform and chat paths.
type ModelParams struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"topK"`
	TopP        float64 `json:"topP"`
}

// DefaultParams returns the default sampling parameters.
func DefaultParams() ModelParams {
	return ModelParams{Temperature: 0.7, TopK: 40, TopP: 0.95}
}

// Validate checks each parameter against its allowed range.
func (p ModelParams) Validate() error {
	if p.Temperature < 0 || p.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0,1]", p.Temperature)
	}
	if p.TopK < 1 || p.TopK > 100 {
		return fmt.Errorf("topK %d out of range [1,100]", p.TopK)
	}
	if p.TopP < 0 || p.TopP > 1 {
		return fmt.Errorf("topP %v out of range [0,1]", p.TopP)
	}
	return nil
}

// ── Chat ─────────────────────────────────────────────────────

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one turn in a conversation transcript.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ── Output ───────────────────────────────────────────────────

// OutputKind tags the mode-specific shape of a run result.
type OutputKind string

const (
	OutputText   OutputKind = "text"
	OutputImages OutputKind = "images"
	OutputVideo  OutputKind = "video"
)

// Output is the tagged variant of a completed run's result. Exactly one
// of the payload fields is populated, selected by Kind: Text for text
// results, Images for a list of renderable data URIs, VideoID for a media
// store handle served at /api/v1/media/{id}.
type Output struct {
	Kind    OutputKind `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Images  []string   `json:"images,omitempty"`
	VideoID string     `json:"videoId,omitempty"`
}

// TextOutput wraps a plain text result.
func TextOutput(text string) Output {
	return Output{Kind: OutputText, Text: text}
}

// ImagesOutput wraps a list of renderable image data URIs.
func ImagesOutput(uris []string) Output {
	return Output{Kind: OutputImages, Images: uris}
}

// VideoOutput wraps a media store handle for a fetched video.
func VideoOutput(id string) Output {
	return Output{Kind: OutputVideo, VideoID: id}
}

// ── History ──────────────────────────────────────────────────

// HistoryItem is one completed interaction, recorded exactly once per
// successful run or chat exchange. Never mutated after creation.
type HistoryItem struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Prompt    string    `json:"prompt"`
	Output    Output    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// Replay is the read-only projection of a history item used to
// repopulate the view without re-invoking the gateway.
type Replay struct {
	Mode   Mode   `json:"mode"`
	Prompt string `json:"prompt"`
	Output Output `json:"output"`
}

// ── Run state ────────────────────────────────────────────────

// ErrorKind classifies a surfaced failure by cause.
type ErrorKind string

const (
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindAuth        ErrorKind = "auth_invalid"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindService     ErrorKind = "service_failure"
)

// RunSnapshot is a point-in-time copy of the orchestrator's visible state.
type RunSnapshot struct {
	Mode      Mode      `json:"mode"`
	Prompt    string    `json:"prompt"`
	Busy      bool      `json:"busy"`
	Progress  string    `json:"progress,omitempty"`
	Output    *Output   `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
}
