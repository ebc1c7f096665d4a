package studio

import (
	"context"
	"strings"
	"sync"

	"github.com/genstudio/genstudio/internal/genai"
	"github.com/genstudio/genstudio/internal/history"
	"github.com/genstudio/genstudio/pkg/models"
	"github.com/rs/zerolog/log"
)

// ChatManager owns exactly one active conversation handle and the
// visible transcript. Sessions are not resumable: Reset discards the
// transcript and creates a fresh handle.
type ChatManager struct {
	gw     Gateway
	ledger *history.Ledger

	mu         sync.Mutex
	epoch      uint64
	session    *genai.Session
	transcript []models.ChatMessage
	busy       bool
	errMsg     string
	errKind    models.ErrorKind
}

// NewChatManager creates a manager with a fresh session and an empty
// transcript. Creating the session sends nothing.
func NewChatManager(gw Gateway, ledger *history.Ledger) *ChatManager {
	return &ChatManager{
		gw:      gw,
		ledger:  ledger,
		session: gw.NewSession(),
	}
}

// Reset discards the transcript and any visible error and starts a new
// conversation handle. A send still in flight is abandoned; its late
// fragments and outcome are dropped.
func (m *ChatManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	m.session = m.gw.NewSession()
	m.transcript = nil
	m.busy = false
	m.errMsg = ""
	m.errKind = ""
}

// Transcript returns a copy of the conversation so far.
func (m *ChatManager) Transcript() []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ChatMessage, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// Snapshot reports the manager's visible state.
func (m *ChatManager) Snapshot() (busy bool, errMsg string, errKind models.ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy, m.errMsg, m.errKind
}

// Send delivers one user message on the active session and streams the
// model's reply. It reports whether a send was actually started: empty
// or whitespace-only messages are silently skipped, and a second call
// while one is in flight returns ErrBusy without touching the
// transcript.
//
// The user message is appended optimistically, followed by an empty
// placeholder model message whose text grows with each fragment. Each
// fragment is also forwarded to onFragment when non-nil. On success the
// exchange is recorded in the history ledger; on failure the
// placeholder is removed (the user message remains), the error is
// classified and stored, and nothing is written to history.
//
// Send blocks until the stream ends. Only one send may be in flight;
// rejected calls are dropped, never queued.
func (m *ChatManager) Send(ctx context.Context, text string, onFragment genai.StreamFunc) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return false, ErrBusy
	}
	m.epoch++
	epoch := m.epoch
	session := m.session
	m.busy = true
	m.errMsg = ""
	m.errKind = ""
	m.transcript = append(m.transcript,
		models.ChatMessage{Role: models.RoleUser, Text: text},
		models.ChatMessage{Role: models.RoleModel, Text: ""},
	)
	m.mu.Unlock()

	full, err := m.gw.StreamMessage(ctx, session, text, func(fragment string) error {
		m.applyFragment(epoch, fragment)
		if onFragment != nil {
			return onFragment(fragment)
		}
		return nil
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		// Reset happened mid-stream; the session this send used is
		// gone, so the outcome is dropped.
		log.Debug().Msg("discarding stale chat result")
		return true, err
	}

	m.busy = false

	if err != nil {
		// Remove the placeholder model message; the user turn stays.
		if n := len(m.transcript); n > 0 && m.transcript[n-1].Role == models.RoleModel {
			m.transcript = m.transcript[:n-1]
		}
		m.errKind, m.errMsg = classify(err)
		log.Warn().Err(err).Msg("chat send failed")
		return true, err
	}

	m.transcript[len(m.transcript)-1].Text = full
	m.ledger.Append(models.ModeChat, text, models.TextOutput(full))
	return true, nil
}

// applyFragment grows the placeholder model message if the send is
// still current. The text is monotonically growing until the stream
// ends.
func (m *ChatManager) applyFragment(epoch uint64, fragment string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return
	}
	if n := len(m.transcript); n > 0 && m.transcript[n-1].Role == models.RoleModel {
		m.transcript[n-1].Text += fragment
	}
}
