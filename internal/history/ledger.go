// Package history provides the append-only, recency-ordered ledger of
// completed interactions. Entries are created exactly once per
// successful run or chat exchange and never mutated or deleted.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/genstudio/genstudio/pkg/models"
	"github.com/google/uuid"
)

// Ledger is a thread-safe in-memory ledger. No eviction, no size cap,
// no persistence; entries live for the lifetime of the process.
type Ledger struct {
	mu    sync.RWMutex
	items []models.HistoryItem
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records one completed interaction. It assigns a unique ID and
// capture-time timestamp and inserts at the front, so iteration order
// is most-recent-first. Returns the stored item.
func (l *Ledger) Append(mode models.Mode, prompt string, output models.Output) models.HistoryItem {
	item := models.HistoryItem{
		ID:        uuid.New().String(),
		Mode:      mode,
		Prompt:    prompt,
		Output:    output,
		Timestamp: time.Now().UTC(),
	}

	l.mu.Lock()
	l.items = append([]models.HistoryItem{item}, l.items...)
	l.mu.Unlock()

	return item
}

// Items returns a copy of the ledger, most recent first.
func (l *Ledger) Items() []models.HistoryItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HistoryItem, len(l.items))
	copy(out, l.items)
	return out
}

// Len reports the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Replay is a pure read: it returns the {mode, prompt, output} needed
// to repopulate the view for an entry without re-invoking the gateway.
// It never mutates the ledger.
func (l *Ledger) Replay(id string) (models.Replay, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, item := range l.items {
		if item.ID == id {
			return models.Replay{
				Mode:   item.Mode,
				Prompt: item.Prompt,
				Output: item.Output,
			}, nil
		}
	}
	return models.Replay{}, fmt.Errorf("history entry %s not found", id)
}
