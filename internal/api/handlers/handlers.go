// Package handlers implements the HTTP handlers for the GenStudio
// server: mode and parameter state, run dispatch, chat streaming,
// history review and replay, snippet export, and media serving.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/genstudio/genstudio/internal/config"
	"github.com/genstudio/genstudio/internal/export"
	"github.com/genstudio/genstudio/internal/history"
	"github.com/genstudio/genstudio/internal/media"
	"github.com/genstudio/genstudio/internal/prompts"
	"github.com/genstudio/genstudio/internal/studio"
	"github.com/genstudio/genstudio/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Orchestrator *studio.Orchestrator
	Chat         *studio.ChatManager
	Ledger       *history.Ledger
	Media        *media.Store
	Service      config.ServiceConfig
}

// New creates a Handlers instance with all dependencies.
func New(orch *studio.Orchestrator, chat *studio.ChatManager, ledger *history.Ledger, mediaStore *media.Store, svc config.ServiceConfig) *Handlers {
	return &Handlers{
		Orchestrator: orch,
		Chat:         chat,
		Ledger:       ledger,
		Media:        mediaStore,
		Service:      svc,
	}
}

// ── Mode & parameters ────────────────────────────────────────

func (h *Handlers) GetMode(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]models.Mode{"mode": h.Orchestrator.Mode()})
}

func (h *Handlers) SetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Orchestrator.SetMode(mode)
	if mode == models.ModeChat {
		// Entering chat mode activates a fresh session; prior
		// transcripts are not resumable.
		h.Chat.Reset()
	}

	log.Info().Str("mode", string(mode)).Msg("mode switched")
	respondJSON(w, http.StatusOK, h.Orchestrator.Snapshot())
}

func (h *Handlers) GetParams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.Params())
}

func (h *Handlers) SetParams(w http.ResponseWriter, r *http.Request) {
	var req models.ModelParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Orchestrator.SetParams(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// ── Runs ─────────────────────────────────────────────────────

func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The run outlives this request; it is not tied to the request
	// context.
	started, err := h.Orchestrator.Run(context.Background(), req.Prompt)
	if errors.Is(err, studio.ErrBusy) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if !started {
		// Empty or whitespace-only prompt: silently ignored.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusAccepted, h.Orchestrator.Snapshot())
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Orchestrator.Snapshot())
}

// ── Chat ─────────────────────────────────────────────────────

func (h *Handlers) ResetChat(w http.ResponseWriter, r *http.Request) {
	h.Chat.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetTranscript(w http.ResponseWriter, r *http.Request) {
	transcript := h.Chat.Transcript()
	if transcript == nil {
		transcript = []models.ChatMessage{}
	}
	busy, errMsg, errKind := h.Chat.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages":  transcript,
		"busy":      busy,
		"error":     errMsg,
		"errorKind": errKind,
	})
}

// SendChat streams one exchange as server-sent events: a "fragment"
// event per incremental chunk, then a terminal "done" event carrying
// the full concatenated text, or an "error" event. A send arriving
// while another is in flight is rejected with 409.
func (h *Handlers) SendChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if busy, _, _ := h.Chat.Snapshot(); busy {
		respondError(w, http.StatusConflict, studio.ErrBusy.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var full strings.Builder
	started, err := h.Chat.Send(r.Context(), req.Message, func(fragment string) error {
		full.WriteString(fragment)
		return writeEvent(w, flusher, "fragment", map[string]string{"text": fragment})
	})

	if !started {
		// Lost the race with another send.
		writeEvent(w, flusher, "error", map[string]string{"error": studio.ErrBusy.Error()})
		return
	}
	if err != nil {
		_, errMsg, errKind := h.Chat.Snapshot()
		if errMsg == "" {
			errMsg = err.Error()
		}
		writeEvent(w, flusher, "error", map[string]string{
			"error": errMsg,
			"kind":  string(errKind),
		})
		return
	}
	writeEvent(w, flusher, "done", map[string]string{"text": full.String()})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// ── History ──────────────────────────────────────────────────

func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	items := h.Ledger.Items()
	if items == nil {
		items = []models.HistoryItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) ReplayHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "historyId")
	replay, err := h.Ledger.Replay(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

// ── Prompts & export ─────────────────────────────────────────

func (h *Handlers) ListPrompts(w http.ResponseWriter, r *http.Request) {
	if m := r.URL.Query().Get("mode"); m != "" {
		mode, err := models.ParseMode(m)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, prompts.ForMode(mode))
		return
	}
	respondJSON(w, http.StatusOK, prompts.All())
}

func (h *Handlers) ExportSnippet(w http.ResponseWriter, r *http.Request) {
	lang, err := export.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := h.Orchestrator.Snapshot()
	snippet, err := export.Snippet(lang, export.Request{
		Mode:       snap.Mode,
		Prompt:     snap.Prompt,
		Params:     h.Orchestrator.Params(),
		TextModel:  h.Service.TextModel,
		ImageModel: h.Service.ImageModel,
		VideoModel: h.Service.VideoModel,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"language": string(lang),
		"snippet":  snippet,
	})
}

// ── Media ────────────────────────────────────────────────────

func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mediaId")
	data, contentType, err := h.Media.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ── Helpers ──────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
