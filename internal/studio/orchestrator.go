package studio

import (
	"context"
	"strings"
	"sync"

	"github.com/genstudio/genstudio/internal/history"
	"github.com/genstudio/genstudio/internal/media"
	"github.com/genstudio/genstudio/pkg/models"
	"github.com/rs/zerolog/log"
)

// Orchestrator drives exactly one freeform, image, or video generation
// per invocation. It owns the visible run state: current mode, prompt,
// sampling parameters, busy flag, progress message, output, and error.
//
// Every dispatched run captures an epoch number; completions are
// applied only while the epoch still matches, so results arriving for
// an abandoned run are discarded instead of corrupting fresher state.
type Orchestrator struct {
	gw     Gateway
	ledger *history.Ledger
	media  *media.Store

	mu       sync.Mutex
	epoch    uint64
	mode     models.Mode
	prompt   string
	params   models.ModelParams
	busy     bool
	progress string
	output   *models.Output
	errMsg   string
	errKind  models.ErrorKind
}

// NewOrchestrator creates an orchestrator in freeform mode with default
// sampling parameters.
func NewOrchestrator(gw Gateway, ledger *history.Ledger, mediaStore *media.Store) *Orchestrator {
	return &Orchestrator{
		gw:     gw,
		ledger: ledger,
		media:  mediaStore,
		mode:   models.ModeFreeform,
		params: models.DefaultParams(),
	}
}

// Snapshot returns a point-in-time copy of the visible run state.
func (o *Orchestrator) Snapshot() models.RunSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := models.RunSnapshot{
		Mode:      o.mode,
		Prompt:    o.prompt,
		Busy:      o.busy,
		Progress:  o.progress,
		Error:     o.errMsg,
		ErrorKind: o.errKind,
	}
	if o.output != nil {
		out := *o.output
		snap.Output = &out
	}
	return snap
}

// Mode returns the current interaction mode.
func (o *Orchestrator) Mode() models.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// SetMode switches the interaction mode and resets the transient run
// state (prompt, output, error, progress). The history ledger is never
// touched. An in-flight run is not cancelled, but the epoch advances so
// its late result is discarded as stale.
func (o *Orchestrator) SetMode(mode models.Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	o.mode = mode
	o.prompt = ""
	o.output = nil
	o.errMsg = ""
	o.errKind = ""
	o.progress = ""
	o.busy = false
}

// Params returns the current sampling parameters.
func (o *Orchestrator) Params() models.ModelParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.params
}

// SetParams replaces the sampling parameters after bounds validation.
func (o *Orchestrator) SetParams(p models.ModelParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.params = p
	o.mu.Unlock()
	return nil
}

// Run starts one generation for the current mode. It reports whether a
// run was actually started: empty or whitespace-only prompts are
// silently skipped, and a second trigger while busy returns ErrBusy
// without dispatching a gateway call. Starting a run clears the
// previous output, error, and progress.
//
// The generation itself proceeds asynchronously; poll Snapshot for the
// outcome. A successful run stores its output and appends exactly one
// history entry; a failed run stores a classified error and writes
// nothing to history.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (bool, error) {
	if strings.TrimSpace(prompt) == "" {
		return false, nil
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return false, ErrBusy
	}
	o.epoch++
	epoch := o.epoch
	mode := o.mode
	params := o.params
	o.prompt = prompt
	o.busy = true
	o.output = nil
	o.errMsg = ""
	o.errKind = ""
	o.progress = ""
	o.mu.Unlock()

	go o.dispatch(ctx, epoch, mode, prompt, params)
	return true, nil
}

// dispatch performs the gateway call for one run and applies the
// outcome if the run is still current.
func (o *Orchestrator) dispatch(ctx context.Context, epoch uint64, mode models.Mode, prompt string, params models.ModelParams) {
	var output models.Output
	var err error

	switch mode {
	case models.ModeImage:
		var uris []string
		uris, err = o.gw.GenerateImages(ctx, prompt)
		if err == nil {
			output = models.ImagesOutput(uris)
		}
	case models.ModeVideo:
		var data []byte
		data, err = o.gw.GenerateVideo(ctx, prompt, func(message string) {
			o.setProgress(epoch, message)
		})
		if err == nil {
			var id string
			id, err = o.media.Put(data, "video/mp4")
			if err == nil {
				output = models.VideoOutput(id)
			}
		}
	default:
		var text string
		text, err = o.gw.GenerateText(ctx, prompt, params)
		if err == nil {
			output = models.TextOutput(text)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		// The run was abandoned (mode switch or newer run); drop the
		// result without touching current state or history.
		log.Debug().Str("mode", string(mode)).Msg("discarding stale run result")
		return
	}

	o.busy = false
	o.progress = ""

	if err != nil {
		o.errKind, o.errMsg = classify(err)
		o.output = nil
		log.Warn().Str("mode", string(mode)).Err(err).Msg("run failed")
		return
	}

	o.output = &output
	o.ledger.Append(mode, prompt, output)
	log.Info().Str("mode", string(mode)).Msg("run completed")
}

// setProgress applies a progress message if the run is still current.
func (o *Orchestrator) setProgress(epoch uint64, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch == epoch {
		o.progress = message
	}
}
