package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/editor"
	"github.com/tang-isab/swimlane-chart/layout"
	"github.com/tang-isab/swimlane-chart/persist"
	"github.com/tang-isab/swimlane-chart/render"
)

// Flash messages that are not persistence outcomes.
const (
	MsgImported     = "Project imported successfully!"
	MsgImportFailed = "Error importing project: "
	MsgExported     = "Project exported successfully!"
	MsgReset        = "Project reset to default"
	MsgSaveFailed   = "Could not save data"
)

const defaultSaveTimeout = 10 * time.Second

// Tracker is the application state of the board web app: one board, one
// editor panel, the debounced saver and the pending notifications. All
// mutations run under mu. Saves run on the debouncer's goroutine against a
// clone taken when the mutation happened.
type Tracker struct {
	mu      sync.Mutex
	editor  *editor.Editor
	quiet   bool
	flashes []render.Flash

	adapter     *persist.Adapter
	saver       *persist.Debouncer[*domain.Board]
	saveTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time
}

// Options tunes a Tracker.
type Options struct {
	SaveDelay   time.Duration
	SaveTimeout time.Duration
	Logger      *log.Logger
}

// NewTracker creates a tracker showing the default board. Call Load to pull
// the stored board.
func NewTracker(adapter *persist.Adapter, opts Options) *Tracker {
	if adapter == nil {
		panic("web.NewTracker: adapter is nil")
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = persist.DefaultSaveDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	t := &Tracker{
		adapter:     adapter,
		saveTimeout: opts.SaveTimeout,
		logger:      opts.Logger,
		now:         time.Now,
	}
	t.editor = editor.New(domain.DefaultBoard(), t.changed)
	t.saver = persist.NewDebouncer(opts.SaveDelay, t.save)
	return t
}

// Load replaces the board with the stored one without scheduling a save.
func (t *Tracker) Load(ctx context.Context) persist.LoadResult {
	res := t.adapter.Load(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceQuietly(res.Board)
	if res.Message != "" {
		t.flash(kindFor(res.Warning), res.Message)
	}
	t.logger.WithFields(log.Fields{
		"source":    res.Source,
		"swimlanes": len(res.Board.Lanes),
		"tasks":     len(res.Board.Tasks),
	}).Info("board loaded")
	return res
}

// Do runs fn with exclusive access to the editor. Mutations made through
// the editor schedule a debounced save.
func (t *Tracker) Do(fn func(ed *editor.Editor) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.editor)
}

// View builds the page for the current state and drains the pending
// notifications.
func (t *Tracker) View() render.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := render.NewView(t.editor, t.flashes)
	t.flashes = nil
	return v
}

// Snapshot returns a copy of the board and its computed layout.
func (t *Tracker) Snapshot() (*domain.Board, layout.Plan) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.editor.Board().Clone()
	return b, layout.Compute(b)
}

// Flash queues a notification for the next page.
func (t *Tracker) Flash(kind, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flash(kind, text)
}

// Import replaces the board with the parsed file. A rejected file leaves the
// board untouched.
func (t *Tracker) Import(data []byte) error {
	b, err := persist.Import(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.flash(render.FlashError, MsgImportFailed+err.Error())
		return err
	}
	t.editor.Replace(b)
	t.flash(render.FlashSuccess, MsgImported)
	return nil
}

// Export renders the current board as a project file.
func (t *Tracker) Export() (string, []byte, error) {
	t.mu.Lock()
	b := t.editor.Board().Clone()
	t.mu.Unlock()
	return persist.Export(b, t.now())
}

// ExportPDF writes a PDF snapshot of the current board and returns its file name.
func (t *Tracker) ExportPDF(w io.Writer) (string, error) {
	t.mu.Lock()
	b := t.editor.Board().Clone()
	t.mu.Unlock()
	now := t.now()
	if err := render.PDF(w, b, now); err != nil {
		return "", err
	}
	return render.PDFFilename(now), nil
}

// Reset clears the local store and shows the default board. A pending save
// is dropped so it cannot overwrite the reset.
func (t *Tracker) Reset(ctx context.Context) error {
	t.saver.Stop()
	b, err := t.adapter.Reset(ctx)
	if err != nil {
		t.Flash(render.FlashError, "Could not clear local data")
		return fmt.Errorf("reset: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceQuietly(b)
	t.flash(render.FlashInfo, MsgReset)
	return nil
}

// SavePending reports whether a debounced save is waiting.
func (t *Tracker) SavePending() bool { return t.saver.Pending() }

// Close runs a pending save immediately.
func (t *Tracker) Close() error {
	t.saver.Flush()
	return nil
}

// changed runs inside editor mutations, so mu is held.
func (t *Tracker) changed() {
	if t.quiet {
		return
	}
	t.saver.Trigger(t.editor.Board().Clone())
}

func (t *Tracker) replaceQuietly(b *domain.Board) {
	t.quiet = true
	defer func() { t.quiet = false }()
	t.editor.Replace(b)
}

func (t *Tracker) save(b *domain.Board) {
	ctx, cancel := context.WithTimeout(context.Background(), t.saveTimeout)
	defer cancel()

	start := time.Now()
	res, err := t.adapter.Save(ctx, b)
	entry := t.logger.WithFields(log.Fields{
		"swimlanes": len(b.Lanes),
		"tasks":     len(b.Tasks),
		"save_ms":   float64(time.Since(start).Microseconds()) / 1000,
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		entry.WithError(err).Error("board save failed")
		t.flash(render.FlashError, MsgSaveFailed)
		return
	}
	entry.WithFields(log.Fields{"source": res.Source, "timestamp": res.Timestamp}).Info("board saved")
	if res.Message != "" {
		t.flash(kindFor(res.Warning), res.Message)
	}
}

func (t *Tracker) flash(kind, text string) {
	t.flashes = append(t.flashes, render.Flash{Kind: kind, Text: text})
}

func kindFor(warning bool) string {
	if warning {
		return render.FlashWarning
	}
	return render.FlashSuccess
}

// errNoTask distinguishes a missing task id in a request from a missing task.
var errNoTask = errors.New("task id is required")
