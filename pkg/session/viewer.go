package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultPageSize is the number of records per rendered page.
const DefaultPageSize = 5

const defaultIdleTimeout = 60 * time.Second

// ViewerConfig describes one viewer instance over an already-materialized
// record sequence.
type ViewerConfig struct {
	Title    string
	Cards    []Card
	PageSize int
	// IdleTimeout is the inactivity window. When it elapses the controls
	// are removed but the rendered content stays in place.
	IdleTimeout time.Duration
	Presenter   ViewerPresenter
	OnDone      func()
	Log         *logrus.Logger
}

// Viewer presents fixed-size pages over its cards and steps forward and
// backward on input until the idle window elapses.
type Viewer struct {
	id  string
	cfg ViewerConfig
	ctx context.Context

	mu    sync.Mutex
	page  int
	done  bool
	timer *time.Timer
}

// NewViewer validates the config and builds a viewer at page zero.
func NewViewer(cfg ViewerConfig) (*Viewer, error) {
	if len(cfg.Cards) == 0 {
		return nil, errors.New("viewer: at least one card is required")
	}
	if cfg.Presenter == nil {
		return nil, errors.New("viewer: presenter is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	return &Viewer{id: uuid.NewString(), cfg: cfg}, nil
}

// ID uniquely identifies this instance.
func (v *Viewer) ID() string {
	return v.id
}

// Page reports the current zero-based page.
func (v *Viewer) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// TotalPages is ceil(len(cards) / pageSize).
func (v *Viewer) TotalPages() int {
	return (len(v.cfg.Cards) + v.cfg.PageSize - 1) / v.cfg.PageSize
}

// Start renders the first page and arms the idle timer.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ctx = ctx
	v.timer = time.AfterFunc(v.cfg.IdleTimeout, v.idle)
	return v.cfg.Presenter.Render(ctx, v.view())
}

// HandlePrev steps one page back. A press at the first page is a no-op.
func (v *Viewer) HandlePrev() bool {
	return v.step(-1)
}

// HandleNext steps one page forward. A press at the last page is a no-op.
func (v *Viewer) HandleNext() bool {
	return v.step(1)
}

func (v *Viewer) step(delta int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.done {
		return false
	}

	next := v.page + delta
	if next < 0 || next > v.TotalPages()-1 {
		return false
	}
	v.page = next

	// Any accepted paging input restarts the inactivity window.
	v.timer.Reset(v.cfg.IdleTimeout)
	v.render(v.view())
	return true
}

// idle removes the controls and leaves the last rendered page in place.
// Unlike the wizard there is no timeout message.
func (v *Viewer) idle() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.done {
		return
	}
	v.done = true

	view := v.view()
	view.ShowControls = false
	view.PrevEnabled = false
	view.NextEnabled = false
	v.render(view)

	if v.cfg.OnDone != nil {
		v.cfg.OnDone()
	}
}

func (v *Viewer) view() ViewerView {
	total := v.TotalPages()
	start := v.page * v.cfg.PageSize
	end := start + v.cfg.PageSize
	if end > len(v.cfg.Cards) {
		end = len(v.cfg.Cards)
	}

	return ViewerView{
		Title:        v.cfg.Title,
		Page:         v.page,
		TotalPages:   total,
		Cards:        v.cfg.Cards[start:end],
		ShowControls: true,
		PrevEnabled:  v.page > 0,
		NextEnabled:  v.page < total-1,
	}
}

func (v *Viewer) render(view ViewerView) {
	if err := v.cfg.Presenter.Render(v.ctx, view); err != nil {
		v.cfg.Log.WithError(err).WithField("viewer", v.id).Warn("viewer render failed")
	}
}
