package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stage is the wizard's lifecycle position. Once Applied or TimedOut is
// reached no further input is accepted.
type Stage int

const (
	StageSelecting Stage = iota
	StageConfirming
	StageApplied
	StageTimedOut
)

func (s Stage) String() string {
	switch s {
	case StageSelecting:
		return "selecting"
	case StageConfirming:
		return "confirming"
	case StageApplied:
		return "applied"
	case StageTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

const (
	selectTimeoutMessage  = "No selection made in time."
	confirmTimeoutMessage = "No confirmation made in time."

	defaultSelectTimeout  = 30 * time.Second
	defaultConfirmTimeout = 30 * time.Second
)

// Applier applies one confirmed choice against the store and returns the
// user-visible outcome message. It must not fail: store faults are
// already absorbed into the message.
type Applier func(ctx context.Context, choice Choice) string

// WizardConfig describes one wizard instance.
type WizardConfig struct {
	// OwnerID is the invoking user. Input from anyone else is ignored.
	OwnerID string
	Prompt  string
	// ConfirmPrompt is a fmt string taking the selection count. Only
	// used when MultiSelect is set.
	ConfirmPrompt string
	Options       []Option
	// MultiSelect enables the two-step select-then-confirm flow.
	MultiSelect    bool
	SelectTimeout  time.Duration
	ConfirmTimeout time.Duration
	Apply          Applier
	Presenter      WizardPresenter
	// OnDone fires exactly once when the wizard reaches a terminal
	// stage.
	OnDone func(Stage)
	Log    *logrus.Logger
}

// Wizard collects exactly one user decision from a rendered option list,
// applies it, and terminates. Single-use.
type Wizard struct {
	id  string
	cfg WizardConfig
	ctx context.Context

	mu       sync.Mutex
	stage    Stage
	selected []Choice
	timer    *time.Timer
}

// NewWizard validates the config and builds a wizard in the selecting
// stage. Nothing renders until Start.
func NewWizard(cfg WizardConfig) (*Wizard, error) {
	if cfg.OwnerID == "" {
		return nil, errors.New("wizard: owner id is required")
	}
	if len(cfg.Options) == 0 {
		return nil, errors.New("wizard: at least one option is required")
	}
	if cfg.Apply == nil {
		return nil, errors.New("wizard: applier is required")
	}
	if cfg.Presenter == nil {
		return nil, errors.New("wizard: presenter is required")
	}
	if cfg.SelectTimeout <= 0 {
		cfg.SelectTimeout = defaultSelectTimeout
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	return &Wizard{
		id:    uuid.NewString(),
		cfg:   cfg,
		stage: StageSelecting,
	}, nil
}

// ID uniquely identifies this instance, used to namespace component
// custom ids and log lines.
func (w *Wizard) ID() string {
	return w.id
}

// Stage reports the current lifecycle position.
func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Start renders the option menu and arms the selection timeout. The
// context outlives the call: timer-driven renders reuse it.
func (w *Wizard) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ctx = ctx
	w.timer = time.AfterFunc(w.cfg.SelectTimeout, func() {
		w.timeout(StageSelecting, selectTimeoutMessage)
	})

	return w.cfg.Presenter.Render(ctx, WizardView{
		Content:     w.cfg.Prompt,
		Options:     w.cfg.Options,
		MultiSelect: w.cfg.MultiSelect,
	})
}

// HandleSelect processes a selection. It reports whether the input was
// accepted; input from non-owners, unknown option ids, or a wizard past
// the selecting stage is silently ignored.
func (w *Wizard) HandleSelect(userID string, ids []int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage != StageSelecting || userID != w.cfg.OwnerID {
		return false
	}

	choices := w.resolve(ids)
	if len(choices) == 0 {
		return false
	}

	w.timer.Stop()

	if !w.cfg.MultiSelect {
		w.finish(StageApplied, w.cfg.Apply(w.ctx, choices[0]))
		return true
	}

	w.selected = choices
	w.stage = StageConfirming
	w.timer = time.AfterFunc(w.cfg.ConfirmTimeout, func() {
		w.timeout(StageConfirming, confirmTimeoutMessage)
	})
	w.render(WizardView{
		Content:     fmt.Sprintf(w.cfg.ConfirmPrompt, len(choices)),
		ShowConfirm: true,
	})
	return true
}

// HandleConfirm applies the pending selection, one mutation per choice
// in selection order. A failed mutation's message is still just a
// message: it does not stop the rest.
func (w *Wizard) HandleConfirm(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage != StageConfirming || userID != w.cfg.OwnerID {
		return false
	}

	w.timer.Stop()

	var last string
	for _, choice := range w.selected {
		last = w.cfg.Apply(w.ctx, choice)
	}
	w.finish(StageApplied, last)
	return true
}

func (w *Wizard) timeout(from Stage, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage != from {
		return
	}
	w.cfg.Log.WithFields(logrus.Fields{"wizard": w.id, "stage": from}).Debug("wizard timed out")
	w.finish(StageTimedOut, msg)
}

// finish moves to a terminal stage and strips all controls. Caller holds
// the lock.
func (w *Wizard) finish(stage Stage, msg string) {
	w.stage = stage
	w.render(WizardView{Content: msg, Done: true})
	if w.cfg.OnDone != nil {
		w.cfg.OnDone(stage)
	}
}

func (w *Wizard) render(v WizardView) {
	if err := w.cfg.Presenter.Render(w.ctx, v); err != nil {
		w.cfg.Log.WithError(err).WithField("wizard", w.id).Warn("wizard render failed")
	}
}

// resolve maps selected ids back to the configured options, preserving
// the selection order.
func (w *Wizard) resolve(ids []int) []Choice {
	choices := make([]Choice, 0, len(ids))
	for _, id := range ids {
		for _, opt := range w.cfg.Options {
			if opt.Value.ID == id {
				choices = append(choices, opt.Value)
				break
			}
		}
	}
	return choices
}
