// Package session implements the two short-lived interactive flows: the
// selection wizard (collect one decision, apply it, terminate) and the
// paginated viewer (page through a fixed record set until idle).
//
// Both are transport-agnostic: they own their state behind a mutex,
// process inputs in arrival order, and push every visible change through
// a presenter interface. The Discord layer adapts interactions onto them.
package session

import "context"

// Choice is the structured id/name pair carried as an option's value.
type Choice struct {
	ID   int
	Name string
}

// Option is one rendered menu entry.
type Option struct {
	Label string
	Value Choice
}

// WizardView is what the wizard asks its presenter to show. Done means
// terminal: all interactive controls must be removed.
type WizardView struct {
	Content     string
	Options     []Option
	MultiSelect bool
	ShowConfirm bool
	Done        bool
}

// WizardPresenter renders wizard state transitions back to the user.
type WizardPresenter interface {
	Render(ctx context.Context, v WizardView) error
}

// Card is one enriched record shown by the viewer.
type Card struct {
	Title string
	Link  string
	Body  string
}

// ViewerView is one rendered page.
type ViewerView struct {
	Title        string
	Page         int
	TotalPages   int
	Cards        []Card
	ShowControls bool
	PrevEnabled  bool
	NextEnabled  bool
}

// ViewerPresenter renders viewer pages back to the user.
type ViewerPresenter interface {
	Render(ctx context.Context, v ViewerView) error
}
