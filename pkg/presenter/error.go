package presenter

import (
	"context"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/view"
)

// ErrorPresenter owns shell-level concerns no feature presenter claims:
// system errors, dismissing the error banner, and back navigation.
type ErrorPresenter struct {
	Base
}

// NewError builds the error presenter.
func NewError(bus *event.Bus, sink view.Sink, log *logging.Logger) *ErrorPresenter {
	p := &ErrorPresenter{
		Base: newBase("error", bus, sink, log),
	}
	p.dispatch = p.handle
	return p
}

func (p *ErrorPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch e.Event.(type) {
		case event.ClearError:
			p.send(view.ClearError{})
		case event.NavigateBack:
			p.send(view.NavigateBack{})
		}

	case event.Navigation:
		switch n := e.Event.(type) {
		case event.NavigateTo:
			p.send(view.Navigate{View: n.View})
		case event.NavigatedBack:
			// Informational; the router already moved.
		}

	case event.System:
		if sysErr, ok := e.Event.(event.SystemError); ok {
			p.log.Error(logging.CategoryPresenter, "system_error", sysErr.Message, map[string]any{
				"source": sysErr.Source,
			})
			metricErrorsShown.WithLabelValues(p.name).Inc()
			p.send(view.ShowError{
				Title:    "Something went wrong",
				Message:  sysErr.Message,
				Severity: view.SeverityCritical,
			})
		}
	}
}
