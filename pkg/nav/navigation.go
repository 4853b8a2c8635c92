// Package nav holds the explicit view-stack state consumed by the top-level
// UI router. The stack is never empty; the bottom frame is always the home
// view and cannot be popped.
package nav

import "sync"

// ViewID identifies a top-level view in the popover.
type ViewID string

const (
	ViewChat          ViewID = "chat"
	ViewHistory       ViewID = "history"
	ViewSettings      ViewID = "settings"
	ViewProfileEditor ViewID = "profile_editor"
	ViewMcpAdd        ViewID = "mcp_add"
	ViewMcpConfigure  ViewID = "mcp_configure"
	ViewModelSelector ViewID = "model_selector"
)

// Home is the root view at the bottom of every navigation stack.
const Home = ViewChat

// State is a stack of view identifiers. Safe for concurrent use, though in
// practice only the UI thread touches it.
type State struct {
	mu    sync.Mutex
	stack []ViewID
}

// NewState returns a navigation state containing only the home view.
func NewState() *State {
	return &State{stack: []ViewID{Home}}
}

// Navigate pushes a view onto the stack. Navigating to the current view is
// a no-op so repeated clicks don't pile up duplicate frames.
func (s *State) Navigate(to ViewID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stack[len(s.stack)-1] == to {
		return
	}
	s.stack = append(s.stack, to)
}

// NavigateBack pops the current view. Returns false when already at the
// root; the root frame is never popped.
func (s *State) NavigateBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stack) <= 1 {
		return false
	}
	s.stack = s.stack[:len(s.stack)-1]
	return true
}

// Current returns the view on top of the stack.
func (s *State) Current() ViewID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack[len(s.stack)-1]
}

// CanGoBack reports whether NavigateBack would pop a frame.
func (s *State) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack) > 1
}

// Depth returns the number of frames on the stack.
func (s *State) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}
