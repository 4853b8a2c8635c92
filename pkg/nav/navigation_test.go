package nav

import "testing"

func TestNewStateStartsAtHome(t *testing.T) {
	s := NewState()

	if s.Current() != Home {
		t.Errorf("Current = %v, want %v", s.Current(), Home)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", s.Depth())
	}
	if s.CanGoBack() {
		t.Error("CanGoBack should be false at root")
	}
	if s.NavigateBack() {
		t.Error("NavigateBack at root should return false")
	}
	if s.Current() != Home || s.Depth() != 1 {
		t.Error("failed NavigateBack must leave state unchanged")
	}
}

func TestNavigateSameViewIsNoOp(t *testing.T) {
	s := NewState()

	s.Navigate(ViewSettings)
	depth := s.Depth()
	s.Navigate(ViewSettings)

	if s.Depth() != depth {
		t.Errorf("Depth = %d after duplicate navigate, want %d", s.Depth(), depth)
	}
	if s.Current() != ViewSettings {
		t.Errorf("Current = %v, want %v", s.Current(), ViewSettings)
	}
}

func TestNavigateBackUnwindsInOrder(t *testing.T) {
	s := NewState()

	s.Navigate(ViewSettings)
	s.Navigate(ViewModelSelector)
	s.Navigate(ViewHistory)

	if s.Depth() != 4 {
		t.Fatalf("Depth = %d, want 4", s.Depth())
	}

	steps := []struct {
		wantDepth   int
		wantCurrent ViewID
	}{
		{3, ViewModelSelector},
		{2, ViewSettings},
		{1, Home},
	}
	for i, step := range steps {
		if !s.NavigateBack() {
			t.Fatalf("NavigateBack #%d returned false", i+1)
		}
		if s.Depth() != step.wantDepth {
			t.Errorf("after back #%d: Depth = %d, want %d", i+1, s.Depth(), step.wantDepth)
		}
		if s.Current() != step.wantCurrent {
			t.Errorf("after back #%d: Current = %v, want %v", i+1, s.Current(), step.wantCurrent)
		}
	}

	if s.NavigateBack() {
		t.Error("fourth NavigateBack should return false")
	}
}
