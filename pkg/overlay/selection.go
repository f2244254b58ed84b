package overlay

import "sync"

// Selection is the single shared "active detection" state: at most one
// detection shows its detail tooltip at a time. Clicking the active detection
// again deselects it, so Toggle is an involution.
// Safe for concurrent use.
type Selection struct {
	lock   sync.Mutex
	active string
}

// Toggle flips the selection state of 'id' and returns the new active id
// ("" if the toggle deselected).
func (s *Selection) Toggle(id string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.active == id {
		s.active = ""
	} else {
		s.active = id
	}
	return s.active
}

// Active returns the currently selected detection id, or "" for none
func (s *Selection) Active() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.active
}

// Clear drops any active selection. Called on pipeline reset and whenever a
// new result replaces the old one (the old ids are meaningless in the new
// result).
func (s *Selection) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.active = ""
}
