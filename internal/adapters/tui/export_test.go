package tui

import "time"

// MaxOffset exposes the bottom scroll position for tests.
func (v *Vterm) MaxOffset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxOffset()
}

// SetClock replaces the time source used for running durations.
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
}
