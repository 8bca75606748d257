// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package runloop

// Task is background work that can be cancelled.
type Task interface {
	Cancel()
}

// Slot holds at most one active Task. Starting a task always cancels the
// previous one first. A Slot is confined to the loop goroutine.
type Slot struct {
	cur Task
}

// Start cancels the current task (if any) and installs the one returned by
// start. A nil result leaves the slot empty.
func (s *Slot) Start(start func() Task) {
	s.Stop()
	if t := start(); t != nil {
		s.cur = t
	}
}

// Stop cancels the current task. It reports whether a task was active.
func (s *Slot) Stop() bool {
	if s.cur == nil {
		return false
	}
	s.cur.Cancel()
	s.cur = nil
	return true
}

// Active reports whether a task is installed.
func (s *Slot) Active() bool {
	return s.cur != nil
}

// Release empties the slot without cancelling, used when the task finished on its own.
func (s *Slot) Release(t Task) {
	if s.cur == t {
		s.cur = nil
	}
}
