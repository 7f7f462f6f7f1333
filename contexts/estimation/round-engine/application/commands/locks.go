package commands

import "sync"

// StoryLocks serializes mutating operations per story. Operations on
// different stories proceed in parallel.
type StoryLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStoryLocks() *StoryLocks {
	return &StoryLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the story's mutex and returns its release function.
func (s *StoryLocks) Acquire(storyID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[storyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[storyID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
