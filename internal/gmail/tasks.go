package gmail

import (
	"context"
	"sync"
)

// taskKey identifies an in-flight request by account and operation.
type taskKey struct {
	account string
	op      string
}

func (k taskKey) String() string {
	return k.account + ":" + k.op
}

type task struct {
	id     uint64
	cancel context.CancelFunc
}

// taskSet tracks cancellable in-flight requests.
type taskSet struct {
	mu      sync.Mutex
	nextID  uint64
	running map[taskKey]task
}

func newTaskSet() *taskSet {
	return &taskSet{running: make(map[taskKey]task)}
}

// start registers a task under key and returns its context and id. It
// fails if a task with the same key is already registered.
func (s *taskSet) start(parent context.Context, key taskKey) (context.Context, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.running[key]; exists {
		return nil, 0, false
	}

	ctx, cancel := context.WithCancel(parent)
	s.nextID++
	s.running[key] = task{id: s.nextID, cancel: cancel}
	return ctx, s.nextID, true
}

// finish releases the task registered under key, if it is still the one
// identified by id.
func (s *taskSet) finish(key taskKey, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.running[key]
	if !exists || t.id != id {
		return
	}
	t.cancel()
	delete(s.running, key)
}

// cancel aborts the task registered under key.
func (s *taskSet) cancel(key taskKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.running[key]
	if !exists {
		return false
	}
	t.cancel()
	delete(s.running, key)
	return true
}

// cancelAll aborts every registered task.
func (s *taskSet) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.running {
		t.cancel()
		delete(s.running, key)
	}
}

func (s *taskSet) isRunning(key taskKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.running[key]
	return exists
}

func (s *taskSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.running)
}
