// Package jobmgr runs named background jobs with cancellation and
// status callbacks. A job name can only run once at a time; jobs are
// removed automatically when their runner returns.
package jobmgr

import (
	"context"
	"fmt"
	"sync"
)

// DefaultManager is the global job manager.
var DefaultManager = NewManager(nil)

// StatusReporter receives lifecycle events for jobs, e.g.
// "running:register-commands" or "error:register-commands:timeout".
type StatusReporter func(string)

// Manager starts, stops and tracks jobs. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]context.CancelFunc
	Reporter StatusReporter
}

// NewManager creates a Manager. The reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]context.CancelFunc),
		Reporter: reporter,
	}
}

// StartAsync runs the job in its own goroutine and returns immediately.
// Returns an error if a job with the same name is already running.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("job '%s' is already running", name)
	}
	m.jobs[name] = cancel
	m.mu.Unlock()

	go func() {
		m.report("running:" + name)

		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()
		cancel()
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	cancel()
	delete(m.jobs, name)
	return nil
}

// Running reports whether a job with the given name is active.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
