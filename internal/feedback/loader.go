package feedback

import (
	"sync"
	"time"
)

// Loader counts outstanding work. Once shown it stays visible for at least
// the configured minimum so quick navigations do not flicker.
type Loader struct {
	min time.Duration

	mu     sync.Mutex
	active int
}

// NewLoader builds a loader with the given minimum visible duration.
func NewLoader(minVisible time.Duration) *Loader {
	return &Loader{min: minVisible}
}

// Begin marks one unit of work as started. The returned func ends it and is
// safe to call more than once.
func (l *Loader) Begin() func() {
	l.mu.Lock()
	l.active++
	l.mu.Unlock()

	started := time.Now()
	var once sync.Once
	return func() {
		once.Do(func() {
			remaining := l.min - time.Since(started)
			if remaining <= 0 {
				l.end()
				return
			}
			time.AfterFunc(remaining, l.end)
		})
	}
}

func (l *Loader) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active > 0 {
		l.active--
	}
}

// Active reports whether the loader is visible.
func (l *Loader) Active() bool {
	return l.Count() > 0
}

// Count returns the number of outstanding units of work.
func (l *Loader) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
