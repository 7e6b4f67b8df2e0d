package drafts

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the idle interval used when none is configured.
const DefaultDelay = 2 * time.Second

// AutoSaver coalesces rapid edits into a single write once the state has
// been idle for the configured delay. The last update always wins.
type AutoSaver struct {
	store Store
	key   string
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending []byte
	gen     uint64
	lastErr error
	closed  bool
}

// NewAutoSaver creates an auto-saver for key. A non-positive delay selects
// DefaultDelay.
func NewAutoSaver(store Store, key string, delay time.Duration) *AutoSaver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &AutoSaver{store: store, key: key, delay: delay}
}

// Key returns the draft key this saver writes to.
func (a *AutoSaver) Key() string { return a.key }

// Update records state and restarts the idle timer. The state is encoded
// right away so later mutations by the caller do not leak into the draft.
func (a *AutoSaver) Update(state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("autosaver for %s is closed", a.key)
	}

	a.pending = data
	a.stopLocked()
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
	return nil
}

// stopLocked cancels the idle timer. Bumping gen also invalidates a timer
// that already fired and is waiting for the lock.
func (a *AutoSaver) stopLocked() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
	}
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	if err := a.writeLocked(); err != nil {
		a.lastErr = err
		zap.S().Warnf("Autosave of %s failed: %v", a.key, err)
	}
}

// Flush writes pending state now. It also returns the error of a failed
// background write, if any.
func (a *AutoSaver) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	err := a.writeLocked()
	if err == nil {
		err, a.lastErr = a.lastErr, nil
	}
	return err
}

// Discard drops pending state and deletes the stored draft.
func (a *AutoSaver) Discard() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.pending = nil
	a.lastErr = nil
	return a.store.DeleteDraft(a.key)
}

// Close flushes pending state. Further updates are rejected.
func (a *AutoSaver) Close() error {
	err := a.Flush()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return err
}

func (a *AutoSaver) writeLocked() error {
	if a.pending == nil {
		return nil
	}
	if err := a.store.SaveDraft(a.key, a.pending, time.Now()); err != nil {
		return err
	}
	a.pending = nil
	return nil
}
