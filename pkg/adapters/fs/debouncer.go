package fs

import (
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

// debouncer coalesces events per document ID. An event fires once no
// further event for the same ID arrived within the interval.
type debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event core.Event
	timer *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		pending:  make(map[string]*pendingEvent),
	}
}

// add schedules fire for e, merging it with a pending event for the same ID.
func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	// Stop fails once the timer fired; the running callback then owns the
	// old entry and a fresh one is scheduled below.
	if p, ok := d.pending[e.ID]; ok && p.timer.Stop() {
		p.event = mergeEvents(p.event, e)
		p.timer.Reset(d.interval)
		return
	}

	p := &pendingEvent{event: e}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.interval, func() {
		defer d.wg.Done()

		d.mu.Lock()
		ev := p.event
		if d.pending[ev.ID] == p {
			delete(d.pending, ev.ID)
		}
		d.mu.Unlock()

		fire(ev)
	})
	d.pending[e.ID] = p
}

// stopAndWait drops pending events and waits up to timeout for callbacks
// already running.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	for id, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// mergeEvents folds next into prev. A file created and then written is
// still new; one removed and recreated (atomic rename) was modified.
func mergeEvents(prev, next core.Event) core.Event {
	merged := next
	switch {
	case prev.Type == core.EventCreate && next.Type == core.EventModify:
		merged.Type = core.EventCreate
	case prev.Type == core.EventDelete && next.Type == core.EventCreate:
		merged.Type = core.EventModify
	}
	return merged
}
