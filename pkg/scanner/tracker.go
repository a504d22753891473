package scanner

import (
	"sort"
	"sync"

	"github.com/herlein/benchgpib/pkg/gpib"
)

// ListenerTracker follows listeners across sweeps with hysteresis
type ListenerTracker struct {
	listeners map[gpib.Address]*trackedListener
	mu        sync.RWMutex
	lostAfter int // missed sweeps before a listener is dropped

	// Callbacks
	onFound func(Listener)
	onLost  func(Listener)
}

type trackedListener struct {
	Listener
	missed int
}

// NewListenerTracker creates a tracker that drops listeners after lostAfter missed sweeps
func NewListenerTracker(lostAfter int) *ListenerTracker {
	if lostAfter < 1 {
		lostAfter = 1
	}
	return &ListenerTracker{
		listeners: make(map[gpib.Address]*trackedListener),
		lostAfter: lostAfter,
	}
}

// SetCallbacks sets the found and lost callbacks
func (t *ListenerTracker) SetCallbacks(onFound, onLost func(Listener)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFound = onFound
	t.onLost = onLost
}

// Update merges a sweep into the tracked state. Callbacks run synchronously
// after the state is updated.
func (t *ListenerTracker) Update(result *ScanResult) {
	var found, lost []Listener

	t.mu.Lock()
	seen := make(map[gpib.Address]bool, len(result.Listeners))
	for _, l := range result.Listeners {
		seen[l.Address] = true
		tracked, exists := t.listeners[l.Address]
		if !exists {
			tracked = &trackedListener{Listener: l}
			tracked.FirstSeen = result.Timestamp
			t.listeners[l.Address] = tracked
		}
		tracked.Status = l.Status
		if l.ID != "" {
			tracked.ID = l.ID
		}
		tracked.LastSeen = result.Timestamp
		tracked.SeenCount++
		tracked.missed = 0
		if !exists {
			found = append(found, tracked.Listener)
		}
	}

	for addr, tracked := range t.listeners {
		if seen[addr] {
			continue
		}
		tracked.missed++
		if tracked.missed >= t.lostAfter {
			delete(t.listeners, addr)
			lost = append(lost, tracked.Listener)
		}
	}
	onFound, onLost := t.onFound, t.onLost
	t.mu.Unlock()

	if onFound != nil {
		for _, l := range found {
			onFound(l)
		}
	}
	if onLost != nil {
		for _, l := range lost {
			onLost(l)
		}
	}
}

// Active returns the tracked listeners ordered by address
func (t *ListenerTracker) Active() []Listener {
	t.mu.RLock()
	defer t.mu.RUnlock()

	active := make([]Listener, 0, len(t.listeners))
	for _, tracked := range t.listeners {
		active = append(active, tracked.Listener)
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Address.PAD != active[j].Address.PAD {
			return active[i].Address.PAD < active[j].Address.PAD
		}
		return active[i].Address.SAD < active[j].Address.SAD
	})
	return active
}

// Clear forgets every tracked listener
func (t *ListenerTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = make(map[gpib.Address]*trackedListener)
}
