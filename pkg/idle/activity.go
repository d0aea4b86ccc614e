package idle

import "sync"

// Activity is a kind of user interaction that counts as "not idle".
type Activity string

const (
	PointerMove Activity = "pointer_move"
	KeyPress    Activity = "key_press"
	Click       Activity = "click"
	Scroll      Activity = "scroll"
	Touch       Activity = "touch"
)

// Activities returns every tracked activity kind.
func Activities() []Activity {
	return []Activity{PointerMove, KeyPress, Click, Scroll, Touch}
}

// Source delivers user activity. Listen registers fn and returns a func that
// removes it again; Listen must not call fn before returning.
type Source interface {
	Listen(fn func(Activity)) (stop func())
}

// Feed is an in-process Source fed by explicit Emit calls.
// The zero value is ready to use.
type Feed struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func(Activity)
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Listen implements Source.
func (f *Feed) Listen(fn func(Activity)) (stop func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listeners == nil {
		f.listeners = make(map[int]func(Activity))
	}
	id := f.next
	f.next++
	f.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners, id)
		})
	}
}

// Emit delivers a to every listener on the calling goroutine.
func (f *Feed) Emit(a Activity) {
	f.mu.RLock()
	fns := make([]func(Activity), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(a)
	}
}

// Listeners reports how many listeners are registered.
func (f *Feed) Listeners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}
