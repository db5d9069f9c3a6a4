package printing

import (
	"sync"

	"github.com/labelprint/labelprint/internal/domain/printing"
)

// SelectionListener is called with the new selection after every change
type SelectionListener func(sel printing.PrintSelection)

type listenerEntry struct {
	id uint64
	fn SelectionListener
}

// SelectionStore holds the printer selection of one editing session and
// notifies subscribers synchronously, on the goroutine that made the change.
type SelectionStore struct {
	mu        sync.RWMutex
	current   *printing.PrinterDescriptor
	listeners []listenerEntry
	nextID    uint64
}

// NewSelectionStore creates an empty selection store
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{}
}

// Current returns a snapshot of the selection
func (s *SelectionStore) Current() printing.PrintSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return printing.PrintSelection{Current: s.current}
}

// Select changes the selected printer. A nil printer clears the selection.
// Listeners have all been called when Select returns.
func (s *SelectionStore) Select(printer *printing.PrinterDescriptor) {
	s.mu.Lock()
	s.current = printer
	sel := printing.PrintSelection{Current: printer}
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(sel)
	}
}

// SelectDefault selects the first printer if nothing is selected yet.
// It returns true if the selection changed.
func (s *SelectionStore) SelectDefault(printers []printing.PrinterDescriptor) bool {
	if len(printers) == 0 || s.Current().HasPrinter() {
		return false
	}
	first := printers[0]
	s.Select(&first)
	return true
}

// Subscribe registers a listener. Release it with Subscription.Unsubscribe.
func (s *SelectionStore) Subscribe(fn SelectionListener) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextID, fn: fn})
	return &Subscription{store: s, id: s.nextID}
}

func (s *SelectionStore) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of active subscriptions
func (s *SelectionStore) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

// Subscription is a handle to a registered listener
type Subscription struct {
	store *SelectionStore
	id    uint64
	once  sync.Once
}

// Unsubscribe removes the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.store.unsubscribe(s.id)
	})
}
