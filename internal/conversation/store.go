// Package conversation holds the ordered, observable message history.
package conversation

import (
	"sync"

	"latentchat/internal/domain"
)

// EventKind identifies which mutation a subscriber is notified about.
type EventKind string

const (
	EventAppend EventKind = "append"
	EventUpdate EventKind = "update"
	EventRemove EventKind = "remove"
)

// Event is delivered to subscribers on every mutation. Message carries a
// copy of the record after the mutation (for removes, the removed record).
type Event struct {
	Kind    EventKind
	Message domain.Message
}

// Listener receives store events. Listeners run synchronously under the
// store lock, so every mutation is observed before the next is accepted.
type Listener func(Event)

// subscription pairs a listener with its id so unsubscribing keeps the
// registration order of the rest intact.
type subscription struct {
	id       int
	listener Listener
}

// Store is an insertion-order-preserving mapping from message id to message.
// Display order is append order; updates never move a message.
type Store struct {
	mu        sync.Mutex
	order     []string
	messages  map[string]domain.Message
	listeners []subscription
	nextSub   int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		messages: make(map[string]domain.Message),
	}
}

// Append adds a message at the end of the history. Appending an id that
// already exists replaces the record in place instead.
func (s *Store) Append(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	s.messages[m.ID] = m
	s.notify(Event{Kind: EventAppend, Message: m})
}

// Update replaces the record at id wholesale, keeping its position. The
// replacement's id is forced to the existing id. Returns false when the id
// is unknown.
func (s *Store) Update(id string, m domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[id]; !exists {
		return false
	}
	m.ID = id
	s.messages[id] = m
	s.notify(Event{Kind: EventUpdate, Message: m})
	return true
}

// Remove deletes the entry at id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.messages[id]
	if !exists {
		return
	}
	delete(s.messages, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.notify(Event{Kind: EventRemove, Message: m})
}

// Get returns the message at id.
func (s *Store) Get(id string) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	return m, ok
}

// All returns the history in insertion order.
func (s *Store) All() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Message, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.messages[id])
	}
	return all
}

// LastUserPrompt returns the prompt of the most recent user message, for
// input recall.
func (s *Store) LastUserPrompt() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if m := s.messages[s.order[i]]; m.Role == domain.RoleUser {
			return m.Prompt, true
		}
	}
	return "", false
}

// Subscribe registers a listener for every subsequent mutation. Listeners
// are notified in registration order. The returned function unsubscribes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners = append(s.listeners, subscription{id: id, listener: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// notify runs under s.mu; mutation and notification are one atomic step.
func (s *Store) notify(e Event) {
	for _, sub := range s.listeners {
		sub.listener(e)
	}
}
