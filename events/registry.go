// Package events fans the node's event stream out to a fixed set of
// subscribers.
package events

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ellemouton/lnscan/node"
)

// SubscriberID names one of the wallet's event consumers.
type SubscriberID uint8

const (
	// SubscriberHome keeps the wallet overview current.
	SubscriberHome SubscriberID = iota

	// SubscriberSubmarine follows swap invoices.
	SubscriberSubmarine

	numSubscribers
)

// String returns a human readable name for the subscriber.
func (s SubscriberID) String() string {
	switch s {
	case SubscriberHome:
		return "Home"

	case SubscriberSubmarine:
		return "Submarine"

	default:
		return fmt.Sprintf("SubscriberID(%d)", uint8(s))
	}
}

var (
	// ErrUnknownSubscriber is returned for ids outside the closed set.
	ErrUnknownSubscriber = errors.New("unknown subscriber")

	// ErrAlreadyRegistered is returned when an id already has a handler.
	ErrAlreadyRegistered = errors.New("subscriber already registered")

	// ErrNotRegistered is returned when removing an id without a handler.
	ErrNotRegistered = errors.New("subscriber not registered")
)

// Handler consumes node events. It must not block for long since it runs on
// the dispatching goroutine.
type Handler func(node.Event)

// Registry maps each subscriber to at most one handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[SubscriberID]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[SubscriberID]Handler),
	}
}

// Register installs h for id.
func (r *Registry) Register(id SubscriberID, h Handler) error {
	if id >= numSubscribers {
		return fmt.Errorf("%w: %v", ErrUnknownSubscriber, id)
	}
	if h == nil {
		return fmt.Errorf("nil handler for %v", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[id]; ok {
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, id)
	}
	r.handlers[id] = h

	log.Debugf("Registered event subscriber %v", id)

	return nil
}

// Remove uninstalls the handler of id.
func (r *Registry) Remove(id SubscriberID) error {
	if id >= numSubscribers {
		return fmt.Errorf("%w: %v", ErrUnknownSubscriber, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[id]; !ok {
		return fmt.Errorf("%w: %v", ErrNotRegistered, id)
	}
	delete(r.handlers, id)

	log.Debugf("Removed event subscriber %v", id)

	return nil
}

// Dispatch hands ev to every registered handler in subscriber order and
// returns how many received it. Handlers are called without the registry
// lock held, so they may register or remove subscribers.
func (r *Registry) Dispatch(ev node.Event) int {
	r.mu.RLock()
	ids := make([]SubscriberID, 0, len(r.handlers))
	handlers := make(map[SubscriberID]Handler, len(r.handlers))
	for id, h := range r.handlers {
		ids = append(ids, id)
		handlers[id] = h
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	for _, id := range ids {
		log.Tracef("Dispatching %v to %v", ev.Type, id)
		handlers[id](ev)
	}

	return len(ids)
}
