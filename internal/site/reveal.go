package site

import (
	"sync"
)

// Observer delivers a "became visible" event to each subscribed section at
// most once. A delivered or disposed subscription is removed.
type Observer struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// Subscription is one section's pending reveal handler.
type Subscription struct {
	observer *Observer
	section  string
	fn       func(section string)
}

func NewObserver() *Observer {
	return &Observer{subs: make(map[string]*Subscription)}
}

// Subscribe registers fn for section, replacing any pending subscription
// for the same section.
func (o *Observer) Subscribe(section string, fn func(section string)) *Subscription {
	sub := &Subscription{observer: o, section: section, fn: fn}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.subs[section] = sub
	}
	return sub
}

// Notify reports section as visible. It returns true only for the call that
// delivered the event. fn runs outside the observer lock.
func (o *Observer) Notify(section string) bool {
	o.mu.Lock()
	sub, ok := o.subs[section]
	if ok {
		delete(o.subs, section)
	}
	o.mu.Unlock()

	if !ok {
		return false
	}
	if sub.fn != nil {
		sub.fn(section)
	}
	return true
}

// Pending returns the number of undelivered subscriptions.
func (o *Observer) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Close disposes every pending subscription.
func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.subs = make(map[string]*Subscription)
}

// Dispose cancels the subscription if it has not fired yet.
func (s *Subscription) Dispose() {
	o := s.observer
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs[s.section] == s {
		delete(o.subs, s.section)
	}
}
