package physics

import "contact3d/internal/collide"

// Event is a multi-cast event with one argument.
type Event[T any] struct {
	listeners []func(T)
}

// AddListener adds a callback to be invoked when the event fires
func (e *Event[T]) AddListener(callback func(T)) {
	if callback == nil {
		return
	}
	e.listeners = append(e.listeners, callback)
}

func (e *Event[T]) RemoveAllListeners() {
	e.listeners = nil
}

// Invoke calls all registered listeners in registration order
func (e *Event[T]) Invoke(arg T) {
	for _, listener := range e.listeners {
		listener(arg)
	}
}

func (e *Event[T]) ListenerCount() int {
	return len(e.listeners)
}

// ContactPair is the argument of contact events.
type ContactPair struct {
	A, B *collide.Model
}

// ContactEvents is a ContactListener that fans each callback out to any
// number of subscribers.
type ContactEvents struct {
	Enter Event[ContactPair]
	Exit  Event[ContactPair]
}

var _ ContactListener = (*ContactEvents)(nil)

func (e *ContactEvents) OnContactEnter(a, b *collide.Model) {
	e.Enter.Invoke(ContactPair{A: a, B: b})
}

func (e *ContactEvents) OnContactExit(a, b *collide.Model) {
	e.Exit.Invoke(ContactPair{A: a, B: b})
}
