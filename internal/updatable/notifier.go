package updatable

import "github.com/barbagrigia/FinanceSharp-sub001/internal/array"

// Subscription cancels a callback registration.
type Subscription struct {
	cancel func()
}

// Unsubscribe removes the callback. Safe to call more than once, and from
// inside a callback.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Join returns a Subscription that cancels all of subs.
func Join(subs ...Subscription) Subscription {
	return Subscription{cancel: func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}}
}

type updatedSub struct {
	id int
	fn UpdatedFunc
}

type resettedSub struct {
	id int
	fn ResettedFunc
}

// Notifier holds the Updated and Resetted subscriber lists. Lists are
// replaced, never edited in place, so a notification that is running keeps
// the list it started with when a callback subscribes or unsubscribes.
type Notifier struct {
	nextID   int
	updated  []updatedSub
	resetted []resettedSub
}

func (n *Notifier) OnUpdated(fn UpdatedFunc) Subscription {
	n.nextID++
	id := n.nextID
	n.updated = append(n.updated[:len(n.updated):len(n.updated)], updatedSub{id: id, fn: fn})
	return Subscription{cancel: func() {
		kept := make([]updatedSub, 0, len(n.updated))
		for _, s := range n.updated {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		n.updated = kept
	}}
}

func (n *Notifier) OnResetted(fn ResettedFunc) Subscription {
	n.nextID++
	id := n.nextID
	n.resetted = append(n.resetted[:len(n.resetted):len(n.resetted)], resettedSub{id: id, fn: fn})
	return Subscription{cancel: func() {
		kept := make([]resettedSub, 0, len(n.resetted))
		for _, s := range n.resetted {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		n.resetted = kept
	}}
}

// NotifyUpdated calls every Updated subscriber in subscription order.
func (n *Notifier) NotifyUpdated(time int64, value array.Array) {
	for _, s := range n.updated {
		s.fn(time, value)
	}
}

// NotifyResetted calls every Resetted subscriber in subscription order.
func (n *Notifier) NotifyResetted(u Updatable) {
	for _, s := range n.resetted {
		s.fn(u)
	}
}

// Subscribers returns the number of Updated and Resetted callbacks.
func (n *Notifier) Subscribers() (updated, resetted int) {
	return len(n.updated), len(n.resetted)
}
