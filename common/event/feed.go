// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package event deals with subscriptions to real-time events.
//
// This is a trimmed-down reproduction of go-ethereum's event package,
// kept to the parts the tcp core actually uses: a type-safe,
// many-to-many Feed with best-effort delivery, and the Subscription
// handle used to cancel it.
package event

import (
	"errors"
	"reflect"
	"sync"
)

var errBadChannel = errors.New("event: Subscribe argument does not have sendable channel type")

// Feed implements one-to-many subscriptions where the carried events
// share a single type, fixed by the first Send or Subscribe call.
// The zero value is ready to use.
//
// Feed is safe for concurrent use. Send never blocks waiting on a
// stalled subscriber: delivery to each subscriber channel is
// attempted with a non-blocking send, so a reader that doesn't keep
// its channel drained simply misses events, it never stalls the Feed
// or other subscribers.
type Feed struct {
	mu       sync.Mutex
	once     sync.Once
	etype    reflect.Type
	subs     map[*feedSub]struct{}
}

// typecheck is called with f.mu held. On a mismatch it releases f.mu
// before panicking, so the Feed stays usable after the panic.
func (f *Feed) typecheck(op string, t reflect.Type) {
	f.once.Do(func() { f.etype = t })
	if f.etype != t {
		f.mu.Unlock()
		panic(feedTypeError{op: op, got: t, want: f.etype})
	}
}

// Subscribe adds a channel to the feed. Future sends are delivered on
// the channel until the returned Subscription is canceled. Every
// channel ever subscribed to one Feed must carry the same element
// type; the first Subscribe or Send call on a Feed fixes that type.
func (f *Feed) Subscribe(channel interface{}) Subscription {
	chanval := reflect.ValueOf(channel)
	chantyp := chanval.Type()
	if chantyp.Kind() != reflect.Chan || chantyp.ChanDir()&reflect.SendDir == 0 {
		panic(errBadChannel)
	}

	f.mu.Lock()
	f.typecheck("Subscribe", chantyp.Elem())
	sub := &feedSub{feed: f, channel: chanval, err: make(chan error, 1)}
	if f.subs == nil {
		f.subs = make(map[*feedSub]struct{})
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	return sub
}

func (f *Feed) remove(sub *feedSub) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}

// Send delivers value to every currently subscribed channel and
// returns how many of them accepted it. Send panics if value's
// dynamic type does not match the type fixed by the Feed's first use.
func (f *Feed) Send(value interface{}) (nsent int) {
	rvalue := reflect.ValueOf(value)

	f.mu.Lock()
	f.typecheck("Send", rvalue.Type())
	recipients := make([]reflect.Value, 0, len(f.subs))
	for sub := range f.subs {
		recipients = append(recipients, sub.channel)
	}
	f.mu.Unlock()

	for _, ch := range recipients {
		cas := reflect.SelectCase{Dir: reflect.SelectSend, Chan: ch, Send: rvalue}
		if chosen, _, _ := reflect.Select([]reflect.SelectCase{cas, {Dir: reflect.SelectDefault}}); chosen == 0 {
			nsent++
		}
	}
	return nsent
}

type feedSub struct {
	feed    *Feed
	channel reflect.Value
	errOnce sync.Once
	err     chan error
}

// Unsubscribe cancels the subscription. It is idempotent and safe to
// call more than once or concurrently with Send.
func (sub *feedSub) Unsubscribe() {
	sub.errOnce.Do(func() {
		sub.feed.remove(sub)
		close(sub.err)
	})
}

// Err returns a channel closed once the subscription has ended,
// mirroring Subscription's contract elsewhere in this package.
func (sub *feedSub) Err() <-chan error {
	return sub.err
}

type feedTypeError struct {
	got, want reflect.Type
	op        string
}

func (e feedTypeError) Error() string {
	return "event: wrong type in " + e.op + ": got " + e.got.String() + ", want " + e.want.String()
}
